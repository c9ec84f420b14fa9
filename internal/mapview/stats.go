package mapview

import (
	"cmp"
	"slices"
)

// ProvinceCount is the number of located SMEs in one province.
type ProvinceCount struct {
	Province string
	Count    int
}

// Stats summarises the located entities for the map page cards.
type Stats struct {
	Total     int
	Located   int
	Featured  int
	Provinces []ProvinceCount
}

// Summarise counts located points, featured ones and the top provinces.
func Summarise(points []Point, top int) Stats {
	st := Stats{Total: len(points)}
	counts := make(map[string]int)
	for _, p := range points {
		if !finite(p.Lat) || !finite(p.Lng) {
			continue
		}
		st.Located++
		if p.Featured {
			st.Featured++
		}
		province := p.Province
		if province == "" {
			province = "Tanpa Provinsi"
		}
		counts[province]++
	}
	for province, n := range counts {
		st.Provinces = append(st.Provinces, ProvinceCount{Province: province, Count: n})
	}
	slices.SortFunc(st.Provinces, func(a, b ProvinceCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Province, b.Province)
	})
	if top > 0 && len(st.Provinces) > top {
		st.Provinces = st.Provinces[:top]
	}
	return st
}
