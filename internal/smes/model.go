package smes

import (
	"math"
	"time"
)

// SME is a local business (UMKM) shown in the showcase.
type SME struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	ShortDescription string     `json:"short_description"`
	Description      string     `json:"description"`
	Story            string     `json:"story"`
	City             string     `json:"city"`
	Province         string     `json:"province"`
	Address          string     `json:"address"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	Website          string     `json:"website"`
	Instagram        string     `json:"instagram"`
	Facebook         string     `json:"facebook"`
	EstablishedDate  *time.Time `json:"established_date"`
	Category         string     `json:"category"`
	Featured         bool       `json:"featured"`
	ProductCount     int        `json:"product_count"`
	Logo             string     `json:"logo"`
	CoverImage       string     `json:"cover_image"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	CreatedAt        time.Time  `json:"created_at"`
}

// HasLocation reports whether both coordinates are present and finite.
func (s SME) HasLocation() bool {
	return finite(s.Latitude) && finite(s.Longitude)
}

// Founded returns the established date, zero when unknown.
func (s SME) Founded() time.Time {
	if s.EstablishedDate == nil {
		return time.Time{}
	}
	return *s.EstablishedDate
}

// Label resolves an SME id to its name for product tables.
func Label(all []SME, id *int64) string {
	if id == nil {
		return "-"
	}
	for _, s := range all {
		if s.ID == *id {
			return s.Name
		}
	}
	return "UMKM tidak diketahui"
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
