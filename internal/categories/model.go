package categories

import "time"

// Category groups products; its slug is the key products reference.
type Category struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Label resolves a slug to a display name.
func Label(all []Category, slug *string) string {
	if slug == nil || *slug == "" {
		return "-"
	}
	for _, c := range all {
		if c.Slug == *slug {
			return c.Name
		}
	}
	return "Kategori tidak diketahui"
}
