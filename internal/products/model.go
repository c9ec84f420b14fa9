package products

import "time"

// Product is an item offered by an SME.
type Product struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	LongDescription string    `json:"long_description"`
	Price           int64     `json:"price"`
	CategorySlug    *string   `json:"category_slug"`
	SMEID           *int64    `json:"sme_id"`
	Image           string    `json:"image"`
	Featured        bool      `json:"featured"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary is the short text used in tables, falling back to the long description.
func (p Product) Summary() string {
	if p.Description != "" {
		return p.Description
	}
	return p.LongDescription
}
