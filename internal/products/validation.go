package products

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/shared"
)

var validate = validator.New()

// Draft is a product create/update submission. Nil or unset fields were not submitted.
type Draft struct {
	Name            *string `validate:"omitempty,max=200"`
	Description     *string `validate:"omitempty,max=500"`
	LongDescription *string
	Price           *int64 `validate:"omitempty,gte=0"`
	CategorySlug    forms.Null[string]
	SMEID           forms.Null[int64]
	Featured        *bool
	Image           forms.FileField `validate:"-"`
}

// DraftFromSubmission reads the editable fields; a submitted id is ignored.
func DraftFromSubmission(sub *forms.Submission) (Draft, error) {
	d := Draft{
		Name:            sub.Text("name"),
		Description:     sub.Text("description"),
		LongDescription: sub.Text("long_description"),
		Image:           sub.File("image"),
	}
	if v := sub.Text("category_slug"); v != nil {
		if *v == "" {
			d.CategorySlug = forms.Cleared[string]()
		} else {
			d.CategorySlug = forms.Value(*v)
		}
	}
	price, err := sub.Int64("price")
	if err != nil {
		return d, err
	}
	if price.Set {
		// A blank price reads as zero; the column is not nullable.
		v := price.V
		d.Price = &v
	}
	if d.SMEID, err = sub.Int64("sme_id"); err != nil {
		return d, err
	}
	if d.Featured, err = sub.Bool("featured"); err != nil {
		return d, err
	}
	return d, nil
}

// DraftFrom mirrors an existing row, used to prefill edit forms.
func DraftFrom(p Product) Draft {
	d := Draft{
		Name:            &p.Name,
		Description:     &p.Description,
		LongDescription: &p.LongDescription,
		Price:           &p.Price,
		Featured:        &p.Featured,
		Image:           forms.FileField{URL: p.Image, Set: true},
	}
	if p.CategorySlug != nil {
		d.CategorySlug = forms.Value(*p.CategorySlug)
	}
	if p.SMEID != nil {
		d.SMEID = forms.Value(*p.SMEID)
	}
	return d
}

// Validate checks shape only; references are checked by the store.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}
