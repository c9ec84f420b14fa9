package categories

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/platform/slug"
	"github.com/etalasekita/etalase/internal/shared"
)

var validate = validator.New()

// Draft is a category create/update submission. Nil fields were not submitted.
type Draft struct {
	Slug *string `validate:"omitempty,max=120"`
	Name *string `validate:"omitempty,max=120"`
}

// DraftFromSubmission reads the editable fields; a submitted id is ignored.
func DraftFromSubmission(sub *forms.Submission) Draft {
	return Draft{
		Slug: sub.Text("slug"),
		Name: sub.Text("name"),
	}
}

// DraftFrom mirrors an existing row, used to prefill edit forms.
func DraftFrom(c Category) Draft {
	return Draft{Slug: &c.Slug, Name: &c.Name}
}

// Validate checks shape only; uniqueness and presence are left to the store.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

// withDerivedSlug fills a blank slug from the name on create.
func (d Draft) withDerivedSlug() Draft {
	if (d.Slug == nil || *d.Slug == "") && d.Name != nil {
		s := slug.Make(*d.Name)
		d.Slug = &s
	} else if d.Slug != nil {
		s := slug.Make(*d.Slug)
		d.Slug = &s
	}
	return d
}
