package smes

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/etalasekita/etalase/internal/forms"
	"github.com/etalasekita/etalase/internal/shared"
)

var validate = validator.New()

// Draft is an SME create/update submission. Nil or unset fields were not submitted.
type Draft struct {
	Name             *string `validate:"omitempty,max=200"`
	ShortDescription *string `validate:"omitempty,max=300"`
	Description      *string
	Story            *string
	City             *string `validate:"omitempty,max=120"`
	Province         *string `validate:"omitempty,max=120"`
	Address          *string
	Phone            *string `validate:"omitempty,max=40"`
	Email            *string `validate:"omitempty,max=200"`
	Website          *string `validate:"omitempty,max=300"`
	Instagram        *string `validate:"omitempty,max=300"`
	Facebook         *string `validate:"omitempty,max=300"`
	Category         *string `validate:"omitempty,max=120"`
	Featured         *bool
	EstablishedDate  forms.Null[time.Time]
	Latitude         forms.Null[float64]
	Longitude        forms.Null[float64]
	Logo             forms.FileField `validate:"-"`
	CoverImage       forms.FileField `validate:"-"`
}

// DraftFromSubmission reads the editable fields. product_count and id are ignored.
func DraftFromSubmission(sub *forms.Submission) (Draft, error) {
	d := Draft{
		Name:             sub.Text("name"),
		ShortDescription: sub.Text("short_description"),
		Description:      sub.Text("description"),
		Story:            sub.Text("story"),
		City:             sub.Text("city"),
		Province:         sub.Text("province"),
		Address:          sub.Text("address"),
		Phone:            sub.Text("phone"),
		Email:            sub.Text("email"),
		Website:          sub.Text("website"),
		Instagram:        sub.Text("instagram"),
		Facebook:         sub.Text("facebook"),
		Category:         sub.Text("category"),
		Logo:             sub.File("logo"),
		CoverImage:       sub.File("cover_image"),
	}
	var err error
	if d.Featured, err = sub.Bool("featured"); err != nil {
		return d, err
	}
	if d.EstablishedDate, err = sub.Date("established_date"); err != nil {
		return d, err
	}
	if d.Latitude, err = sub.Float64("latitude"); err != nil {
		return d, err
	}
	if d.Longitude, err = sub.Float64("longitude"); err != nil {
		return d, err
	}
	return d, nil
}

// DraftFrom mirrors an existing row, used to prefill edit forms.
func DraftFrom(s SME) Draft {
	d := Draft{
		Name:             &s.Name,
		ShortDescription: &s.ShortDescription,
		Description:      &s.Description,
		Story:            &s.Story,
		City:             &s.City,
		Province:         &s.Province,
		Address:          &s.Address,
		Phone:            &s.Phone,
		Email:            &s.Email,
		Website:          &s.Website,
		Instagram:        &s.Instagram,
		Facebook:         &s.Facebook,
		Category:         &s.Category,
		Featured:         &s.Featured,
		Logo:             forms.FileField{URL: s.Logo, Set: true},
		CoverImage:       forms.FileField{URL: s.CoverImage, Set: true},
	}
	if s.EstablishedDate != nil {
		d.EstablishedDate = forms.Value(*s.EstablishedDate)
	}
	if s.Latitude != nil && s.Longitude != nil {
		d.Latitude = forms.Value(*s.Latitude)
		d.Longitude = forms.Value(*s.Longitude)
	}
	return d
}

// Validate checks shape: field lengths and a coordinate pair that is complete and in range.
func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return ValidateCoordinates(d.Latitude, d.Longitude)
}

// ValidateCoordinates enforces the both-or-none rule and WGS84 ranges.
func ValidateCoordinates(lat, lng forms.Null[float64]) error {
	if !lat.Set && !lng.Set {
		return nil
	}
	if lat.Set != lng.Set || lat.Valid != lng.Valid {
		return fmt.Errorf("%w: latitude dan longitude harus diisi bersamaan", shared.ErrValidation)
	}
	if !lat.Valid {
		return nil
	}
	if math.IsNaN(lat.V) || lat.V < -90 || lat.V > 90 {
		return fmt.Errorf("%w: latitude harus di antara -90 dan 90", shared.ErrValidation)
	}
	if math.IsNaN(lng.V) || lng.V < -180 || lng.V > 180 {
		return fmt.Errorf("%w: longitude harus di antara -180 dan 180", shared.ErrValidation)
	}
	return nil
}
