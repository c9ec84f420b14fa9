package smes

import (
	"context"
	"log/slog"
	"mime/multipart"

	"github.com/etalasekita/etalase/internal/assets"
	"github.com/etalasekita/etalase/internal/forms"
)

// Uploads stores image files and schedules removal of unreferenced ones.
type Uploads interface {
	Put(ctx context.Context, namespace string, fh *multipart.FileHeader) (string, error)
	Discard(ctx context.Context, urls ...string)
}

// Service exposes SME use cases.
type Service struct {
	repo    Repository
	uploads Uploads
	logger  *slog.Logger
}

// NewService constructs a Service. uploads may be nil when files are not accepted.
func NewService(repo Repository, uploads Uploads, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, uploads: uploads, logger: logger}
}

// List returns SMEs newest first, narrowed by f.
func (s *Service) List(ctx context.Context, f Filter) ([]SME, error) {
	return s.repo.List(ctx, f)
}

// Get returns one SME or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (SME, error) {
	return s.repo.Get(ctx, id)
}

// Create uploads pending images, then inserts the row.
func (s *Service) Create(ctx context.Context, d Draft) (SME, error) {
	if err := d.Validate(); err != nil {
		return SME{}, err
	}
	fresh, err := s.resolveImages(ctx, &d)
	if err != nil {
		return SME{}, err
	}
	created, err := s.repo.Create(ctx, d)
	if err != nil {
		s.discard(ctx, fresh...)
		return SME{}, err
	}
	s.logger.Info("sme created", slog.Int64("id", created.ID))
	return created, nil
}

// Update writes the submitted fields. Images that were replaced are purged.
func (s *Service) Update(ctx context.Context, id int64, d Draft) (SME, error) {
	if err := d.Validate(); err != nil {
		return SME{}, err
	}
	var previous SME
	if d.Logo.Submitted() || d.CoverImage.Submitted() {
		var err error
		if previous, err = s.repo.Get(ctx, id); err != nil {
			return SME{}, err
		}
	}
	fresh, err := s.resolveImages(ctx, &d)
	if err != nil {
		return SME{}, err
	}
	updated, err := s.repo.Update(ctx, id, d)
	if err != nil {
		s.discard(ctx, fresh...)
		return SME{}, err
	}
	var stale []string
	if d.Logo.Set && previous.Logo != "" && previous.Logo != updated.Logo {
		stale = append(stale, previous.Logo)
	}
	if d.CoverImage.Set && previous.CoverImage != "" && previous.CoverImage != updated.CoverImage {
		stale = append(stale, previous.CoverImage)
	}
	s.discard(ctx, stale...)
	return updated, nil
}

// SetLocation sets or clears the coordinate pair of an SME.
func (s *Service) SetLocation(ctx context.Context, id int64, lat, lng forms.Null[float64]) (SME, error) {
	if !lat.Set && !lng.Set {
		lat, lng = forms.Cleared[float64](), forms.Cleared[float64]()
	}
	return s.Update(ctx, id, Draft{Latitude: lat, Longitude: lng})
}

// Delete removes the row and purges its images.
func (s *Service) Delete(ctx context.Context, id int64) error {
	previous, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, previous.Logo, previous.CoverImage)
	s.logger.Info("sme deleted", slog.Int64("id", id))
	return nil
}

// RecountProducts refreshes the denormalised product counts.
func (s *Service) RecountProducts(ctx context.Context, ids []int64) (int64, error) {
	return s.repo.RecountProducts(ctx, ids)
}

// resolveImages uploads pending files and turns them into URL fields.
// It returns the URLs it created so a failed write can purge them.
func (s *Service) resolveImages(ctx context.Context, d *Draft) ([]string, error) {
	var fresh []string
	for _, field := range []*forms.FileField{&d.Logo, &d.CoverImage} {
		if !field.Pending() {
			continue
		}
		if s.uploads == nil {
			s.discard(ctx, fresh...)
			return nil, assets.ErrDisabled
		}
		url, err := s.uploads.Put(ctx, assets.NamespaceSMEs, field.Upload)
		if err != nil {
			s.discard(ctx, fresh...)
			return nil, err
		}
		fresh = append(fresh, url)
		*field = forms.FileField{URL: url, Set: true}
	}
	return fresh, nil
}

func (s *Service) discard(ctx context.Context, urls ...string) {
	if s.uploads == nil || len(urls) == 0 {
		return
	}
	s.uploads.Discard(ctx, urls...)
}
