package categories

import (
	"context"
	"log/slog"

	"github.com/etalasekita/etalase/internal/platform/slug"
)

// Service exposes category use cases.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns every category ordered by name.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Get returns one category or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a category, deriving the slug from the name when blank.
func (s *Service) Create(ctx context.Context, d Draft) (Category, error) {
	if err := d.Validate(); err != nil {
		return Category{}, err
	}
	created, err := s.repo.Create(ctx, d.withDerivedSlug())
	if err != nil {
		return Category{}, err
	}
	s.logger.Info("category created", slog.Int64("id", created.ID), slog.String("slug", created.Slug))
	return created, nil
}

// Update replaces the submitted fields and returns the stored row.
func (s *Service) Update(ctx context.Context, id int64, d Draft) (Category, error) {
	if err := d.Validate(); err != nil {
		return Category{}, err
	}
	if d.Slug != nil {
		// A blank slug in an edit means "keep"; the key is never cleared.
		if *d.Slug == "" {
			d.Slug = nil
		} else {
			v := slug.Make(*d.Slug)
			d.Slug = &v
		}
	}
	return s.repo.Update(ctx, id, d)
}

// Delete removes the category row; referencing products lose their category.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", slog.Int64("id", id))
	return nil
}
