package products

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

// Recounter schedules a refresh of SME product counts.
type Recounter interface {
	EnqueueRecount(ctx context.Context, smeIDs ...int64) error
}

// Service exposes product use cases.
type Service struct {
	repo      Repository
	uploads   Uploads
	recounter Recounter
	logger    *slog.Logger
}

// NewService constructs a Service. uploads and recounter may be nil.
func NewService(repo Repository, uploads Uploads, recounter Recounter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, uploads: uploads, recounter: recounter, logger: logger}
}

// List returns products newest first, narrowed by f.
func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	return s.repo.List(ctx, f)
}

// Get returns one product or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create uploads a pending image, then inserts the row.
func (s *Service) Create(ctx context.Context, d Draft) (Product, error) {
	if err := d.Validate(); err != nil {
		return Product{}, err
	}
	fresh, err := s.resolveImage(ctx, &d)
	if err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, d)
	if err != nil {
		s.discard(ctx, fresh)
		return Product{}, err
	}
	s.logger.Info("product created", slog.Int64("id", created.ID))
	s.recount(ctx, created.SMEID)
	return created, nil
}

// Update writes the submitted fields. A replaced image is purged and a change
// of owner refreshes both SMEs' counts.
func (s *Service) Update(ctx context.Context, id int64, d Draft) (Product, error) {
	if err := d.Validate(); err != nil {
		return Product{}, err
	}
	var previous Product
	if d.Image.Submitted() || d.SMEID.Set {
		var err error
		if previous, err = s.repo.Get(ctx, id); err != nil {
			return Product{}, err
		}
	}
	fresh, err := s.resolveImage(ctx, &d)
	if err != nil {
		return Product{}, err
	}
	updated, err := s.repo.Update(ctx, id, d)
	if err != nil {
		s.discard(ctx, fresh)
		return Product{}, err
	}
	if d.Image.Set && previous.Image != "" && previous.Image != updated.Image {
		s.discard(ctx, previous.Image)
	}
	if d.SMEID.Set && !sameID(previous.SMEID, updated.SMEID) {
		s.recount(ctx, previous.SMEID, updated.SMEID)
	}
	return updated, nil
}

// Delete removes the row, purges its image and refreshes its SME's count.
func (s *Service) Delete(ctx context.Context, id int64) error {
	previous, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.discard(ctx, previous.Image)
	s.recount(ctx, previous.SMEID)
	s.logger.Info("product deleted", slog.Int64("id", id))
	return nil
}

func (s *Service) resolveImage(ctx context.Context, d *Draft) (string, error) {
	if !d.Image.Pending() {
		return "", nil
	}
	if s.uploads == nil {
		return "", assets.ErrDisabled
	}
	url, err := s.uploads.Put(ctx, assets.NamespaceProducts, d.Image.Upload)
	if err != nil {
		return "", err
	}
	d.Image = forms.FileField{URL: url, Set: true}
	return url, nil
}

func (s *Service) discard(ctx context.Context, url string) {
	if s.uploads == nil || url == "" {
		return
	}
	s.uploads.Discard(ctx, url)
}

func (s *Service) recount(ctx context.Context, ids ...*int64) {
	if s.recounter == nil {
		return
	}
	var smeIDs []int64
	for _, id := range ids {
		if id != nil {
			smeIDs = append(smeIDs, *id)
		}
	}
	if len(smeIDs) == 0 {
		return
	}
	if err := s.recounter.EnqueueRecount(ctx, smeIDs...); err != nil {
		s.logger.Warn("enqueue sme recount", slog.Any("sme_ids", smeIDs), slog.Any("error", err))
	}
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
