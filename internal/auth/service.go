package auth

import (
	"context"
	"errors"
	"net"
	"time"
)

// Service ties the credential provider to the login audit trail.
type Service struct {
	provider Provider
	repo     Repository
	now      func() time.Time
}

// NewService constructs a new Service. repo may be nil to skip auditing.
func NewService(provider Provider, repo Repository) *Service {
	return &Service{provider: provider, repo: repo, now: time.Now}
}

// Provider exposes the token verifier shared by the guard and the REST API.
func (s *Service) Provider() Provider {
	return s.provider
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Credentials, error) {
	return s.provider.SignIn(ctx, email, password)
}

// RegisterSession records a successful login. Rows of expired tokens are
// pruned first so the table stays bounded without a separate job.
func (s *Service) RegisterSession(ctx context.Context, rec LoginRecord) error {
	if s.repo == nil {
		return nil
	}
	if host, _, err := net.SplitHostPort(rec.IP); err == nil {
		rec.IP = host
	}
	_, pruneErr := s.repo.PruneExpired(ctx, s.now())
	return errors.Join(pruneErr, s.repo.RecordLogin(ctx, rec))
}

// Logout revokes the token at the provider and forgets the audit row. Both
// steps run even when the first fails.
func (s *Service) Logout(ctx context.Context, sessionID, token string) error {
	err := s.provider.SignOut(ctx, token)
	if s.repo != nil && sessionID != "" {
		err = errors.Join(err, s.repo.ForgetLogin(ctx, sessionID))
	}
	return err
}
