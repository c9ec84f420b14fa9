package auth

import (
	"context"
	"time"

	"github.com/etalasekita/etalase/internal/platform/db"
)

// LoginRecord is one console sign-in kept in admin_sessions for auditing.
type LoginRecord struct {
	SessionID string
	Principal Principal
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

// Repository stores the login audit trail.
type Repository interface {
	RecordLogin(ctx context.Context, rec LoginRecord) error
	ForgetLogin(ctx context.Context, sessionID string) error
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository on the admin_sessions table.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// RecordLogin upserts the row of a session id; a repeated login on the same id
// refreshes subject and expiry.
func (r *PGRepository) RecordLogin(ctx context.Context, rec LoginRecord) error {
	const query = `INSERT INTO admin_sessions (id, subject, email, expires_at, ip, ua)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
ON CONFLICT (id) DO UPDATE
SET subject = EXCLUDED.subject, email = EXCLUDED.email, expires_at = EXCLUDED.expires_at`
	_, err := r.db.Exec(ctx, query, rec.SessionID, rec.Principal.ID, rec.Principal.Email, rec.ExpiresAt.UTC(), rec.IP, rec.UserAgent)
	return db.Wrap("record login", err)
}

// ForgetLogin drops the row of a signed-out session. Unknown ids are not an error.
func (r *PGRepository) ForgetLogin(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, sessionID)
	return db.Wrap("forget login", err)
}

// PruneExpired deletes rows whose token expired before the given instant.
func (r *PGRepository) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, db.Wrap("prune admin sessions", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
