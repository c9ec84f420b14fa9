package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/etalasekita/etalase/internal/platform/httpx"
	"github.com/etalasekita/etalase/internal/shared"
)

// Session keys and paths of the console login flow.
const (
	SessionTokenKey  = "auth_token"
	SessionReturnKey = "return_to"
	LoginPath        = "/admin/login"
	HomePath         = "/admin"
)

// Guard is the one session check shared by every protected console route and
// the bearer check shared by every mutating API route.
type Guard struct {
	provider Provider
	logger   *slog.Logger
}

// NewGuard constructs a Guard.
func NewGuard(provider Provider, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{provider: provider, logger: logger}
}

// Check resolves the session state. A failed verification, transient or not,
// is treated the same as having no session.
func (g *Guard) Check(ctx context.Context, sess *shared.Session) (State, Principal) {
	if sess == nil || sess.User() == "" {
		return StateUnauthenticated, Principal{}
	}
	token := sess.Get(SessionTokenKey)
	if token == "" {
		return StateUnauthenticated, Principal{}
	}
	principal, err := g.provider.Verify(ctx, token)
	if err != nil {
		if !errors.Is(err, shared.ErrUnauthorized) {
			g.logger.Warn("session check failed", slog.Any("error", err))
		}
		return StateUnauthenticated, Principal{}
	}
	if principal.ID != sess.User() {
		return StateUnauthenticated, Principal{}
	}
	return StateAuthenticated, principal
}

// RequireSession redirects unauthenticated console requests to the login page.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		state, principal := g.Check(r.Context(), sess)
		if state != StateAuthenticated {
			if sess != nil {
				sess.Delete(SessionTokenKey)
				if r.Method == http.MethodGet {
					sess.Set(SessionReturnKey, r.URL.RequestURI())
				}
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireBearer rejects API requests without a valid bearer token.
func (g *Guard) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			httpx.Error(w, http.StatusUnauthorized, "Unauthorized: No token")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		principal, err := g.provider.Verify(r.Context(), token)
		if err != nil {
			if !errors.Is(err, shared.ErrUnauthorized) {
				g.logger.Warn("bearer check failed", slog.Any("error", err))
			}
			httpx.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}
