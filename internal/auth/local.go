package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/etalasekita/etalase/internal/shared"
)

const localIssuer = "etalase"

// LocalProvider authenticates the single admin account configured through the
// environment and issues HS256 tokens. It stands in for the hosted auth service
// in development and tests.
type LocalProvider struct {
	email        string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewLocalProvider constructs a LocalProvider.
func NewLocalProvider(email, passwordHash, secret string, ttl time.Duration) *LocalProvider {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &LocalProvider{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}
}

// SignIn checks the password against the configured bcrypt hash.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	if strings.ToLower(strings.TrimSpace(email)) != p.email {
		return Credentials{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(p.passwordHash, []byte(password)); err != nil {
		return Credentials{}, shared.ErrInvalidCredentials
	}
	now := p.now()
	expires := now.Add(p.ttl)
	principal := Principal{ID: "local:" + p.email, Email: p.email}
	claims := localClaims{
		Email: p.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{AccessToken: token, ExpiresAt: expires, Principal: principal}, nil
}

// Verify parses and validates an HS256 token issued by SignIn.
func (p *LocalProvider) Verify(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, shared.ErrUnauthorized
	}
	var claims localClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, shared.ErrUnauthorized
	}
	if !claims.VerifyIssuer(localIssuer, true) || !claims.VerifyExpiresAt(p.now(), true) {
		return Principal{}, shared.ErrUnauthorized
	}
	if claims.Email != p.email {
		return Principal{}, errors.Join(shared.ErrUnauthorized, errors.New("token for another account"))
	}
	return Principal{ID: claims.Subject, Email: claims.Email}, nil
}

// SignOut is a no-op; local tokens expire on their own.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	return nil
}

var _ Provider = (*LocalProvider)(nil)
