package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

// RemoteProvider talks to the hosted auth REST API.
type RemoteProvider struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
	now        func() time.Time
}

// NewRemoteProvider constructs a RemoteProvider. Sign-in uses the public
// anonymous key; token checks use the privileged service key.
func NewRemoteProvider(baseURL, anonKey, serviceKey string, httpClient *http.Client) *RemoteProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		http:       httpClient,
		now:        time.Now,
	}
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	ExpiresAt   int64      `json:"expires_at"`
	User        remoteUser `json:"user"`
}

type remoteError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// SignIn exchanges email and password for an access token.
func (p *RemoteProvider) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Credentials{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return Credentials{}, fmt.Errorf("auth: build sign-in: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Content-Type", "application/json")

	var token tokenResponse
	status, err := p.do(req, "auth sign-in", &token)
	if err != nil {
		if isRejection(status) {
			return Credentials{}, shared.ErrInvalidCredentials
		}
		return Credentials{}, err
	}
	if token.AccessToken == "" {
		return Credentials{}, shared.ErrInvalidCredentials
	}
	expires := p.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if token.ExpiresAt > 0 {
		expires = time.Unix(token.ExpiresAt, 0)
	}
	return Credentials{
		AccessToken: token.AccessToken,
		ExpiresAt:   expires,
		Principal:   Principal{ID: token.User.ID, Email: token.User.Email},
	}, nil
}

// Verify resolves the user owning token.
func (p *RemoteProvider) Verify(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, shared.ErrUnauthorized
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Principal{}, fmt.Errorf("auth: build verify: %w", err)
	}
	req.Header.Set("apikey", p.serviceKey)
	req.Header.Set("Authorization", "Bearer "+token)

	var user remoteUser
	status, err := p.do(req, "auth verify", &user)
	if err != nil {
		if isRejection(status) {
			return Principal{}, shared.ErrUnauthorized
		}
		return Principal{}, err
	}
	if user.ID == "" {
		return Principal{}, shared.ErrUnauthorized
	}
	return Principal{ID: user.ID, Email: user.Email}, nil
}

// SignOut revokes token on the auth service.
func (p *RemoteProvider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("auth: build sign-out: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	status, err := p.do(req, "auth sign-out", nil)
	if isRejection(status) {
		// Already expired or revoked.
		return nil
	}
	return err
}

func (p *RemoteProvider) do(req *http.Request, op string, out any) (int, error) {
	resp, err := p.http.Do(req)
	if err != nil {
		return 0, &db.StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, &db.StoreError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &db.StoreError{Op: op, Err: fmt.Errorf("%s", remoteMessage(data, resp.Status))}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &db.StoreError{Op: op, Err: err}
		}
	}
	return resp.StatusCode, nil
}

func remoteMessage(data []byte, fallback string) string {
	var e remoteError
	if json.Unmarshal(data, &e) == nil {
		for _, m := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
			if m != "" {
				return m
			}
		}
	}
	return fallback
}

func isRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

var _ Provider = (*RemoteProvider)(nil)
