// Package storage talks to the hosted object storage of the remote data service.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etalasekita/etalase/internal/platform/db"
)

// Bucket is the only bucket the application writes to.
const Bucket = "umkm-assets"

// Client uploads and removes objects through the storage REST API using the
// privileged service key.
type Client struct {
	baseURL string
	key     string
	bucket  string
	http    *http.Client
}

// New constructs a Client for the service at baseURL.
func New(baseURL, serviceKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceKey,
		bucket:  Bucket,
		http:    httpClient,
	}
}

type apiError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Upload stores body at objectPath and returns the object's public URL.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	endpoint := c.baseURL + "/storage/v1/object/" + c.bucket + "/" + escapePath(objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("storage: build upload: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")

	if err := c.do(req, "storage upload"); err != nil {
		return "", err
	}
	return c.PublicURL(objectPath), nil
}

// Remove deletes the given object paths. Missing objects are not an error.
func (c *Client) Remove(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return err
	}
	endpoint := c.baseURL + "/storage/v1/object/" + c.bucket
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("storage: build remove: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "storage remove")
}

// PublicURL returns the unauthenticated download URL of objectPath.
func (c *Client) PublicURL(objectPath string) string {
	return c.publicPrefix() + escapePath(objectPath)
}

// ObjectPath maps a public URL produced by this client back to its object path.
// URLs pointing elsewhere report false.
func (c *Client) ObjectPath(publicURL string) (string, bool) {
	prefix := c.publicPrefix()
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	raw := strings.TrimPrefix(publicURL, prefix)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	path, err := url.PathUnescape(raw)
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}

// Host is the host serving public object URLs, used for the content security policy.
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func (c *Client) publicPrefix() string {
	return c.baseURL + "/storage/v1/object/public/" + c.bucket + "/"
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("apikey", c.key)
}

func (c *Client) do(req *http.Request, op string) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &db.StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr apiError
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &apiErr) == nil {
		switch {
		case apiErr.Message != "":
			message = apiErr.Message
		case apiErr.Error != "":
			message = apiErr.Error
		}
	}
	if message == "" {
		message = resp.Status
	}
	return &db.StoreError{Op: op, Err: fmt.Errorf("%s", message)}
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
