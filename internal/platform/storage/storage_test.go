package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/internal/platform/db"
)

func TestUploadReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"umkm-assets/products/1-a.png"}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", "service-key", srv.Client())
	url, err := client.Upload(context.Background(), "products/1700000000000-kopi susu.png", "image/png", strings.NewReader("pngdata"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/umkm-assets/products/1700000000000-kopi susu.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "pngdata", gotBody)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/umkm-assets/products/1700000000000-kopi%20susu.png", url)

	path, ok := client.ObjectPath(url)
	require.True(t, ok)
	assert.Equal(t, "products/1700000000000-kopi susu.png", path)
}

func TestUploadSurfacesStoreMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"409","error":"Duplicate","message":"The resource already exists"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, "k", srv.Client())
	_, err := client.Upload(context.Background(), "smes/1-logo.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)

	var storeErr *db.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "The resource already exists", storeErr.Message())
}

func TestRemoveSendsPrefixes(t *testing.T) {
	var payload map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/object/umkm-assets", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(srv.URL, "k", srv.Client())
	require.NoError(t, client.Remove(context.Background(), "products/1-a.png", "smes/2-b.jpg"))
	assert.Equal(t, []string{"products/1-a.png", "smes/2-b.jpg"}, payload["prefixes"])

	require.NoError(t, client.Remove(context.Background()))
}

func TestObjectPathRejectsForeignURLs(t *testing.T) {
	client := New("https://abc.supabase.co", "k", nil)
	_, ok := client.ObjectPath("https://images.example.com/umkm-assets/products/a.png")
	assert.False(t, ok)
	_, ok = client.ObjectPath("https://abc.supabase.co/storage/v1/object/public/umkm-assets/")
	assert.False(t, ok)
	assert.Equal(t, "abc.supabase.co", client.Host())
}
