package forms

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etalasekita/etalase/internal/shared"
)

func TestParseJSON(t *testing.T) {
	body := `{"id": 99, "name": " Keripik Tempe ", "price": 15000, "sme_id": null, "featured": true, "latitude": -7.79, "established_date": "2019-05-01"}`
	req := httptest.NewRequest(http.MethodPut, "/api/products/1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	sub, err := Parse(req, 0)
	require.NoError(t, err)

	assert.True(t, sub.Has("id"))
	assert.Equal(t, "Keripik Tempe", *sub.Text("name"))
	assert.Nil(t, sub.Text("description"))

	price, err := sub.Int64("price")
	require.NoError(t, err)
	assert.Equal(t, Value[int64](15000), price)

	smeID, err := sub.Int64("sme_id")
	require.NoError(t, err)
	assert.True(t, smeID.Set)
	assert.False(t, smeID.Valid)
	assert.Nil(t, smeID.Ptr())

	featured, err := sub.Bool("featured")
	require.NoError(t, err)
	assert.True(t, *featured)

	lat, err := sub.Float64("latitude")
	require.NoError(t, err)
	assert.InDelta(t, -7.79, *lat.Ptr(), 1e-9)

	date, err := sub.Date("established_date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), date.V)
}

func TestParseEmptyJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/smes/1", nil)
	sub, err := Parse(req, 0)
	require.NoError(t, err)
	assert.Empty(t, sub.Keys())
}

func TestParseMalformedJSONIsValidationError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":`))
	_, err := Parse(req, 0)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestParseURLEncodedCheckbox(t *testing.T) {
	form := url.Values{}
	form.Add("featured", "false")
	form.Add("featured", "on")
	form.Set("price", "")
	form.Set("latitude", "-6,2")
	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	sub, err := Parse(req, 0)
	require.NoError(t, err)

	featured, err := sub.Bool("featured")
	require.NoError(t, err)
	assert.True(t, *featured)

	price, err := sub.Int64("price")
	require.NoError(t, err)
	assert.Equal(t, Cleared[int64](), price)

	lat, err := sub.Float64("latitude")
	require.NoError(t, err)
	assert.InDelta(t, -6.2, lat.V, 1e-9)
}

func TestParseMultipartFile(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Batik Asri"))
	require.NoError(t, mw.WriteField("cover_image", "https://cdn.test/cover.jpg"))
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	empty, err := mw.CreateFormFile("image", "blank.png")
	require.NoError(t, err)
	_, _ = empty.Write(nil)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/smes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	sub, err := Parse(req, 1<<20)
	require.NoError(t, err)

	logo := sub.File("logo")
	assert.True(t, logo.Pending())
	assert.Equal(t, "logo.png", logo.Upload.Filename)

	cover := sub.File("cover_image")
	assert.False(t, cover.Pending())
	assert.True(t, cover.Submitted())
	assert.Equal(t, "https://cdn.test/cover.jpg", cover.URL)

	assert.False(t, sub.File("image").Submitted())
}

func TestInvalidNumbers(t *testing.T) {
	sub := NewSubmission(map[string]any{"price": "mahal", "qty": 1.5, "lng": "x", "flag": "maybe", "date": "01/02/2020"})

	_, err := sub.Int64("price")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = sub.Int64("qty")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = sub.Float64("lng")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = sub.Bool("flag")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = sub.Date("date")
	assert.ErrorIs(t, err, shared.ErrValidation)

	missing, err := sub.Int64("absent")
	require.NoError(t, err)
	assert.False(t, missing.Set)
}

// browserEdit builds the multipart body a browser posts for the product edit
// form: stored URL in image_current, then the file input left blank.
func browserEdit(t *testing.T, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Keripik"))
	require.NoError(t, mw.WriteField("image_current", "https://store.test/products/old.png"))
	_, err := mw.CreateFormFile("image", "")
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/products/1/edit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBlankFileInputKeepsCurrentImage(t *testing.T) {
	sub, err := Parse(browserEdit(t, nil), 1<<20)
	require.NoError(t, err)

	image := sub.File("image")
	assert.False(t, image.Pending())
	assert.False(t, image.Submitted())
	assert.Equal(t, "https://store.test/products/old.png", image.URL)
}

func TestRemoveCheckboxClearsImage(t *testing.T) {
	sub, err := Parse(browserEdit(t, map[string]string{"image_remove": "on"}), 1<<20)
	require.NoError(t, err)

	image := sub.File("image")
	assert.True(t, image.Submitted())
	assert.Empty(t, image.URL)
}

func TestExplicitBlankImageWithoutCurrentClears(t *testing.T) {
	sub := NewSubmission(map[string]any{"image": ""})
	assert.Equal(t, FileField{Set: true}, sub.File("image"))

	sub = NewSubmission(map[string]any{"image": nil})
	assert.Equal(t, FileField{Set: true}, sub.File("image"))

	sub = NewSubmission(map[string]any{"image": "https://cdn.test/a.png", "image_current": "https://cdn.test/old.png"})
	assert.Equal(t, FileField{URL: "https://cdn.test/a.png", Set: true}, sub.File("image"))
}

func TestParseRejectsOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", 512) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	_, err := Parse(req, 128)
	assert.ErrorIs(t, err, shared.ErrTooLarge)
	assert.NotErrorIs(t, err, shared.ErrValidation)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "foto.png")
	require.NoError(t, err)
	_, _ = part.Write(bytes.Repeat([]byte{0x89}, 4096))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, err = Parse(req, 1024)
	assert.ErrorIs(t, err, shared.ErrTooLarge)

	form := url.Values{"description": {strings.Repeat("b", 512)}}
	req = httptest.NewRequest(http.MethodPost, "/admin/categories", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = Parse(req, 128)
	assert.ErrorIs(t, err, shared.ErrTooLarge)
}
