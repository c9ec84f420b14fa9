// Package forms decodes create/update submissions, whether they arrive as JSON,
// urlencoded forms or multipart forms carrying files.
package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/etalasekita/etalase/internal/shared"
)

// DefaultMaxBytes bounds request bodies when the caller passes no limit.
const DefaultMaxBytes = 10 << 20

// DateLayout is the wire format of date-only fields.
const DateLayout = "2006-01-02"

// Null is a submitted value that may be explicitly cleared.
// Set reports presence in the submission; Valid is false for null or blank input.
type Null[T any] struct {
	Set   bool
	Valid bool
	V     T
}

// Value builds a present, non-null Null.
func Value[T any](v T) Null[T] {
	return Null[T]{Set: true, Valid: true, V: v}
}

// Cleared builds a present null.
func Cleared[T any]() Null[T] {
	return Null[T]{Set: true}
}

// Ptr returns the value as a pointer, nil when null or absent.
func (n Null[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

// Submission is a decoded request body.
type Submission struct {
	values map[string]any
	files  map[string]*multipart.FileHeader
}

// NewSubmission wraps already decoded values, mainly for tests.
func NewSubmission(values map[string]any) *Submission {
	if values == nil {
		values = make(map[string]any)
	}
	return &Submission{values: values, files: make(map[string]*multipart.FileHeader)}
}

// Parse reads the body of r once. maxBytes caps the whole body; a larger body
// fails with shared.ErrTooLarge.
func Parse(r *http.Request, maxBytes int64) (*Submission, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	sub := NewSubmission(nil)

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, bodyError("multipart body", err)
		}
		for key, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				sub.values[key] = vs[len(vs)-1]
			}
		}
		for key, fhs := range r.MultipartForm.File {
			if len(fhs) > 0 && fhs[0].Size > 0 {
				sub.files[key] = fhs[0]
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError("form body", err)
		}
		for key, vs := range r.PostForm {
			if len(vs) > 0 {
				sub.values[key] = vs[len(vs)-1]
			}
		}
	default:
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&sub.values); err != nil && !errors.Is(err, io.EOF) {
			return nil, bodyError("json body", err)
		}
		if sub.values == nil {
			sub.values = make(map[string]any)
		}
	}
	return sub, nil
}

// Has reports whether key was submitted, as a value or a file.
func (s *Submission) Has(key string) bool {
	if _, ok := s.values[key]; ok {
		return true
	}
	_, ok := s.files[key]
	return ok
}

// Keys lists submitted value keys.
func (s *Submission) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Text returns the submitted string, nil when absent. JSON null reads as "".
func (s *Submission) Text(key string) *string {
	raw, ok := s.values[key]
	if !ok {
		return nil
	}
	v := ""
	if raw != nil {
		v = strings.TrimSpace(cast.ToString(raw))
	}
	return &v
}

// Int64 reads an integer. Blank strings and null clear the value.
func (s *Submission) Int64(key string) (Null[int64], error) {
	raw, ok := s.lookup(key)
	if !ok {
		return Null[int64]{}, nil
	}
	if raw == nil {
		return Cleared[int64](), nil
	}
	if f, isFloat := raw.(float64); isFloat && f != float64(int64(f)) {
		return Null[int64]{}, invalid(key, "harus bilangan bulat")
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		return Null[int64]{}, invalid(key, "harus bilangan bulat")
	}
	return Value(v), nil
}

// Float64 reads a decimal number. Blank strings and null clear the value.
func (s *Submission) Float64(key string) (Null[float64], error) {
	raw, ok := s.lookup(key)
	if !ok {
		return Null[float64]{}, nil
	}
	if raw == nil {
		return Cleared[float64](), nil
	}
	if str, isString := raw.(string); isString {
		raw = strings.ReplaceAll(str, ",", ".")
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return Null[float64]{}, invalid(key, "harus berupa angka")
	}
	return Value(v), nil
}

// Bool reads a flag; the HTML checkbox value "on" counts as true.
func (s *Submission) Bool(key string) (*bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	v := false
	if str, isString := raw.(string); isString {
		switch strings.ToLower(strings.TrimSpace(str)) {
		case "on", "yes", "ya":
			v = true
			return &v, nil
		case "", "off", "no":
			return &v, nil
		}
	}
	if raw == nil {
		return &v, nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return nil, invalid(key, "harus true atau false")
	}
	return &b, nil
}

// Date reads a YYYY-MM-DD date (an RFC 3339 timestamp is accepted too).
func (s *Submission) Date(key string) (Null[time.Time], error) {
	raw, ok := s.lookup(key)
	if !ok {
		return Null[time.Time]{}, nil
	}
	if raw == nil {
		return Cleared[time.Time](), nil
	}
	str := cast.ToString(raw)
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, str); err == nil {
			return Value(t), nil
		}
	}
	return Null[time.Time]{}, invalid(key, "harus tanggal YYYY-MM-DD")
}

// File returns the file field for key. Browser forms post an empty text part
// for a file input left blank, so the console renders the stored URL as
// key+"_current" and a key+"_remove" checkbox: a blank key next to a current
// value keeps the stored file, a checked remove clears it.
func (s *Submission) File(key string) FileField {
	if fh, ok := s.files[key]; ok {
		return FileField{Upload: fh}
	}
	if v := s.Text(key); v != nil && *v != "" {
		return FileField{URL: *v, Set: true}
	}
	if remove, _ := s.Bool(key + "_remove"); remove != nil && *remove {
		return FileField{Set: true}
	}
	if current := s.Text(key + "_current"); current != nil {
		return FileField{URL: *current}
	}
	if s.Text(key) != nil {
		return FileField{Set: true}
	}
	return FileField{}
}

// lookup returns the raw value; blank strings read as null.
func (s *Submission) lookup(key string) (any, bool) {
	raw, ok := s.values[key]
	if !ok {
		return nil, false
	}
	if str, isString := raw.(string); isString && strings.TrimSpace(str) == "" {
		return nil, true
	}
	return raw, true
}

// bodyError separates an oversized body from a malformed one.
func bodyError(what string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: %s over %d bytes", shared.ErrTooLarge, what, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrValidation, what, err)
}

func invalid(key, msg string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrValidation, key, msg)
}
