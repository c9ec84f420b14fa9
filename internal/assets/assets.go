// Package assets uploads entity images to object storage and hands objects that
// are no longer referenced to the background purge task.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/etalasekita/etalase/internal/platform/slug"
)

// Namespaces used as the first object path segment.
const (
	NamespaceProducts = "products"
	NamespaceSMEs     = "smes"
)

// ErrDisabled is returned when a file arrives but no object storage is configured.
var ErrDisabled = errors.New("assets: object storage not configured")

// sniffLen is the header size filetype needs to recognise every matcher.
const sniffLen = 261

// Store is the object storage used for uploads.
type Store interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error)
	ObjectPath(publicURL string) (string, bool)
}

// Purger schedules deletion of stored objects.
type Purger interface {
	EnqueuePurge(ctx context.Context, paths ...string) error
}

// Recorder observes upload outcomes.
type Recorder interface {
	ObserveUpload(namespace string, err error)
}

// Uploader stores multipart files under a namespaced, timestamp-prefixed path.
type Uploader struct {
	store    Store
	purger   Purger
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewUploader constructs an Uploader. purger and recorder may be nil.
func NewUploader(store Store, purger Purger, recorder Recorder, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, purger: purger, recorder: recorder, logger: logger, now: time.Now}
}

// Put uploads fh and returns its public URL.
func (u *Uploader) Put(ctx context.Context, namespace string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", errors.New("assets: no file")
	}
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("assets: open upload: %w", err)
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("assets: read upload: %w", err)
	}
	head = head[:n]

	objectPath := u.ObjectPath(namespace, fh.Filename)
	url, err := u.store.Upload(ctx, objectPath, contentType(head, fh), io.MultiReader(bytes.NewReader(head), file))
	if u.recorder != nil {
		u.recorder.ObserveUpload(namespace, err)
	}
	if err != nil {
		return "", err
	}
	u.logger.Debug("asset uploaded", slog.String("path", objectPath), slog.Int64("size", fh.Size))
	return url, nil
}

// ObjectPath builds "<namespace>/<unix-millis>-<sanitised filename>".
func (u *Uploader) ObjectPath(namespace, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)), '_')
	if base == "" {
		base = uuid.NewString()
	}
	if ext != "" {
		if clean := slug.Make(strings.TrimPrefix(ext, ".")); clean != "" {
			base += "." + clean
		}
	}
	return namespace + "/" + strconv.FormatInt(u.now().UnixMilli(), 10) + "-" + base
}

// Discard schedules purging of urls that live in our bucket. Foreign URLs and
// empty strings are ignored. Failures are logged; the row write already happened.
func (u *Uploader) Discard(ctx context.Context, urls ...string) {
	var paths []string
	for _, url := range urls {
		if url == "" {
			continue
		}
		if p, ok := u.store.ObjectPath(url); ok {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return
	}
	if u.purger == nil {
		u.logger.Warn("orphaned assets left in storage", slog.Any("paths", paths))
		return
	}
	if err := u.purger.EnqueuePurge(ctx, paths...); err != nil {
		u.logger.Warn("enqueue asset purge", slog.Any("paths", paths), slog.Any("error", err))
	}
}

func contentType(head []byte, fh *multipart.FileHeader) string {
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
