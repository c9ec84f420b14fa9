// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/etalasekita/etalase/internal/platform/db"
	"github.com/etalasekita/etalase/internal/shared"
)

// Sentinel errors for the domain layer, shared with internal/shared.
var (
	ErrNotFound     = shared.ErrNotFound
	ErrValidation   = shared.ErrValidation
	ErrUnauthorized = shared.ErrUnauthorized
	ErrTooLarge     = shared.ErrTooLarge
)

// TooLargeMessage is shown when a body exceeds UPLOAD_MAX_BYTES.
const TooLargeMessage = "Ukuran unggahan melebihi batas"

// Messages lets a resource localize the text used for well-known errors.
type Messages struct {
	NotFound     string
	Unauthorized string
}

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error, msgs Messages) {
	status, message := Classify(err, msgs)
	Error(w, status, message)
}

// Classify returns the status code and client-visible message for err.
func Classify(err error, msgs Messages) (int, string) {
	var storeErr *db.StoreError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, fallback(msgs.NotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, fallback(msgs.Unauthorized, "Unauthorized")
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, TooLargeMessage
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	case errors.As(err, &storeErr):
		return http.StatusInternalServerError, storeErr.Message()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// UserMessage returns the text shown in console banners for err.
func UserMessage(err error) string {
	return UserMessageWith(err, Messages{})
}

// UserMessageWith is UserMessage with resource-specific texts.
func UserMessageWith(err error, msgs Messages) string {
	_, message := Classify(err, msgs)
	return message
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
