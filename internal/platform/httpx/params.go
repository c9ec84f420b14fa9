package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// IDParam reads the {id} route parameter. A non-numeric id cannot match any
// row, so it is reported as ErrNotFound.
func IDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrNotFound
	}
	return id, nil
}
