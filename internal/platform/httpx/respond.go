package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON error envelope returned by the REST API.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is returned by mutating endpoints that have no row to echo.
type MessageBody struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON encodes data before touching the response, so an encoding failure
// becomes a clean 500 instead of a truncated body. HTML characters in names
// such as "Kopi & Teh" are left unescaped.
func JSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		slog.Error("encode json response", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Error sends an error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// Message sends a confirmation envelope with optional data.
func Message(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, MessageBody{Message: message, Data: data})
}
