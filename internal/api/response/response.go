package response

import (
	"encoding/json"
	"net/http"
)

// Client-facing error categories. Every error response uses one of these
// in the "error" field; detail strings go in "messages".
const (
	CategoryInvalidRequest = "Invalid client request"
	CategoryUnauthorized   = "Unauthorized"
	CategoryNotFound       = "Not found"
	CategoryInternal       = "Internal service error"
)

type errorEnvelope struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, status int, category string, messages ...string) {
	if messages == nil {
		messages = []string{}
	}
	writeJSON(w, status, errorEnvelope{Error: category, Messages: messages})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
