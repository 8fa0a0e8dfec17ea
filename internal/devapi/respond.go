package devapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const maxBodyBytes = 1 << 20

type errorReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorReply{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// userMessages are the texts shown for errors a client can fix.
var userMessages = []struct {
	err error
	msg string
}{
	{core.ErrInvalidAmount, "Please enter a valid amount"},
	{core.ErrEmptyCategory, "Please select a category"},
	{core.ErrInvalidType, "Transaction type must be income or expense"},
	{core.ErrEmptyName, "Name is required"},
	{core.ErrInvalidDateText, "Please enter a valid date"},
	{storage.ErrIncompleteOrder, "Goal order must list every goal exactly once"},
	{storage.ErrEmailTaken, "Email already registered"},
}

// fail maps err to a status and reply. Anything unexpected is logged and
// reported as a 500 without detail.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	for _, um := range userMessages {
		if errors.Is(err, um.err) {
			writeError(w, http.StatusBadRequest, um.msg)
			return
		}
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldOperation, op, log.FieldPath, r.URL.Path, log.FieldError, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
