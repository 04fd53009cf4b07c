package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clipstream/internal/apperr"
	"clipstream/internal/storage"
)

// envelope is the uniform response shape for every API endpoint, success and
// failure alike.
type envelope struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{
		Success:    true,
		StatusCode: status,
		Data:       data,
		Message:    message,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	message := apperr.Message(err)
	writeJSON(w, status, envelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
		Errors:     []string{message},
	})
}

// WriteError is an exported helper for returning envelope-shaped API errors.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		Success:    false,
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "method not allowed",
		Errors:     []string{"method not allowed"},
	})
}

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return apperr.Validationf("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Validationf("invalid request body").WithCause(err)
	}
	return nil
}

// pageInfo is the pagination block attached to list responses.
type pageInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// pagination reads the page and limit query parameters, falling back to the
// first page of ten. The limit is clamped to the storage cap so the echoed
// pagination block reports the page size actually served.
func pagination(r *http.Request) (int, int, error) {
	page, err := positiveQueryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err := positiveQueryInt(r, "limit", 10)
	if err != nil {
		return 0, 0, err
	}
	if limit > storage.MaxLimit {
		limit = storage.MaxLimit
	}
	return page, limit, nil
}

func positiveQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, apperr.Validationf("%s must be a positive integer", name)
	}
	return value, nil
}

// checkResourceID rejects ids that cannot have come from the store, which
// issues 32-character lowercase hex ids.
func checkResourceID(raw string) error {
	if len(raw) != 32 {
		return apperr.Validationf("malformed id %q", raw)
	}
	for _, c := range raw {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return apperr.Validationf("malformed id %q", raw)
		}
	}
	return nil
}

// listPayload wraps list items with their pagination block.
func listPayload(key string, items any, page, limit, total int) map[string]any {
	return map[string]any{
		key:          items,
		"pagination": pageInfo{Page: page, Limit: limit, Total: total},
	}
}
