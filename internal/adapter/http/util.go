package adapthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"wearables/internal/domain"
)

// envelope is the body of every API response except healthz.
type envelope struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError maps a catalog error to its HTTP status. Internal errors never
// expose their cause.
func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	msg := err.Error()
	if code.Kind == domain.KindInternal {
		msg = code.Message
	}
	writeJSON(w, statusFor(code.Kind), envelope{Success: false, ErrorCode: code.Code, Message: msg})
}

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindParse:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		Success:   false,
		ErrorCode: domain.ErrInvalidInput.Code,
		Message:   "method not allowed",
	})
}

// parseJSON decodes a strict request body; unknown fields are rejected.
func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidInput.New(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

// parseDeviceJSON decodes a device payload. Vendors add fields freely, so
// unknown fields are ignored.
func parseDeviceJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidInput.New(fmt.Sprintf("invalid json: %v", err))
	}
	return nil
}

func intParam(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.ErrInvalidInput.Newf("%s must be an integer", name)
	}
	return n, nil
}

func dateParam(name, v string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return time.Time{}, domain.ErrInvalidInput.Newf("%s must be a date in YYYY-MM-DD format", name)
	}
	return d, nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
