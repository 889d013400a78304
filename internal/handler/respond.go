package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/claimguard/internal/ctxkeys"
	"github.com/templui/claimguard/internal/inference"
	"github.com/templui/claimguard/internal/service"
	"github.com/templui/claimguard/internal/validation"
)

var errPayloadTooLarge = errors.New("request body too large")

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps service errors to a status and writes {"error": msg}.
// Server errors are logged and their detail is not sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	message := err.Error()
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		message = verr.Message
	case errors.Is(err, service.ErrForbidden):
		message = "not allowed to access this claim"
	case errors.Is(err, inference.ErrModelUnavailable):
		message = "model not loaded"
	case errors.Is(err, inference.ErrDecode):
		message = "invalid image file"
	case status >= http.StatusInternalServerError:
		message = http.StatusText(status)
	}

	attrs := []any{"error", err, "status", status, "method", r.Method, "path", r.URL.Path}
	if id := ctxkeys.RequestID(r.Context()); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Debug("request rejected", attrs...)
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrValidation), errors.Is(err, inference.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, inference.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, inference.ErrInference):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body of at most 1MB into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)

	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &maxBytes):
		return err
	default:
		return &validation.Error{Field: "body", Message: "invalid JSON body"}
	}
}
