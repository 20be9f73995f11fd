package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmehra2102/ecommerce-backend/pkg/apperr"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Detailed errors contribute their own code and details to the response
// body, e.g. the product and shortfall of a stock failure.
type Detailed interface {
	ErrorCode() string
	ErrorDetails() map[string]any
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads a single JSON document, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Invalid("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func Status(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Error writes err as a structured JSON body. Unknown errors are logged
// and reported without their message.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code := Status(err)
	payload := errorPayload{Code: code, Message: err.Error()}

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		payload.Details = make(map[string]any, len(ve.Fields))
		for k, v := range ve.Fields {
			payload.Details[k] = v
		}
	}
	var d Detailed
	if errors.As(err, &d) {
		payload.Code = d.ErrorCode()
		payload.Details = d.ErrorDetails()
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		payload.Message = http.StatusText(status)
	}
	JSON(w, status, errorBody{Error: payload})
}

func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("%s %q", name, raw)
	}
	return id, nil
}
