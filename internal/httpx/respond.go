// Package httpx holds the JSON response, error mapping, pagination and
// request decoding helpers shared by every HTTP handler.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/logging"
)

// ErrorBody is the error envelope the web client displays verbatim.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Created writes v with 201.
func Created(w http.ResponseWriter, v any) { JSON(w, http.StatusCreated, v) }

// NoContent writes 204.
func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

// Detail writes {"detail": msg} with code.
func Detail(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, ErrorBody{Detail: msg})
}

// Error maps a service error onto a status code and a human readable detail.
// Unknown errors are logged and reported generically. 401 is never produced
// here; only the auth middleware emits it.
func Error(w http.ResponseWriter, log *logging.Logger, err error) {
	code, msg := Status(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	}
	Detail(w, code, msg)
}

// Status returns the HTTP status and detail message for err.
func Status(err error) (int, string) {
	var (
		ve *domain.ValidationError
		te *domain.TransitionError
		qe *domain.QuotaError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.As(err, &te):
		return http.StatusBadRequest, te.Error()
	case errors.As(err, &qe):
		return http.StatusConflict, qe.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "The requested record was not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, capitalize(domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrPaymentRequired):
		return http.StatusPaymentRequired, capitalize(domain.ErrPaymentRequired.Error())
	case errors.Is(err, domain.ErrAlreadyApplied),
		errors.Is(err, domain.ErrAlreadySelected),
		errors.Is(err, domain.ErrRunInProgress):
		return http.StatusConflict, capitalize(err.Error())
	}
	return http.StatusInternalServerError, "Something went wrong, please try again"
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h, outermost first.
func Chain(h http.HandlerFunc, mws ...Middleware) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}
