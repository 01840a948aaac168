package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"wifi-voucher/internal/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins, so specific sentinels precede ErrNotFound.
var errorTable = []errorMapping{
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{domain.ErrUnknownPlan, http.StatusNotFound, "unknown_plan"},
	{domain.ErrUnknownLocation, http.StatusNotFound, "unknown_location"},
	{domain.ErrLocationInactive, http.StatusConflict, "location_inactive"},
	{domain.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{domain.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{domain.ErrPersistence, http.StatusServiceUnavailable, "persistence_failure"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	{context.Canceled, 499, "canceled"},
}

var (
	errRateLimited  = errors.New("too many purchases, slow down")
	errUnauthorized = errors.New("admin authentication required")
	errBadBody      = errors.New("malformed request body")
)

// classify maps an error to an HTTP status and a stable code. Messages are
// taken from the matched sentinel so internal wrapping never leaks.
func classify(err error) (int, errorBody) {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, errorBody{Code: "rate_limited", Message: errRateLimited.Error()}
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, errorBody{Code: "unauthorized", Message: errUnauthorized.Error()}
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, errorBody{Code: "invalid_argument", Message: errBadBody.Error()}
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, errorBody{Code: m.code, Message: m.target.Error()}
		}
	}
	return http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 8<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}
