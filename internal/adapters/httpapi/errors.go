package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/ifiscoder/CommunityApp/internal/app/authctl"
)

// ErrorResponse is the error envelope every endpoint shares.
type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

// writeAppError maps an application-layer error onto the envelope. Anything
// that is not an *authctl.Error becomes an opaque 502 so store internals
// never leak to clients.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *authctl.Error
	if errors.As(err, &appErr) {
		writeError(w, r, appErr.Status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "The service is temporarily unavailable.", nil)
}
