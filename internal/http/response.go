package http

import (
	"encoding/json"
	"net/http"

	"firewand/internal/payments"
)

type APIError struct {
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, APIError{Message: msg})
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// FailErr maps a payments error kind onto an HTTP status.
func FailErr(w http.ResponseWriter, err error) {
	switch {
	case payments.IsInvalidArgument(err):
		Fail(w, http.StatusBadRequest, err.Error())
	case payments.IsUnauthenticated(err):
		Fail(w, http.StatusUnauthorized, err.Error())
	case payments.IsNotFound(err):
		Fail(w, http.StatusNotFound, err.Error())
	case payments.IsUnimplemented(err):
		Fail(w, http.StatusNotImplemented, err.Error())
	case payments.IsDeadlineExceeded(err):
		Fail(w, http.StatusGatewayTimeout, err.Error())
	default:
		Fail(w, http.StatusInternalServerError, err.Error())
	}
}
