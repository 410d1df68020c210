package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/k1networth/techdesk/internal/shared/requestid"
)

const maxBodyBytes = 1 << 20

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders the {"error":{...}} envelope, echoing the request id when present.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, apiErrorResponse{
		Error: apiError{Code: code, Message: message, RequestID: requestid.Get(r.Context())},
	})
}

// DecodeError is returned by DecodeJSON for bodies that are empty, malformed or too large.
type DecodeError string

func (e DecodeError) Error() string { return string(e) }

// DecodeJSON reads exactly one JSON document into dst, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return DecodeError("empty body")
		case errors.As(err, &tooLarge):
			return DecodeError("body too large")
		default:
			return DecodeError("invalid json")
		}
	}

	if dec.More() {
		return DecodeError("invalid json")
	}
	return nil
}
