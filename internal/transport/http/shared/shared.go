// Package shared centralizes JSON encoding and domain error translation for
// all HTTP handlers so error envelopes stay consistent across features.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "govinda/pkg/domain-errors"
)

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError maps a domain error onto its HTTP status and writes the JSON
// error envelope. Internal details never leak to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// IsBodyError reports whether err came from request decoding.
func IsBodyError(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de) && de.Code == dErrors.CodeBadRequest
}
