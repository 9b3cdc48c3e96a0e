package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Shared validator instance; validator.Validate caches struct metadata,
// so one instance serves all handlers.
var validate = validator.New()

// DecodeJSON decodes the request body into the given struct. An empty
// body is reported as a plain error rather than io.EOF so handlers can
// surface it as a 400.
func DecodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	return err
}

// ValidateRequest checks the struct's validate tags.
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}
