package jsonutil

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/example/crowdfund/internal/types"
)

// MaxBodyBytes caps request bodies read through Decode.
const MaxBodyBytes = 1 << 20

// JSON writes a JSON response with status code.
func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a types.ErrorResponse.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, types.ErrorResponse{Error: msg})
}

// Decode reads a single JSON value from the request body into v.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
