package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// JSONWrite writes v as JSON with the given status code. The body is
// marshalled up front so Content-Length is exact and a failed encode never
// leaves a half-written response.
func JSONWrite(w http.ResponseWriter, status int, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	WriteBytes(w, status, "application/json", b)
	return nil
}

// WriteBytes writes b verbatim with an explicit content type and length.
func WriteBytes(w http.ResponseWriter, status int, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
