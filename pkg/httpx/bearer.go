package httpx

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoBearer signals a missing or malformed Authorization header.
var ErrNoBearer = errors.New("httpx: missing or malformed bearer credential")

// BearerToken extracts the bearer credential from the Authorization header.
// The header must consist of exactly two whitespace-separated fields with
// the scheme compared case-insensitively, per RFC 6750 and RFC 9110.
func BearerToken(r *http.Request) (string, error) {
	return BearerFromHeader(r.Header.Get("Authorization"))
}

// BearerFromHeader parses an Authorization header value in bearer form.
func BearerFromHeader(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", ErrNoBearer
	}
	return fields[1], nil
}

// WriteBearerError writes an RFC 6750 challenge alongside the uniform JSON
// error body. The description is intentionally generic so the response does
// not reveal which verification step rejected the credential.
func WriteBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
