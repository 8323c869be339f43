// Package wsx holds helpers for authenticating WebSocket upgrade requests.
//
// Browsers cannot set arbitrary headers on a WebSocket handshake, so the
// credential may arrive in a query parameter instead of the Authorization
// header. Query-borne credentials end up in access logs and referrers, which
// is why the header-in-query form is an explicit opt-in.
package wsx

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/scribe/pkg/httpx"
)

// ErrMissingCredential signals that no usable credential was found on the
// upgrade request.
var ErrMissingCredential = errors.New("wsx: no credential on upgrade request")

// Extractor pulls a bearer credential from a WebSocket upgrade request. The
// sources are tried in a fixed order: the Authorization header, then the
// "authorization" query parameter in header form (when enabled), then the
// raw "access_token" query parameter.
type Extractor struct {
	// AllowQueryHeader enables the "authorization" query parameter carrying
	// a full "Bearer <token>" value.
	AllowQueryHeader bool
}

func (e Extractor) Token(r *http.Request) (string, error) {
	if token, err := httpx.BearerToken(r); err == nil {
		return token, nil
	}

	query := r.URL.Query()

	if e.AllowQueryHeader {
		if header := query.Get("authorization"); header != "" {
			if token, err := httpx.BearerFromHeader(header); err == nil {
				return token, nil
			}
		}
	}

	if token := query.Get("access_token"); token != "" {
		return token, nil
	}

	return "", ErrMissingCredential
}
