package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
)

// LogoutHandler serves POST /v1/session/logout. It revokes the access token
// from the Authorization header and, when provided, the refresh token from
// the body. The endpoint answers 200 even for dead or garbage tokens so it
// stays idempotent and cannot be used to scan for live ones.
type LogoutHandler struct {
	Sessions *service.SessionService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Revokes the presented access token and, optionally, the matching refresh token. Always answers 200, even for invalid or already-revoked tokens.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body	logoutRequest	false	"Optional refresh token to revoke alongside the access token"
//	@Success		200		"Session revoked (or there was nothing to revoke)"
//	@Router			/v1/session/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if access, err := httpx.BearerToken(r); err == nil {
		if !h.Sessions.Revoke(ctx, access) {
			log.Info("logout: access token not revocable")
		}
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if !h.Sessions.Revoke(ctx, req.RefreshToken) {
			log.Info("logout: refresh token not revocable")
		}
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
