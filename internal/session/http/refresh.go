package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/scribe/internal/session/revocation"
	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
)

// RefreshHandler serves POST /v1/session/refresh. The presented refresh
// token is single-use: rotation revokes it before the new pair is minted, so
// replaying it yields the same uniform 401 as any other dead token.
type RefreshHandler struct {
	Sessions *service.SessionService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ServeHTTP godoc
//
//	@Summary		Rotate Refresh Token
//	@Description	Exchanges a live refresh token for a brand-new access/refresh pair. The presented token is revoked first and cannot be replayed.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		refreshRequest	true	"The refresh token to rotate"
//	@Success		200		{object}	domain.SessionPair
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed request body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Dead, revoked or non-refresh token"
//	@Router			/v1/session/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, revocation.ErrUnavailable) {
			log.Error("refresh rotation failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "unable to rotate session")
			return
		}
		httpx.WriteBearerError(w, "invalid or expired session")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
