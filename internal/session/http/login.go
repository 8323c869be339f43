package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
)

// LoginHandler serves POST /v1/session/login. Unknown usernames and wrong
// passwords produce the same 401 body.
type LoginHandler struct {
	LoginService *service.LoginService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Password Login
//	@Description	Exchanges a username and password for an access/refresh token pair.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"Login credentials"
//	@Success		200			{object}	domain.SessionPair
//	@Failure		400			{object}	httpx.ErrorResponse	"Malformed request body"
//	@Failure		401			{object}	httpx.ErrorResponse	"Unknown username or wrong password"
//	@Failure		403			{object}	httpx.ErrorResponse	"Account not active"
//	@Router			/v1/session/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "request body must be JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "username and password are required")
		return
	}

	pair, err := h.LoginService.Login(ctx, req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "unknown username or wrong password")
		return
	case errors.Is(err, service.ErrPrincipalInactive):
		httpx.WriteError(w, http.StatusForbidden,
			"account_inactive", "this account is not active")
		return
	default:
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "unable to process login")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
