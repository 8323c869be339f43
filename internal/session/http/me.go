package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
)

// MeHandler serves GET /v1/session/me for the authenticated principal.
type MeHandler struct{}

type principalResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

func toPrincipalResponse(p domain.Principal) principalResponse {
	return principalResponse{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

// ServeHTTP godoc
//
//	@Summary		Current Session
//	@Description	Returns the principal behind the presented access token.
//	@Tags			Session
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	principalResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or expired session"
//	@Router			/v1/session/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, "invalid or expired session")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toPrincipalResponse(p))
}
