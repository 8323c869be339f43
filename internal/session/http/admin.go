package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/internal/session/store"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
)

// AdminHandler serves the /v1/admin/principals endpoints. The router wraps
// these in the session middleware plus an admin role gate.
type AdminHandler struct {
	Principals store.Principals
}

// HandleList godoc
//
//	@Summary		List Principals
//	@Description	Returns every known principal ordered by creation. Admin only.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		principalResponse
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or expired session"
//	@Failure		403	{object}	httpx.ErrorResponse	"Caller is not an admin"
//	@Router			/v1/admin/principals [get].
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principals, err := h.Principals.ListPrincipals(ctx)
	if err != nil {
		log.Error("list principals failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "unable to list principals")
		return
	}

	out := make([]principalResponse, 0, len(principals))
	for _, p := range principals {
		out = append(out, toPrincipalResponse(p))
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}

type statusUpdateRequest struct {
	Status domain.AccountStatus `json:"status"`
}

// HandleUpdateStatus godoc
//
//	@Summary		Update Principal Status
//	@Description	Sets a principal's account status (active, inactive, suspended). Admin only. Already-issued tokens keep verifying; the gate rejects them at resolution time.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Principal id"
//	@Param			request	body		statusUpdateRequest	true	"The new account status"
//	@Success		200		"Status updated"
//	@Failure		400		{object}	httpx.ErrorResponse	"Unknown status value"
//	@Failure		404		{object}	httpx.ErrorResponse	"No such principal"
//	@Router			/v1/admin/principals/{id}/status [patch].
func (h *AdminHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "status must be one of active, inactive, suspended")
		return
	}

	id := r.PathValue("id")
	if err := h.Principals.UpdatePrincipalStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound,
				"not_found", "no such principal")
			return
		}
		log.Error("status update failed", "principal_id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "unable to update principal")
		return
	}

	log.Info("principal status updated", "principal_id", id, "status", string(req.Status))

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
