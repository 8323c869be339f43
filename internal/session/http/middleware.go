package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/internal/session/revocation"
	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
)

// SessionMiddleware authenticates the request through the gate and injects
// the resolved principal into the request context. Every token defect, from
// a missing header to a revoked jti, produces the same 401 so callers cannot
// probe which check failed. Account status problems are 403; directory and
// revocation-store outages are 500. None of those reveal anything about the
// token itself.
func SessionMiddleware(gate *service.Gate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token, err := httpx.BearerToken(r)
			if err != nil {
				httpx.WriteBearerError(w, "invalid or expired session")
				return
			}

			p, err := gate.Authenticate(ctx, token)
			if err != nil {
				writeGateError(w, log.Warn, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, p)))
		})
	}
}

// RequireRole gates a route on the principal resolved by SessionMiddleware.
// It must sit inside the chain after SessionMiddleware.
func RequireRole(allowed ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.WriteBearerError(w, "invalid or expired session")
				return
			}

			for _, role := range allowed {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpx.WriteError(w, http.StatusForbidden,
				"insufficient_role", "this operation requires a different role")
		})
	}
}

func contextWithAuth(ctx context.Context, p domain.Principal) context.Context {
	ctx = contextWithPrincipal(ctx, p)
	ctx = context.WithValue(ctx, httpx.CtxKeyPrincipalID, p.ID)
	return ctx
}

func writeGateError(w http.ResponseWriter, warn func(msg string, args ...any), err error) {
	switch {
	case errors.Is(err, service.ErrPrincipalInactive):
		httpx.WriteError(w, http.StatusForbidden,
			"account_inactive", "this account is not active")
	case errors.Is(err, service.ErrPrincipalLookupFailed):
		warn("principal lookup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "unable to resolve session")
	case errors.Is(err, revocation.ErrUnavailable):
		// A store outage is an infra fault, not a token defect.
		warn("revocation check failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "unable to resolve session")
	default:
		// Covers every token defect plus unknown subjects, uniformly.
		httpx.WriteBearerError(w, "invalid or expired session")
	}
}
