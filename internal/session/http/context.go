package http

import (
	"context"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
)

type principalKey struct{}

func contextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal the session middleware resolved
// for this request.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}
