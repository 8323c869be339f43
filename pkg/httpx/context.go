package httpx

import "context"

type ctxKey string

const (
	// CtxKeyPrincipalID carries the authenticated caller's id for generic
	// plumbing such as per-user rate limiting. Transports set it after
	// resolving the session.
	CtxKeyPrincipalID ctxKey = "principal_id"
)

func principalIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}
