package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	"github.com/aussiebroadwan/scribe/internal/session/revocation"
	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/internal/session/store"
	"github.com/aussiebroadwan/scribe/pkg/httpx"
	"github.com/aussiebroadwan/scribe/pkg/slogx"
	"github.com/aussiebroadwan/scribe/pkg/wsx"

	_ "github.com/aussiebroadwan/scribe/api/session" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	revocations revocation.Store

	Sessions     *service.SessionService
	LoginService *service.LoginService
	Gate         *service.Gate

	// WSExtractor controls where the WebSocket handshake may carry its
	// credential.
	WSExtractor wsx.Extractor
}

func NewRouter(
	buildVersion string,
	st store.Store,
	revocations revocation.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		revocations:  revocations,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			Scribe Session Service API
//	@version		0.1.0
//	@description	Token-based session service: password login, JWT access/refresh pairs with single-use rotation, revocation, and authenticated HTTP and WebSocket surfaces.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/scribe
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	// POST /login - strict rate limit by IP + submitted username to slow
	// credential stuffing without letting one IP lock out a username.
	loginHandler := &LoginHandler{LoginService: r.LoginService}
	r.Mux.Handle("POST /v1/session/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username"),
		),
	)

	// POST /refresh - strict rate limit by IP (unauthenticated, carries a
	// credential in the body).
	refreshHandler := &RefreshHandler{Sessions: r.Sessions}
	r.Mux.Handle("POST /v1/session/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - moderate rate limit; answers 200 regardless of token
	// state so no auth middleware in front.
	logoutHandler := &LogoutHandler{Sessions: r.Sessions}
	r.Mux.Handle("POST /v1/session/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /me - authenticated read, lenient per-principal limit.
	r.Mux.Handle("GET /v1/session/me",
		httpx.Chain(&MeHandler{},
			SessionMiddleware(r.Gate),
			httpx.RateLimitByPrincipal(httpx.LenientLimit),
		),
	)

	// GET /ws - the handler authenticates the handshake itself because the
	// credential may arrive in a query parameter.
	wsHandler := &WSHandler{Gate: r.Gate, Extractor: r.WSExtractor}
	r.Mux.Handle("GET /v1/session/ws",
		httpx.Chain(wsHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Principals: r.store.Principals()}

	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		SessionMiddleware(r.Gate),
		RequireRole(domain.RoleAdmin),
		httpx.RateLimitByPrincipal(httpx.ModerateLimit),
	)

	securedStatus := httpx.Chain(http.HandlerFunc(h.HandleUpdateStatus),
		SessionMiddleware(r.Gate),
		RequireRole(domain.RoleAdmin),
		httpx.RateLimitByPrincipal(httpx.ModerateLimit),
	)

	r.Mux.Handle("GET /v1/admin/principals", securedList)
	r.Mux.Handle("PATCH /v1/admin/principals/{id}/status", securedStatus)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.revocations),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
