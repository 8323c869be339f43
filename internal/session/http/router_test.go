package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/scribe/internal/session/domain"
	sessionhttp "github.com/aussiebroadwan/scribe/internal/session/http"
	"github.com/aussiebroadwan/scribe/internal/session/revocation"
	"github.com/aussiebroadwan/scribe/internal/session/revocation/memory"
	"github.com/aussiebroadwan/scribe/internal/session/service"
	"github.com/aussiebroadwan/scribe/internal/session/store"
	"github.com/aussiebroadwan/scribe/pkg/cryptox"
	"github.com/aussiebroadwan/scribe/pkg/jwtx"
	"github.com/aussiebroadwan/scribe/pkg/wsx"
)

// memStore is an in-memory store.Store for transport tests; the sqlite
// driver has its own tests.
type memStore struct {
	principals *memPrincipals
}

func (s *memStore) Principals() store.Principals   { return s.principals }
func (s *memStore) ApplyMigrations() error         { return nil }
func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close() error                   { return nil }

type memPrincipals struct {
	mu   sync.Mutex
	byID map[string]domain.Principal
}

func (m *memPrincipals) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Principal{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memPrincipals) GetPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Username == username {
			return p, nil
		}
	}
	return domain.Principal{}, store.ErrNotFound
}

func (m *memPrincipals) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == p.Username {
			return store.ErrAlreadyExists
		}
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memPrincipals) ListPrincipals(ctx context.Context) ([]domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Principal, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPrincipals) UpdatePrincipalStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Status = status
	m.byID[id] = p
	return nil
}

func (m *memPrincipals) IsEmpty(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID) == 0, nil
}

// failingRevocations answers every call as a backend outage.
type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Time) error {
	return revocation.ErrUnavailable
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, revocation.ErrUnavailable
}

type testEnv struct {
	router      *sessionhttp.Router
	sessions    *service.SessionService
	principals  *memPrincipals
	revocations revocation.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper.txt"))

	codec, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	revocations := memory.New()
	sessions := &service.SessionService{
		Codec:       codec,
		Revocations: revocations,
		Issuer:      "scribe-session",
		Audience:    "scribe-api",
		AccessTTL:   30 * time.Minute,
		RefreshTTL:  30 * 24 * time.Hour,
	}

	hash, err := cryptox.HashPassword("hunter2!")
	require.NoError(t, err)

	principals := &memPrincipals{byID: map[string]domain.Principal{
		"u-1": {
			ID: "u-1", Username: "mika", PasswordHash: hash,
			Role: domain.RoleUser, Status: domain.StatusActive,
			CreatedAt: time.Now().UTC(),
		},
		"a-1": {
			ID: "a-1", Username: "root", PasswordHash: hash,
			Role: domain.RoleAdmin, Status: domain.StatusActive,
			CreatedAt: time.Now().UTC(),
		},
	}}

	st := &memStore{principals: principals}
	gate := &service.Gate{Sessions: sessions, Directory: principals}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	router := sessionhttp.NewRouter("test", st, revocations, logger)
	router.Sessions = sessions
	router.LoginService = &service.LoginService{Sessions: sessions, Principals: principals}
	router.Gate = gate
	router.WSExtractor = wsx.Extractor{}
	router.ApplyRoutes()

	return &testEnv{
		router:      router,
		sessions:    sessions,
		principals:  principals,
		revocations: revocations,
	}
}

var addrCounter int

// do sends a request through the router with a unique client address so the
// per-IP rate limits never interfere across test cases.
func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	addrCounter++
	req.RemoteAddr = fmt.Sprintf("10.1.%d.%d:4000", addrCounter/250, addrCounter%250+1)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) domain.SessionPair {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/session/login", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair domain.SessionPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pair))
	return pair
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		pair := env.login(t, "mika", "hunter2!")
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, int64(1800), pair.ExpiresIn)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/login", "",
			map[string]string{"username": "mika", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown username matches wrong password", func(t *testing.T) {
		wrongPass := env.do(t, http.MethodPost, "/v1/session/login", "",
			map[string]string{"username": "mika", "password": "nope"})
		unknownUser := env.do(t, http.MethodPost, "/v1/session/login", "",
			map[string]string{"username": "ghost", "password": "hunter2!"})

		require.Equal(t, wrongPass.Code, unknownUser.Code)
		require.JSONEq(t, wrongPass.Body.String(), unknownUser.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/login", "",
			map[string]string{"username": "mika"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	pair := env.login(t, "mika", "hunter2!")

	t.Run("with access token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, "u-1", body["id"])
		require.Equal(t, "user", body["role"])
	})

	t.Run("without credential", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("with refresh token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", pair.RefreshToken, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("with garbage", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", "not.a.token", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	pair := env.login(t, "mika", "hunter2!")

	rec := env.do(t, http.MethodPost, "/v1/session/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var next domain.SessionPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&next))
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	t.Run("replay is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/refresh", "",
			map[string]string{"refresh_token": pair.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rotated pair works", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", next.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("access token cannot rotate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/refresh", "",
			map[string]string{"refresh_token": next.AccessToken})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/refresh", "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)
	pair := env.login(t, "mika", "hunter2!")

	rec := env.do(t, http.MethodPost, "/v1/session/logout", pair.AccessToken,
		map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("access token is dead", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", pair.AccessToken, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token is dead", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/refresh", "",
			map[string]string{"refresh_token": pair.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/logout", pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("garbage tokens still get 200", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/logout", "garbage",
			map[string]string{"refresh_token": "also-garbage"})
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRevocationOutage(t *testing.T) {
	env := newTestEnv(t)
	pair := env.login(t, "mika", "hunter2!")

	env.sessions.Revocations = failingRevocations{}

	t.Run("authenticated routes answer 500, not 401", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/session/me", pair.AccessToken, nil)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "server_error")
		require.Empty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("refresh answers 500 as well", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/session/refresh", "",
			map[string]string{"refresh_token": pair.RefreshToken})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("the session survives the outage", func(t *testing.T) {
		env.sessions.Revocations = memory.New()

		rec := env.do(t, http.MethodGet, "/v1/session/me", pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	adminPair := env.login(t, "root", "hunter2!")
	userPair := env.login(t, "mika", "hunter2!")

	t.Run("admin lists principals", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/admin/principals", adminPair.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list []map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		require.Len(t, list, 2)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/admin/principals", userPair.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/admin/principals", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("suspension locks out live tokens", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/v1/admin/principals/u-1/status",
			adminPair.AccessToken, map[string]string{"status": "suspended"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/v1/session/me", userPair.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown status value", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/v1/admin/principals/u-1/status",
			adminPair.AccessToken, map[string]string{"status": "banned"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown principal", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/v1/admin/principals/nobody/status",
			adminPair.AccessToken, map[string]string{"status": "active"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/livez", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body sessionhttp.HealthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, "ok", body.Status)
	}
}

func TestWebSocketEndpoint(t *testing.T) {
	env := newTestEnv(t)
	pair := env.login(t, "mika", "hunter2!")

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/session/ws"

	t.Run("handshake with header credential", func(t *testing.T) {
		header := http.Header{"Authorization": {"Bearer " + pair.AccessToken}}
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		defer conn.Close()
		require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

		var hello map[string]any
		require.NoError(t, conn.ReadJSON(&hello))
		require.Equal(t, "hello", hello["type"])
		require.Equal(t, "u-1", hello["principal_id"])
	})

	t.Run("handshake with query credential", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+pair.AccessToken, nil)
		require.NoError(t, err)
		defer conn.Close()

		var hello map[string]any
		require.NoError(t, conn.ReadJSON(&hello))
		require.Equal(t, "hello", hello["type"])
	})

	t.Run("handshake without credential", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("handshake with revoked token", func(t *testing.T) {
		doomed := env.login(t, "root", "hunter2!")
		require.True(t, env.sessions.Revoke(context.Background(), doomed.AccessToken))

		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+doomed.AccessToken, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
