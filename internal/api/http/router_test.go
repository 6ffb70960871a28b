package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/savings-portal/internal/api/http"
	"github.com/spec-kit/savings-portal/internal/api/http/handlers"
	"github.com/spec-kit/savings-portal/internal/backend"
	"github.com/spec-kit/savings-portal/internal/bootstrap"
	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/guard"
	"github.com/spec-kit/savings-portal/internal/observability"
	"github.com/spec-kit/savings-portal/internal/service"
	"github.com/spec-kit/savings-portal/internal/session"
)

type portal struct {
	app   *fiber.App
	store *session.Store
	boot  *bootstrap.Bootstrapper
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// fakeBackend signs in asha (role USER) with password "secret" and answers
// every other auth call with a 401.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"success":true,"token":"tok-1","expiresIn":900,
			"user":{"id":"u-1","name":"Asha","email":"asha@example.com","role":"USER"}}`)
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":"logout broke"}`)
	})
	mux.HandleFunc("/api/auth/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthorized"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	srv := fakeBackend(t)
	client, err := backend.NewClient(srv.URL+"/api", 2*time.Second)
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics("test")
	flag := session.NewCookieFlag("auth_token")
	store := session.NewStore(session.Options{Flag: flag, Logger: logger})
	boot := bootstrap.New(store, client, bootstrap.Options{Logger: logger, CallTimeout: time.Second})
	g := guard.New(guard.DefaultRoutes(), guard.WithRecorder(metrics))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:   logger,
		Metrics:  metrics,
		Timeout:  5 * time.Second,
		Sessions: store,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler("portal", "test", store, nil),
		Session:    handlers.NewSessionHandler(service.NewAuthService(client, store, logger), store, boot),
		Screens:    handlers.NewScreensHandler(g, store),
		Guard:      g,
		Metrics:    metrics,
		CookieName: "auth_token",
		Sessions:   store,
		Flag:       flag,
	})
	return &portal{app: app, store: store, boot: boot}
}

func (p *portal) do(t *testing.T, method, path, body, cookie string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: cookie})
	}
	resp, err := p.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestLogin_SetsShortLivedFlagCookie(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodPost, "/session/login", `{"identifier":"asha@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, "tok-1", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Greater(t, cookie.MaxAge, 0)
	assert.LessOrEqual(t, cookie.MaxAge, 900)

	body := decode(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, string(domain.StateResolvedAuthenticated), data["state"])
	assert.Equal(t, "user", data["principal"].(map[string]any)["role"])
}

func TestLogin_BackendMessageIsSurfaced(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodPost, "/session/login", `{"identifier":"asha@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))

	body := decode(t, resp)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
	assert.Equal(t, "Invalid credentials", errBody["message"])
}

func TestLogin_BadPayload(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodPost, "/session/login", `{"identifier":`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, resp)["error"].(map[string]any)["code"])
}

func TestScreens_WhileUnresolvedAreLoading(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodGet, "/dashboard", "", "tok-1")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestScreens_AfterLogin(t *testing.T) {
	p := newPortal(t)
	resp := p.do(t, http.MethodPost, "/session/login", `{"identifier":"asha@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = p.do(t, http.MethodGet, "/dashboard", "", "tok-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/dashboard", decode(t, resp)["data"].(map[string]any)["screen"])

	resp = p.do(t, http.MethodGet, "/admin", "", "tok-1")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = p.do(t, http.MethodGet, "/login", "", "tok-1")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestScreens_WithoutCookieAreSentToSignIn(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodGet, "/savings", "", "")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = p.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestBootstrap_StaleSessionIsCleared(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodPost, "/session/bootstrap", "", "stale")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	expired := sessionCookie(resp)
	require.NotNil(t, expired)
	assert.Empty(t, expired.Value)
	assert.True(t, expired.Expires.Before(time.Now()))

	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, string(domain.StateResolvedUnauthenticated), data["state"])
	assert.Equal(t, string(bootstrap.ViaNone), data["via"])

	resp = p.do(t, http.MethodGet, "/profile", "", "stale")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLogout_AlwaysClears(t *testing.T) {
	p := newPortal(t)
	resp := p.do(t, http.MethodPost, "/session/login", `{"identifier":"asha@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = p.do(t, http.MethodPost, "/session/logout", "", "tok-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	expired := sessionCookie(resp)
	require.NotNil(t, expired)
	assert.Empty(t, expired.Value)
	assert.Nil(t, p.store.CurrentPrincipal())
	assert.Equal(t, domain.StateResolvedUnauthenticated, p.store.CurrentResolutionState())
}

func TestChangePassword_RequiresSignIn(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodPost, "/session/password/change", `{"currentPassword":"a","newPassword":"b"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCurrentSession(t *testing.T) {
	p := newPortal(t)
	p.boot.Run(context.Background())

	resp := p.do(t, http.MethodGet, "/session", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, string(domain.StateResolvedUnauthenticated), data["state"])
	assert.NotContains(t, data, "principal")
}

func TestHealthAndMetrics(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = p.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", decode(t, resp)["status"])

	resp = p.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "test_http_request_duration_seconds")
}

func TestScreens_WhileUnresolvedKeepClientCookie(t *testing.T) {
	p := newPortal(t)

	resp := p.do(t, http.MethodGet, "/admin/users", "", "tok-1")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))

	resp = p.do(t, http.MethodPost, "/session/bootstrap", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = p.do(t, http.MethodGet, "/admin/users", "", "tok-1")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	expired := sessionCookie(resp)
	require.NotNil(t, expired)
	assert.Empty(t, expired.Value)
}

func TestCredentialCookieStaysOffUnrelatedResponses(t *testing.T) {
	p := newPortal(t)
	resp := p.do(t, http.MethodPost, "/session/login", `{"identifier":"asha@example.com","password":"secret"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, sessionCookie(resp))

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp = p.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Nil(t, sessionCookie(resp), path)
	}
}
