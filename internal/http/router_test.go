package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/KerenDoz/Event-Planner/internal/auth"
	"github.com/KerenDoz/Event-Planner/internal/cache"
	"github.com/KerenDoz/Event-Planner/internal/config"
	"github.com/KerenDoz/Event-Planner/internal/db"
	httpx "github.com/KerenDoz/Event-Planner/internal/http"
	"github.com/KerenDoz/Event-Planner/internal/http/handlers"
	"github.com/KerenDoz/Event-Planner/internal/http/middlewares"
	"github.com/KerenDoz/Event-Planner/internal/identity"
	"github.com/KerenDoz/Event-Planner/internal/observability"
	"github.com/KerenDoz/Event-Planner/internal/repo/memory"
	"github.com/KerenDoz/Event-Planner/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	router *gin.Engine
	store  *memory.Store
	jwt    *auth.Manager
}

func newApp(t *testing.T) *app {
	t.Helper()

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	store := memory.NewStore()
	require.NoError(t, db.SeedReferenceData(context.Background(), store.Categories(), store.Locations(), log))

	jwt := auth.NewManager("router-test-secret", time.Hour, 24*time.Hour)
	lists := cache.NewLists(cache.New(time.Minute), prom, log)

	categories := service.NewCategories(store.Categories(), lists)
	locations := service.NewLocations(store.Locations(), lists)

	r := httpx.NewRouter(httpx.Dependencies{
		Config: config.Config{
			Env:                "test",
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			MaxBodyBytes:       1 << 20,
		},
		Log:        log,
		Prom:       prom,
		Gatherer:   reg,
		Tokens:     jwt,
		Accounts:   service.NewAccounts(identity.NewService(store.Users()), identity.NewSessions(jwt, store.Users(), store.RefreshTokens()), prom),
		Categories: categories,
		Locations:  locations,
		Events:     service.NewEvents(store.Events(), store.Categories(), store.Locations(), prom),
		Checks: map[string]handlers.Check{
			"store": func(context.Context) error { return nil },
		},
	})

	return &app{router: r, store: store, jwt: jwt}
}

// browser keeps cookies between calls and echoes the token from GET /csrf on
// every unsafe request, the way a page script would.
type browser struct {
	t         *testing.T
	app       *app
	cookies   map[string]*http.Cookie
	csrfToken string
}

func (a *app) browser(t *testing.T) *browser {
	b := &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
	w := b.do(http.MethodGet, "/csrf", "")
	require.NotNil(t, b.cookies[middlewares.CSRFCookie], "csrf cookie not issued")

	b.csrfToken, _ = decode(t, w)["token"].(string)
	require.NotEmpty(t, b.csrfToken)
	return b
}

func (b *browser) do(method, url, body string) *httptest.ResponseRecorder {
	b.t.Helper()

	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, url, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	if b.csrfToken != "" && method != http.MethodGet {
		req.Header.Set(middlewares.CSRFHeader, b.csrfToken)
	}

	w := httptest.NewRecorder()
	b.app.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) register(username string) {
	b.t.Helper()
	w := b.do(http.MethodPost, "/account/register", `{"username":"`+username+`","email":"`+username+`@example.com","password":"secret1","confirmPassword":"secret1"}`)
	require.Equal(b.t, http.StatusCreated, w.Code, w.Body.String())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	e, _ := decode(t, w)["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func eventJSON(title string, start time.Time, public bool) string {
	return `{"title":"` + title + `","description":"An evening of short talks about Go services.",` +
		`"startDate":"` + start.Format(time.RFC3339) + `","endDate":"` + start.Add(2*time.Hour).Format(time.RFC3339) + `",` +
		`"capacity":40,"isPublic":` + strconv.FormatBool(public) + `,"categoryId":1,"locationId":1}`
}

func (b *browser) createEvent(title string, start time.Time, public bool) int64 {
	b.t.Helper()
	w := b.do(http.MethodPost, "/events/create", eventJSON(title, start, public))
	require.Equal(b.t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(b.t, w)["id"].(float64))
}

func TestRouter_CSRFRequiredForCookieSessions(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodPost, "/account/login", bytes.NewBufferString(`{"usernameOrEmail":"x","password":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "csrf_invalid", errorCode(t, w))

	// the signing cookie alone is not a token
	b := a.browser(t)
	req = httptest.NewRequest(http.MethodPost, "/account/login", bytes.NewBufferString(`{"usernameOrEmail":"x","password":"y"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(b.cookies[middlewares.CSRFCookie])
	req.Header.Set(middlewares.CSRFHeader, b.cookies[middlewares.CSRFCookie].Value)
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_BearerClientsSkipCSRF(t *testing.T) {
	a := newApp(t)
	a.browser(t).register("alice")

	u, err := a.store.Users().GetByUsername(context.Background(), "alice")
	require.NoError(t, err)

	token, _, err := a.jwt.GenerateAccessToken(auth.Identity{UserID: u.ID, Username: u.Username, Email: u.Email})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/categories/create", bytes.NewBufferString(`{"name":"Hackathon"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRouter_ProtectedRoutesNeedAuth(t *testing.T) {
	b := newApp(t).browser(t)

	for _, path := range []string{"/events/create", "/events/myevents", "/account/manage", "/categories/create"} {
		w := b.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_RegistrationAndLogin(t *testing.T) {
	a := newApp(t)
	alice := a.browser(t)
	alice.register("alice")

	assert.NotNil(t, alice.cookies[middlewares.AccessCookie], "registration should sign in")

	// duplicate username and email
	other := a.browser(t)
	w := other.do(http.MethodPost, "/account/register", `{"username":"ALICE","email":"alice@example.com","password":"secret1","confirmPassword":"secret1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username is already taken.")
	assert.Contains(t, w.Body.String(), "Email is already registered.")

	// unknown user and wrong password look the same
	wrong := other.do(http.MethodPost, "/account/login", `{"usernameOrEmail":"alice","password":"nope123"}`)
	unknown := other.do(http.MethodPost, "/account/login", `{"usernameOrEmail":"nobody","password":"nope123"}`)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, decode(t, wrong)["error"].(map[string]any)["message"], decode(t, unknown)["error"].(map[string]any)["message"])

	// login by email, remembered, with a local return url
	w = other.do(http.MethodPost, "/account/login?returnUrl=/events/myevents", `{"usernameOrEmail":"alice@example.com","password":"secret1","rememberMe":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/events/myevents", decode(t, w)["redirectTo"])
	assert.NotNil(t, other.cookies["refresh_token"])

	w = other.do(http.MethodPost, "/account/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = other.do(http.MethodPost, "/account/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, other.cookies[middlewares.AccessCookie])
}

func TestRouter_EventOwnership(t *testing.T) {
	a := newApp(t)
	alice := a.browser(t)
	alice.register("alice")
	bob := a.browser(t)
	bob.register("bob")
	anon := a.browser(t)

	start := time.Now().UTC().Add(48 * time.Hour)
	private := alice.createEvent("Private Tech Dinner", start, false)

	// organizer from the body is ignored
	w := alice.do(http.MethodPost, "/events/create", `{"organizerId":"someone-else",`+eventJSON("Tech Breakfast", start, true)[1:])
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["event"].(map[string]any)
	u, _ := a.store.Users().GetByUsername(context.Background(), "alice")
	assert.Equal(t, u.ID, created["organizerId"])

	path := "/events/details/" + strconv.FormatInt(private, 10)

	w = alice.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["isOwner"])

	w = bob.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["isOwner"])

	w = anon.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	id := strconv.FormatInt(private, 10)
	w = bob.do(http.MethodPost, "/events/edit/"+id, eventJSON("Hijacked Tech Dinner", start, true))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))

	// ownership is decided before the body is validated
	w = bob.do(http.MethodPost, "/events/edit/"+id, `{"title":"x","capacity":0}`)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, "forbidden", errorCode(t, w))

	w = alice.do(http.MethodPost, "/events/edit/999", `{"title":"x","capacity":0}`)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = bob.do(http.MethodPost, "/events/deleteconfirmed/"+id, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = alice.do(http.MethodPost, "/events/deleteconfirmed/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = alice.do(http.MethodPost, "/events/deleteconfirmed/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = alice.do(http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PublicListingFilters(t *testing.T) {
	a := newApp(t)
	alice := a.browser(t)
	alice.register("alice")

	now := time.Now().UTC()
	alice.createEvent("Tech Talks Late", now.Add(72*time.Hour), true)
	alice.createEvent("Tech Talks Early", now.Add(24*time.Hour), true)
	alice.createEvent("Tech Private Club", now.Add(36*time.Hour), false)
	alice.createEvent("Jazz Evening", now.Add(48*time.Hour), true)

	w := a.browser(t).do(http.MethodGet, "/events?search=Tech&upcomingOnly=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("ETag"))

	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Tech Talks Early", items[0].(map[string]any)["title"])
	assert.Equal(t, "Tech Talks Late", items[1].(map[string]any)["title"])

	w = alice.do(http.MethodGet, "/events/myevents", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"].([]any), 4)
}

func TestRouter_ReferenceGuards(t *testing.T) {
	a := newApp(t)
	alice := a.browser(t)
	alice.register("alice")
	alice.createEvent("Tech Talks Night", time.Now().UTC().Add(24*time.Hour), true)

	w := alice.do(http.MethodPost, "/categories/create", `{"name":"Meetup"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This category already exists.")

	w = alice.do(http.MethodPost, "/locations/deleteconfirmed/1", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "location_in_use", errorCode(t, w))

	w = alice.do(http.MethodGet, "/locations", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Cannot delete this location because it is used by at least one event.", body["notice"])
	assert.Len(t, body["locations"].([]any), 2, "location must survive a refused delete")

	// notice is shown once
	w = alice.do(http.MethodGet, "/locations", "")
	_, hasNotice := decode(t, w)["notice"]
	assert.False(t, hasNotice)

	// unreferenced category can go, and a second delete is a 404
	w = alice.do(http.MethodPost, "/categories/deleteconfirmed/4", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = alice.do(http.MethodPost, "/categories/deleteconfirmed/4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	b := newApp(t).browser(t)

	w := b.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = b.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eventplanner_http_requests_total")

	w = b.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
