package web

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/config"
	"github.com/go-while/go-guweb/internal/database"
	"github.com/go-while/go-guweb/internal/docs"
	"github.com/go-while/go-guweb/internal/models"
	"github.com/go-while/go-guweb/internal/session"
)

type testEnv struct {
	srv  *httptest.Server
	db   *database.Database
	svc  *auth.Service
	ws   *WebServer
	docs string
}

type option func(cfg *config.MainConfig, deps *Deps)

func newTestEnv(t *testing.T, opts ...option) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := database.OpenDatabase(ctx, config.DatabaseConfig{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.NewDefaultConfig()
	cfg.Web.SessionSecret = "test-secret"
	cfg.Registration = true
	cfg.DiscordServer = "https://discord.gg/example"
	cfg.RateLimit.Enabled = false

	svc := auth.NewService(auth.Options{
		Store:               db,
		Registration:        cfg.Registration,
		DisallowedNames:     cfg.DisallowedNames,
		DisallowedPasswords: cfg.DisallowedPasswords,
		BcryptCost:          bcrypt.MinCost,
	})
	t.Cleanup(svc.Wait)

	docsDir := t.TempDir()
	deps := Deps{
		Auth:     svc,
		DB:       db,
		Sessions: session.NewManager(cfg.Web.SessionSecret, time.Hour, false),
		Docs:     docs.NewLibrary(docsDir),
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	ws, err := NewServer(cfg, deps)
	require.NoError(t, err)
	srv := httptest.NewServer(ws.Router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, db: db, svc: svc, ws: ws, docs: docsDir}
}

// client returns a cookie-keeping client that does not follow redirects
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type response struct {
	status   int
	location string
	header   http.Header
	body     string
}

func do(t *testing.T, c *http.Client, req *http.Request) response {
	t.Helper()
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, location: resp.Header.Get("Location"), header: resp.Header, body: string(body)}
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	return do(t, c, req)
}

func (e *testEnv) post(t *testing.T, c *http.Client, path string, form url.Values) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, c, req)
}

// expectFlash checks a 303 to location whose next render shows msg
func (e *testEnv) expectFlash(t *testing.T, c *http.Client, r response, location, msg string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, r.status, r.body)
	require.Equal(t, location, r.location)
	next := e.get(t, c, location)
	assert.Contains(t, next.body, html.EscapeString(msg))
	again := e.get(t, c, location)
	assert.NotContains(t, again.body, html.EscapeString(msg), "flash is shown once")
}

func (e *testEnv) createUser(t *testing.T, name, password string, priv models.Privileges) *models.User {
	t.Helper()
	u, err := e.svc.CreateAccount(context.Background(), auth.RegisterRequest{
		Username: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@example.com",
		Password: password,
	}, priv)
	require.NoError(t, err)
	return u
}

func loginForm(user, pw string) url.Values {
	return url.Values{"username": {user}, "password": {pw}}
}

func TestRegisterVerifyLoginLogout(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	ctx := context.Background()

	r := env.post(t, c, "/register", url.Values{"username": {"Alice"}, "email": {"a@b.co"}, "password": {"Str0ngPW!"}})
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "not verified")

	alice, err := env.db.GetUserBySafeName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, models.Normal, alice.Priv)
	assert.Equal(t, models.UnknownCountry, alice.Country, "loopback has no country")

	// not verified yet
	r = env.post(t, c, "/login", loginForm("Alice", "Str0ngPW!"))
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "not verified")

	require.NoError(t, env.db.UpdatePrivileges(ctx, alice.ID, models.Normal|models.Verified))

	r = env.post(t, c, "/login", loginForm("Alice", "Str0ngPW!"))
	env.expectFlash(t, c, r, "/home", "Hey! Welcome back Alice!")

	home := env.get(t, c, "/home")
	assert.Contains(t, home.body, `href="/logout"`)

	env.expectFlash(t, c, env.get(t, c, "/login"), "/home", "Hey! You're already logged in Alice!")
	env.expectFlash(t, c, env.post(t, c, "/login", loginForm("Alice", "Str0ngPW!")), "/home", "Hey! You're already logged in Alice!")
	env.expectFlash(t, c, env.get(t, c, "/register"), "/home", "Hey! You're already registered and logged in Alice!")
	assert.Equal(t, http.StatusOK, env.get(t, c, "/settings").status)

	env.expectFlash(t, c, env.get(t, c, "/logout"), "/login", "Successfully logged out!")
	env.expectFlash(t, c, env.get(t, c, "/logout"), "/login", "You can't logout if you aren't logged in!")
	env.expectFlash(t, c, env.get(t, c, "/settings"), "/login", "You must be logged in to access user settings!")
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "Bob", "hunter2hunter2", models.Normal|models.Verified)
	env.createUser(t, "Mallory", "hunter2hunter2", models.Verified)

	env.expectFlash(t, c, env.post(t, c, "/login", loginForm("nobody", "whatever123")), "/login", "Account does not exist.")
	env.expectFlash(t, c, env.post(t, c, "/login", loginForm("BanchoBot", "whatever123")), "/login", "Account does not exist.")
	env.expectFlash(t, c, env.post(t, c, "/login", loginForm("Bob", "wrongwrong")), "/login", "Password is incorrect.")
	env.expectFlash(t, c, env.post(t, c, "/login", loginForm("Mallory", "hunter2hunter2")), "/login", "You are banned!")

	// case-insensitive name lookup
	env.expectFlash(t, c, env.post(t, c, "/login", loginForm("BOB", "hunter2hunter2")), "/home", "Hey! Welcome back BOB!")
}

func TestRegisterValidationFlashes(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "Taken", "hunter2hunter2", models.Normal)

	cases := []struct {
		user, email, pw, msg string
	}{
		{"A", "a@b.co", "Str0ngPW!", "Invalid username syntax."},
		{"a_b c", "a@b.co", "Str0ngPW!", `Username may contain "_" or " ", but not both.`},
		{"mrekk", "a@b.co", "Str0ngPW!", "Disallowed username; pick another."},
		{"taken", "a@b.co", "Str0ngPW!", "Username already taken by another user."},
		{"Fresh", "nope", "Str0ngPW!", "Invalid email syntax."},
		{"Fresh", "taken@example.com", "Str0ngPW!", "Email already taken by another user."},
		{"Fresh", "a@b.co", "short", "Password must be 8-32 characters in length"},
		{"Fresh", "a@b.co", "abcabcabc", "Password must have more than 3 unique characters."},
	}
	for _, tc := range cases {
		r := env.post(t, c, "/register", url.Values{"username": {tc.user}, "email": {tc.email}, "password": {tc.pw}})
		env.expectFlash(t, c, r, "/register", tc.msg)
	}

	u, err := env.db.GetUserBySafeName(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Nil(t, u, "no account written on validation failure")
}

func TestRegisterKeepsFormValuesAsTyped(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	ctx := context.Background()

	r := env.post(t, c, "/register", url.Values{"username": {"Bob"}, "email": {" b@c.de"}, "password": {"Str0ngPW!"}})
	env.expectFlash(t, c, r, "/register", "Invalid email syntax.")

	r = env.post(t, c, "/register", url.Values{"username": {" Bob"}, "email": {"b@c.de"}, "password": {"Str0ngPW!"}})
	require.Equal(t, http.StatusOK, r.status)

	u, err := env.db.GetUserBySafeName(ctx, "_bob")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, " Bob", u.Name)

	u, err = env.db.GetUserBySafeName(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestRegistrationDisabled(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	require.NoError(t, env.db.SetConfigBool(context.Background(), database.ConfigRegistrationEnabled, false))

	msg := "Hey! You can't register at this time! Sorry for the inconvenience!"
	env.expectFlash(t, c, env.get(t, c, "/register"), "/home", msg)
	r := env.post(t, c, "/register", url.Values{"username": {"Alice"}, "email": {"a@b.co"}, "password": {"Str0ngPW!"}})
	env.expectFlash(t, c, r, "/home", msg)
	assert.NotContains(t, env.get(t, c, "/home").body, `href="/register"`)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	anon := env.client(t)
	bob := env.createUser(t, "Bob", "hunter2hunter2", models.Normal|models.Verified)
	banned := env.createUser(t, "Mallory", "hunter2hunter2", models.Verified)
	env.createUser(t, "Staffer", "hunter2hunter2", models.Normal|models.Verified|models.Admin)

	r := env.get(t, anon, "/u/Bob")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Bob")
	assert.Equal(t, http.StatusOK, env.get(t, anon, "/u/"+itoa(bob.ID)+"?mode=taiko&mods=rx").status)
	assert.Contains(t, env.get(t, anon, "/u/Bob?mode=mania&mods=rx").body, "No stats for rx mania")

	r = env.get(t, anon, "/u/Bob?mods=xx&mode=bogus")
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "invalid mods! (vn, rx, ap)", r.body)
	r = env.get(t, anon, "/u/Bob?mode=bogus")
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "invalid mode! (std, taiko, catch, mania)", r.body)

	assert.Equal(t, http.StatusNotFound, env.get(t, anon, "/u/nobody").status)
	assert.Equal(t, http.StatusNotFound, env.get(t, anon, "/u/"+itoa(banned.ID)).status)

	// non-staff users don't see hidden profiles either
	user := env.client(t)
	env.post(t, user, "/login", loginForm("Bob", "hunter2hunter2"))
	assert.Equal(t, http.StatusNotFound, env.get(t, user, "/u/Mallory").status)

	staff := env.client(t)
	r = env.post(t, staff, "/login", loginForm("Staffer", "hunter2hunter2"))
	require.Equal(t, http.StatusSeeOther, r.status)
	r = env.get(t, staff, "/u/Mallory")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "Mallory")
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	bob := env.createUser(t, "Bob", "hunter2hunter2", models.Normal|models.Verified)
	_, err := env.db.GetMainDB().Exec(`UPDATE stats SET pp = 727 WHERE id = ? AND mode = 0`, bob.ID)
	require.NoError(t, err)

	r := env.get(t, c, "/leaderboard")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, `data-mode="std" data-sort="pp" data-mods="vn"`)
	assert.Contains(t, r.body, "Bob")
	assert.Contains(t, r.body, "727")
	assert.NotContains(t, r.body, "BanchoBot")

	r = env.get(t, c, "/leaderboard/taiko/acc/rx")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, `data-mode="taiko" data-sort="acc" data-mods="rx"`)

	// unknown values are echoed, nothing listed
	r = env.get(t, c, "/leaderboard/mania/pp/ap")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, `data-mode="mania" data-sort="pp" data-mods="ap"`)
	assert.Contains(t, r.body, "No players to show.")
}

func TestDocsAndDiscord(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.docs, "connecting.md"), []byte("# Connecting\n\nUse **the switcher**.\n"), 0o644))

	r := env.get(t, c, "/docs")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, `href="/doc/connecting"`)

	r = env.get(t, c, "/doc/CONNECTING")
	require.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.body, "<title>Connecting - guweb</title>")
	assert.Contains(t, r.body, "<strong>the switcher</strong>")

	assert.Equal(t, http.StatusNotFound, env.get(t, c, "/doc/missing").status)

	r = env.get(t, c, "/discord")
	assert.Equal(t, http.StatusFound, r.status)
	assert.Equal(t, "https://discord.gg/example", r.location)
}

func TestStaticAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)

	files, err := ListEmbeddedFiles()
	require.NoError(t, err)
	assert.Contains(t, files, "static/style.css")

	r := env.get(t, c, "/static/style.css")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.header.Get("Content-Type"), "text/css")
	assert.Equal(t, http.StatusNotFound, env.get(t, c, "/static/").status)

	r = env.get(t, c, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Contains(t, r.body, "404")

	r = env.get(t, c, "/")
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "DENY", r.header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", r.header.Get("X-Content-Type-Options"))
}

func TestDebugServerAndUptime(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.MainConfig, _ *Deps) { cfg.Web.Debug = true })
	assert.Equal(t, http.StatusOK, env.get(t, env.client(t), "/static/style.css").status)

	assert.Zero(t, env.ws.Uptime())
	require.NoError(t, env.ws.Shutdown(context.Background()), "not started")

	env.ws.StartTime = time.Now().Add(-time.Minute)
	assert.GreaterOrEqual(t, env.ws.Uptime(), time.Minute)
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	c := env.client(t)
	env.createUser(t, "Bob", "hunter2hunter2", models.Normal|models.Verified)
	env.post(t, c, "/login", loginForm("Bob", "hunter2hunter2"))

	u, _ := url.Parse(env.srv.URL)
	cookies := c.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	value := cookies[0].Value
	forged := value[:strings.LastIndex(value, ".")] + ".bm90LWEtc2lnbmF0dXJl"
	c.Jar.SetCookies(u, []*http.Cookie{{Name: session.CookieName, Value: forged, Path: "/"}})

	r := env.get(t, c, "/settings")
	assert.Equal(t, http.StatusSeeOther, r.status)
	assert.Equal(t, "/login", r.location)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	env := newTestEnv(t, func(cfg *config.MainConfig, deps *Deps) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Capacity = 2
		cfg.RateLimit.RefillInterval = time.Minute
		deps.Redis = rdb
	})
	c := env.client(t)

	for i := 0; i < 2; i++ {
		r := env.post(t, c, "/login", loginForm("nobody", "whatever123"))
		assert.Equal(t, http.StatusSeeOther, r.status)
		assert.Equal(t, "2", r.header.Get("X-RateLimit-Limit"))
	}
	r := env.post(t, c, "/login", loginForm("nobody", "whatever123"))
	assert.Equal(t, http.StatusTooManyRequests, r.status)
	assert.NotEmpty(t, r.header.Get("Retry-After"))

	// buckets are per route
	r = env.post(t, c, "/register", url.Values{"username": {"A"}})
	assert.Equal(t, http.StatusSeeOther, r.status)

	// pages are never limited
	assert.Equal(t, http.StatusOK, env.get(t, c, "/login").status)
}

func TestRateLimitRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	env := newTestEnv(t, func(cfg *config.MainConfig, deps *Deps) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Capacity = 1
		deps.Redis = rdb
	})
	c := env.client(t)
	for i := 0; i < 3; i++ {
		r := env.post(t, c, "/login", loginForm("nobody", "whatever123"))
		assert.Equal(t, http.StatusSeeOther, r.status)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
