package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dom/members-only/internal/api"
	"github.com/dom/members-only/internal/config"
	"github.com/dom/members-only/internal/metrics"
	repoPostgres "github.com/dom/members-only/internal/repository/postgres"
	"github.com/dom/members-only/internal/service"
	"github.com/dom/members-only/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Codes configured by TestConfig.
const (
	TestMemberCode = "club-member-code"
	TestAdminCode  = "club-admin-code"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_members_only"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"messages",
		"sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                   "0",
		Environment:            "test",
		LogLevel:               "error",
		SessionSecret:          "test-session-secret-for-testing-only",
		SessionIdleTimeout:     24 * time.Hour,
		SessionLifetime:        30 * 24 * time.Hour,
		SessionCleanupInterval: 0,
		AdminCode:              TestAdminCode,
		MemberCode:             TestMemberCode,
	}
}

// TestLogger returns a logger that discards output
func TestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// TestServer holds all components for integration testing. It runs on
// in-memory repositories so it needs no database.
type TestServer struct {
	Server   *httptest.Server
	Repos    *FakeRepositories
	Store    *session.Store
	Sessions *session.Manager
	Services *service.Services
	Metrics  *metrics.Metrics
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := TestConfig()
	log := TestLogger()
	repos := NewFakeRepositories()
	m := metrics.New(prometheus.NewRegistry())

	store := session.NewStore(repos.Session, cfg.SessionSecret)
	sessions := session.New(store, session.UserDeserializer(repos.User), session.Options{
		IdleTimeout: cfg.SessionIdleTimeout,
		Lifetime:    cfg.SessionLifetime,
		Secure:      cfg.IsProduction(),
	})

	services := service.NewServices(repos.Repositories(), cfg, m, log)
	router := api.NewRouter(services, sessions, cfg, m, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Store:    store,
		Sessions: sessions,
		Services: services,
		Metrics:  m,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// URL returns the full URL for a path on the test server
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// NewClient returns a client with its own cookie jar that does not follow
// redirects, so tests can assert on Location headers.
func (ts *TestServer) NewClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// PostForm submits form values to path with client
func (ts *TestServer) PostForm(t *testing.T, client *http.Client, path string, values url.Values) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL(path), strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// Get fetches path with client
func (ts *TestServer) Get(t *testing.T, client *http.Client, path string) *http.Response {
	t.Helper()

	resp, err := client.Get(ts.URL(path))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// Login authenticates client with the given credentials and fails the test
// unless the server redirects to the message board.
func (ts *TestServer) Login(t *testing.T, client *http.Client, identifier, password string) {
	t.Helper()

	resp := ts.PostForm(t, client, "/login", url.Values{
		"username": {identifier},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/messages" {
		t.Fatalf("login failed: status %d, location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

// SessionCookie returns the session cookie held by client, if any
func (ts *TestServer) SessionCookie(client *http.Client) *http.Cookie {
	u, _ := url.Parse(ts.Server.URL)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}
