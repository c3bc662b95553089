package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/pollsite/internal/bootstrap"
	"github.com/vncsmyrnk/pollsite/internal/config"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
	"github.com/vncsmyrnk/pollsite/internal/core/services"
)

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	Services    *bootstrap.Services
	DBContainer testcontainers.Container
}

// MockVerifier accepts the credential "valid_token" only.
type MockVerifier struct {
	email string
}

func (v *MockVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	if token == "valid_token" {
		return &ports.TokenPayload{Email: v.email}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()

	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		DatabaseType:       config.DatabasePostgres,
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		GoogleClientID:     "test-client",
		AuthRedirectURL:    "https://example.com/redirect",
		CookieSameSite:     http.SameSiteLaxMode,
		CORSAllowedOrigins: []string{"*"},
		Location:           time.UTC,
		ListLimit:          5,
		MaxListLimit:       100,
	}

	repos, err := bootstrap.OpenRepositories(ctx, cfg, true)
	require.NoError(t, err)

	svc := bootstrap.NewServices(cfg, repos)
	svc.Auth = services.NewAuthService(repos.Users, repos.Auth, &MockVerifier{email: "test@example.com"}, services.AuthOptions{
		JWTSecret:      cfg.JWTSecret,
		GoogleClientID: cfg.GoogleClientID,
	})

	server := httptest.NewServer(bootstrap.NewRouter(cfg, svc, nil))

	return &TestApp{
		DB:          repos.DB,
		Server:      server,
		Client:      server.Client(),
		Services:    svc,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %s", err)
	}
}

// do sends body as JSON, attaching the access token cookie when set.
func (app *TestApp) do(t *testing.T, method, path string, body any, accessToken string) *http.Response {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: accessToken})
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// signupAndLogin registers an account and returns its access token.
func (app *TestApp) signupAndLogin(t *testing.T, username string) string {
	t.Helper()

	resp := app.do(t, http.MethodPost, "/api/accounts/signup", map[string]string{
		"username":  username,
		"password1": "correct-horse-battery",
		"password2": "correct-horse-battery",
	}, "")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": "correct-horse-battery",
	}, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := cookieValue(resp, "access_token")
	require.NotEmpty(t, token)
	return token
}
