package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/landreg/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:         "test",
		FrontendDir: t.TempDir(),
		CORSOrigins: []string{"*"},
		Database:    config.DatabaseConfig{Driver: "memory"},
		Auth:        config.AuthConfig{Secret: "test-secret"},
		Session:     config.SessionConfig{Backend: "memory"},
		Storage: config.StorageConfig{
			Backend: "memory",
			Minio:   config.MinioConfig{Bucket: "land-documents"},
		},
		MQ: config.MQConfig{Backend: "memory"},
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	srv, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, srv.Shutdown(context.Background()))
	})
	return srv
}

func postJSON(t *testing.T, h http.Handler, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresSecret(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Auth.Secret = "  "
	_, err := New(context.Background(), cfg, zap.NewNop())
	require.EqualError(t, err, "AUTH_SECRET is required")
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	tests := map[string]func(cfg *config.Config){
		"database": func(cfg *config.Config) { cfg.Database.Driver = "sqlite" },
		"session":  func(cfg *config.Config) { cfg.Session.Backend = "memcached" },
		"storage":  func(cfg *config.Config) { cfg.Storage.Backend = "ftp" },
		"mq":       func(cfg *config.Config) { cfg.MQ.Backend = "kafka" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := memoryConfig(t)
			mutate(&cfg)
			_, err := New(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unknown")
		})
	}
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, memoryConfig(t))
	h := srv.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h, "/register", map[string]string{
		"name":     "Asha",
		"username": "asha",
		"email":    "asha@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, h, "/login", map[string]string{"email": "asha@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog/lands?location=jaipur", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listings []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listings))
	for _, l := range listings {
		assert.Equal(t, "Jaipur", l["location"])
	}
}

func TestServerWithoutOptionalBackends(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Backend = ""
	cfg.MQ.Backend = ""
	srv := newTestServer(t, cfg)
	h := srv.Router()

	rec := postJSON(t, h, "/register", map[string]string{
		"name":     "Ravi",
		"username": "ravi",
		"email":    "ravi@example.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postJSON(t, h, "/login", map[string]string{"email": "ravi@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	// JSON registration still works; events are dropped.
	rec = postJSON(t, h, "/api/lands", map[string]any{
		"title":        "Plot",
		"description":  "Plot near the lake",
		"location":     map[string]string{"address": "Lake Road", "city": "Udaipur", "state": "Rajasthan", "pincode": "313001"},
		"area":         map[string]any{"value": 500, "unit": "sqm"},
		"propertyType": "residential",
		"documentIds":  []string{"DEED-1"},
	}, rec.Result().Cookies()...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
