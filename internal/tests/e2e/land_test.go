//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/landreg/apiserver/config"
	"github.com/landreg/apiserver/internal/db"
	"github.com/landreg/apiserver/internal/server"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	setEnv()

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestSaleLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	seller := newClient(t)
	email := fmt.Sprintf("seller_%d@example.com", suffix)
	password := "testpass123!"

	expectStatus(t, seller, http.MethodPost, baseURL+"/register", map[string]any{
		"name":     fmt.Sprintf("Seller %d", suffix),
		"username": fmt.Sprintf("seller_%d", suffix),
		"email":    email,
		"password": password,
	}, http.StatusCreated, nil)

	expectStatus(t, seller, http.MethodPost, baseURL+"/login", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK, nil)

	var created struct {
		Land struct {
			ID int64 `json:"id"`
		} `json:"land"`
	}
	expectStatus(t, seller, http.MethodPost, baseURL+"/api/lands", map[string]any{
		"title":        "River plot",
		"description":  "Two acres near the river",
		"location":     map[string]string{"address": "12 Bank Road", "city": "Pune", "state": "Maharashtra", "pincode": "411001"},
		"area":         map[string]any{"value": 2, "unit": "acre"},
		"propertyType": "agricultural",
		"documentIds":  []string{"DOC-1"},
		"images":       []string{"https://example.com/river.jpg"},
	}, http.StatusCreated, &created)
	if created.Land.ID == 0 {
		t.Fatalf("expected land ID to be set")
	}

	var submitted struct {
		SellLand struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"sellLand"`
	}
	expectStatus(t, seller, http.MethodPost, baseURL+"/api/sell-land", map[string]any{
		"landId": created.Land.ID,
		"price":  2500000,
	}, http.StatusCreated, &submitted)
	if submitted.SellLand.Status != "pending" {
		t.Fatalf("unexpected sale status: %q", submitted.SellLand.Status)
	}

	expectStatus(t, seller, http.MethodPost, baseURL+"/api/sell-land", map[string]any{
		"landId": created.Land.ID,
		"price":  2600000,
	}, http.StatusConflict, nil)

	reviewer := newClient(t)
	govtEmail := fmt.Sprintf("officer_%d@example.gov.in", suffix)
	expectStatus(t, reviewer, http.MethodPost, baseURL+"/govt-emp-register", map[string]any{
		"empId":      fmt.Sprintf("EMP-%d", suffix),
		"name":       "Officer",
		"email":      govtEmail,
		"password":   password,
		"department": "Revenue",
	}, http.StatusCreated, nil)
	expectStatus(t, reviewer, http.MethodPost, baseURL+"/govt-emp-login", map[string]any{
		"email":    govtEmail,
		"password": password,
	}, http.StatusOK, nil)

	reviewURL := fmt.Sprintf("%s/api/govt/sell-lands/%d/approve", baseURL, submitted.SellLand.ID)
	expectStatus(t, seller, http.MethodPut, reviewURL, nil, http.StatusForbidden, nil)
	expectStatus(t, reviewer, http.MethodPut, reviewURL, nil, http.StatusOK, nil)
	expectStatus(t, reviewer, http.MethodPut, reviewURL, nil, http.StatusConflict, nil)

	var land struct {
		Status string `json:"status"`
	}
	expectStatus(t, seller, http.MethodGet, fmt.Sprintf("%s/api/lands/%d", baseURL, created.Land.ID), nil, http.StatusOK, &land)
	if land.Status != "sold" {
		t.Fatalf("unexpected land status after approval: %q", land.Status)
	}

	var list struct {
		Items []struct {
			SellLandID int64 `json:"sellLandId"`
		} `json:"items"`
		Total int `json:"total"`
	}
	expectStatus(t, newClient(t), http.MethodGet, baseURL+"/api/sell-list?limit=100", nil, http.StatusOK, &list)
	found := false
	for _, item := range list.Items {
		if item.SellLandID == submitted.SellLand.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("approved listing %d missing from sell list", submitted.SellLand.ID)
	}
}

func TestAdminUserCanReview(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	username := fmt.Sprintf("admin_%d", suffix)
	email := username + "@example.com"
	password := "testpass123!"

	admin := newClient(t)
	expectStatus(t, admin, http.MethodPost, baseURL+"/register", map[string]any{
		"name":     "Admin " + username,
		"username": username,
		"email":    email,
		"password": password,
	}, http.StatusCreated, nil)

	if err := promoteUserToAdmin(username); err != nil {
		t.Fatalf("promote user: %v", err)
	}

	expectStatus(t, admin, http.MethodPost, baseURL+"/login", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK, nil)
	expectStatus(t, admin, http.MethodGet, baseURL+"/api/govt/sell-lands?status=pending", nil, http.StatusOK, nil)
	expectStatus(t, admin, http.MethodPut, baseURL+"/api/govt/sell-lands/999999999/approve", nil, http.StatusNotFound, nil)
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func expectStatus(t *testing.T, client *http.Client, method, url string, payload any, want int, out any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s status %d, want %d: %s", method, url, resp.StatusCode, want, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
}

func promoteUserToAdmin(username string) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = conn.ExecContext(ctx, "UPDATE users SET role = 'admin', updated_at = NOW() WHERE username = $1", username)
	return err
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.PostgresURL(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(cfg.Database))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setEnv() {
	_ = os.Setenv("AUTH_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_DRIVER", "postgres")
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "landreg")
	_ = os.Setenv("DB_PASSWORD", "landreg")
	_ = os.Setenv("DB_NAME", "land_registry")
	_ = os.Setenv("DB_SSL", "false")
	_ = os.Setenv("SESSION_BACKEND", "redis")
	_ = os.Setenv("REDIS_URL", "redis://localhost:6379/0")
	_ = os.Setenv("STORAGE_BACKEND", "memory")
	_ = os.Setenv("MQ_BACKEND", "memory")
}

func startServer(ctx context.Context) (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
