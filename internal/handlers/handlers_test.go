package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/landreg/apiserver/internal/auth"
	"github.com/landreg/apiserver/internal/catalog"
	"github.com/landreg/apiserver/internal/mq"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/internal/session"
	"github.com/landreg/apiserver/internal/storage"
	"github.com/landreg/apiserver/internal/store/memstore"
	"github.com/landreg/apiserver/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	router  *chi.Mux
	db      *memstore.Store
	objects *storage.MemoryClient
	broker  *mq.MemoryBroker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	db := memstore.New()
	objects := storage.NewMemoryClient("test")
	broker := mq.NewMemoryBroker()
	events := services.NewEventPublisher(mq.New(broker), log)

	manager, err := auth.NewManager("test-secret", time.Hour, session.NewMemoryStore(), false)
	require.NoError(t, err)

	userService := services.NewUserService(db.Users(), log)
	govtService := services.NewGovtService(db.GovtEmployees(), log)
	landService := services.NewLandService(db.Lands(), db.Users(), storage.NewStorage(objects), events, log)
	sellService := services.NewSellService(db.SellLands(), db.Lands(), db.Users(), events, log)
	authn := NewAuthenticator(manager, userService, log)

	listings := catalog.New([]types.CatalogListing{
		{ID: 1, Title: "Lake View Plot", Location: "Udaipur", Price: 1500000, Size: "2 acres", Type: "Residential"},
		{ID: 2, Title: "Highway Warehouse Land", Location: "Nagpur", Price: 4200000, Size: "5 acres", Type: "Commercial"},
	})

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	AuthRouter(r, NewAuthHandler(manager, userService, landService, log), authn)
	GovtRouter(r, NewGovtHandler(manager, govtService, log))
	LandRouter(r, NewLandHandler(landService, sellService, log), authn)
	SellRouter(r, NewSellHandler(sellService, log), authn)
	ReviewRouter(r, NewReviewHandler(sellService, log), authn)
	r.Route("/api/catalog/lands", func(r chi.Router) {
		CatalogRouter(r, NewCatalogHandler(listings, log), []string{"*"})
	})
	PagesRouter(r, writeFrontend(t), authn)

	return &testEnv{router: r, db: db, objects: objects, broker: broker}
}

func writeFrontend(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pages/index.html":                        "index",
		"pages/login.html":                        "login",
		"pages/register.html":                     "register",
		"pages/home.html":                         "home",
		"pages/buyer.html":                        "buyer",
		"pages/seller.html":                       "seller",
		"pages/Government/Govt-login.html":        "govt login",
		"pages/Government/Govt-verification.html": "verification",
		"assets/app.css":                          "body{}",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", auth.CookieName)
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func registerBody(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"username":    name,
		"email":       name + "@example.com",
		"password":    "secret1",
		"phoneNumber": "9876543210",
	}
}

// loginUser registers name and returns its auth cookie.
func (e *testEnv) loginUser(t *testing.T, name string) *http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/register", registerBody(name), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, "/login", map[string]string{"email": name + "@example.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return authCookie(t, rec)
}

// loginAdmin stores a user with role admin and returns its auth cookie.
func (e *testEnv) loginAdmin(t *testing.T, name string) *http.Cookie {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = e.db.Users().Create(context.Background(), types.User{
		Name:         name,
		Username:     name,
		Email:        name + "@example.com",
		Role:         types.RoleAdmin,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	rec := e.do(t, http.MethodPost, "/login", map[string]string{"email": name + "@example.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return authCookie(t, rec)
}

func (e *testEnv) loginGovt(t *testing.T, empID string) *http.Cookie {
	t.Helper()
	email := empID + "@revenue.gov.in"
	rec := e.do(t, http.MethodPost, "/govt-emp-register", map[string]string{
		"empId":      empID,
		"name":       "Officer " + empID,
		"email":      email,
		"password":   "secret1",
		"department": "Revenue",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = e.do(t, http.MethodPost, "/govt-emp-login", map[string]string{"email": email, "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return authCookie(t, rec)
}

func landBody() map[string]any {
	return map[string]any{
		"title":        "Green Acres",
		"description":  "Two acres of farmland near Jaipur",
		"location":     map[string]string{"address": "NH 8", "city": "Jaipur", "state": "Rajasthan", "pincode": "302001"},
		"area":         map[string]any{"value": 2, "unit": "acre"},
		"propertyType": "agricultural",
		"documentIds":  []string{"DEED-1"},
		"images":       []string{"https://img.example.com/1.jpg"},
	}
}

func (e *testEnv) createLand(t *testing.T, cookie *http.Cookie) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/lands", landBody(), cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[LandCreatedResponse](t, rec).Land.ID
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
