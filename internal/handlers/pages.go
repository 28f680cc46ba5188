package handlers

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PagesRouter serves the HTML pages and static assets under dir.
func PagesRouter(r chi.Router, dir string, authn *Authenticator) {
	pages := filepath.Join(dir, "pages")
	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(pages, name))
		}
	}

	r.Get("/", page("index.html"))
	r.Get("/login", page("login.html"))
	r.Get("/register", page("register.html"))

	r.Group(func(r chi.Router) {
		r.Use(authn.RequireUserPage)
		r.Get("/home", page("home.html"))
		r.Get("/buyer", page("buyer.html"))
		r.Get("/seller", page("seller.html"))
	})

	verification := authn.RequireReviewerPage(page(filepath.Join("Government", "Govt-verification.html")))
	r.Get(GovtVerificationPage, verification.ServeHTTP)

	static := staticFiles(dir, verification)
	r.Get("/pages/*", static)
	r.Get("/assets/*", static)
}

// staticFiles serves files below dir. home.html is only reachable through
// /home, and any spelling of the verification page goes to verification.
func staticFiles(dir string, verification http.Handler) http.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if strings.EqualFold(clean, GovtVerificationPage) {
			verification.ServeHTTP(w, r)
			return
		}
		if strings.EqualFold(path.Base(clean), "home.html") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		fs.ServeHTTP(w, r)
	}
}
