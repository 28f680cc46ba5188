package handlers

import (
	"errors"
	"net/http"

	"github.com/landreg/apiserver/internal/auth"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

// Pages used by authentication redirects.
const (
	UserLoginPage        = "/login"
	GovtLoginPage        = "/pages/Government/Govt-login.html"
	GovtVerificationPage = "/pages/Government/Govt-verification.html"
)

// Authenticator resolves the auth cookie into an identity and gates routes.
type Authenticator struct {
	manager *auth.Manager
	users   *services.UserService
	log     *zap.Logger
}

func NewAuthenticator(manager *auth.Manager, users *services.UserService, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{manager: manager, users: users, log: log}
}

func (a *Authenticator) identify(r *http.Request) (auth.Identity, error) {
	token, ok := auth.TokenFromRequest(r)
	if !ok {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return a.manager.Resolve(r.Context(), token)
}

// isReviewer reports whether id may review sale requests: a government
// employee, or a user whose stored role is admin.
func (a *Authenticator) isReviewer(r *http.Request, id auth.Identity) (bool, error) {
	switch id.Kind {
	case auth.KindGovernment:
		return id.Role == types.RoleGovernment, nil
	case auth.KindUser:
		user, err := a.users.GetByID(r.Context(), id.SubjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return user.Role == types.RoleAdmin, nil
	default:
		return false, nil
	}
}

// RequireUser rejects API requests without a user session.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			a.unauthorized(w, r, err)
			return
		}
		if id.Kind != auth.KindUser {
			writeError(w, http.StatusForbidden, "user account required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireReviewer rejects API requests from callers that may not review sales.
func (a *Authenticator) RequireReviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			a.unauthorized(w, r, err)
			return
		}
		ok, err := a.isReviewer(r, id)
		if err != nil {
			writeServiceError(w, r, a.log, err)
			return
		}
		if !ok {
			writeError(w, http.StatusForbidden, "reviewer access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireUserPage redirects page requests without a user session to the login page.
func (a *Authenticator) RequireUserPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil || id.Kind != auth.KindUser {
			http.Redirect(w, r, UserLoginPage, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireReviewerPage redirects page requests from non-reviewers to the
// government login page.
func (a *Authenticator) RequireReviewerPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			http.Redirect(w, r, GovtLoginPage, http.StatusFound)
			return
		}
		ok, err := a.isReviewer(r, id)
		if err != nil {
			writeServiceError(w, r, a.log, err)
			return
		}
		if !ok {
			http.Redirect(w, r, GovtLoginPage, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func (a *Authenticator) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, auth.ErrUnauthenticated) {
		a.log.Error("resolve session", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, http.StatusUnauthorized, "unauthorized")
}
