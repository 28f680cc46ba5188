package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)

	for path, body := range map[string]string{"/": "index", "/login": "login", "/register": "register"} {
		rec := env.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, body, rec.Body.String(), path)
	}

	rec := env.do(t, http.MethodGet, "/assets/app.css", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, GovtLoginPage, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "govt login", rec.Body.String())
}

func TestUserPagesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/home", "/buyer", "/seller"} {
		rec := env.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, UserLoginPage, rec.Header().Get("Location"))
	}

	cookie := env.loginUser(t, "visitor")
	rec := env.do(t, http.MethodGet, "/home", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())

	// home.html is only served through /home.
	rec = env.do(t, http.MethodGet, "/pages/home.html", nil, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerificationPageRequiresReviewer(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, GovtVerificationPage, nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, GovtLoginPage, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, GovtVerificationPage, nil, env.loginUser(t, "plain"))
	require.Equal(t, http.StatusFound, rec.Code)

	rec = env.do(t, http.MethodGet, GovtVerificationPage, nil, env.loginGovt(t, "E1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "verification", rec.Body.String())
}

func TestVerificationPageAliasesRequireReviewer(t *testing.T) {
	env := newTestEnv(t)
	govt := env.loginGovt(t, "E2")

	for _, path := range []string{
		"/pages/Government//Govt-verification.html",
		"/pages//Government/Govt-verification.html",
		"/pages/Government/./Govt-verification.html",
		"/pages/Government/../Government/Govt-verification.html",
	} {
		rec := env.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, GovtLoginPage, rec.Header().Get("Location"), path)
		assert.NotContains(t, rec.Body.String(), "verification", path)

	}

	for _, path := range []string{
		"/pages/Government//Govt-verification.html",
		"/pages/Government/./Govt-verification.html",
	} {
		rec := env.do(t, http.MethodGet, path, nil, govt)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "verification", rec.Body.String(), path)
	}
}
