// Package auth resolves the authenticated identity behind the "auth" cookie.
//
// The cookie carries an HS256 token whose jti names a server-side session;
// the session is the source of truth, so deleting it revokes the cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/landreg/apiserver/internal/session"
)

// CookieName is the name of the authentication cookie.
const CookieName = "auth"

const defaultTTL = 24 * time.Hour

// Kind is the credential kind of an identity.
type Kind string

const (
	KindUser       Kind = "user"
	KindGovernment Kind = "government"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindUser || k == KindGovernment
}

// ErrUnauthenticated is returned for a missing, invalid, expired or revoked credential.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is an authenticated caller.
type Identity struct {
	Kind      Kind
	SubjectID int64
	Role      string
	SessionID string
}

// String renders the identity as "kind:id".
func (i Identity) String() string {
	return string(i.Kind) + ":" + strconv.FormatInt(i.SubjectID, 10)
}

type claims struct {
	Kind Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Manager issues and resolves credentials.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	store        session.Store
	cookieSecure bool
	now          func() time.Time
}

// NewManager constructs a Manager. A zero ttl means 24 hours.
func NewManager(secret string, ttl time.Duration, store session.Store, cookieSecure bool) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth secret is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		secret:       []byte(secret),
		ttl:          ttl,
		store:        store,
		cookieSecure: cookieSecure,
		now:          time.Now,
	}, nil
}

// Login creates a session for the subject and returns the signed token.
func (m *Manager) Login(ctx context.Context, kind Kind, subjectID int64, role string) (string, Identity, error) {
	if !kind.Valid() {
		return "", Identity{}, fmt.Errorf("unknown credential kind %q", kind)
	}
	now := m.now()
	sessionID := uuid.NewString()
	err := m.store.Save(ctx, sessionID, session.Session{
		Kind:      string(kind),
		SubjectID: subjectID,
		Role:      role,
		CreatedAt: now,
	}, m.ttl)
	if err != nil {
		return "", Identity{}, fmt.Errorf("save session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, Identity{Kind: kind, SubjectID: subjectID, Role: role, SessionID: sessionID}, nil
}

// Resolve verifies the token and loads its session.
func (m *Manager) Resolve(ctx context.Context, token string) (Identity, error) {
	c, err := m.parse(token)
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}
	subjectID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || subjectID < 1 {
		return Identity{}, ErrUnauthenticated
	}

	s, err := m.store.Load(ctx, c.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	if Kind(s.Kind) != c.Kind || s.SubjectID != subjectID {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{Kind: c.Kind, SubjectID: subjectID, Role: s.Role, SessionID: c.ID}, nil
}

// Logout deletes the session behind the token. Invalid tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	c, err := m.parse(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, c.ID)
}

func (m *Manager) parse(tokenString string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !c.Kind.Valid() || strings.TrimSpace(c.ID) == "" {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}

// SetCookie writes the auth cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the auth cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the auth cookie value, if any.
func TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	return value, value != ""
}
