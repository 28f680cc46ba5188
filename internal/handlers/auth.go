package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landreg/apiserver/internal/auth"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

// AuthHandler provides user registration, login, logout and profile endpoints.
type AuthHandler struct {
	manager     *auth.Manager
	userService *services.UserService
	landService *services.LandService
	log         *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(manager *auth.Manager, userService *services.UserService, landService *services.LandService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{manager: manager, userService: userService, landService: landService, log: log}
}

// AuthRouter registers the user account routes on the given router.
func AuthRouter(r chi.Router, h *AuthHandler, authn *Authenticator) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Post("/api/logout", h.APILogout)
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireUser)
		r.Get("/api/profile", h.Profile)
		r.Get("/api/user", h.Profile)
		r.Get("/api/profile/lands", h.ProfileLands)
	})
}

type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

type UserSummary struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterUserInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		User:    UserSummary{ID: user.ID, Username: user.Username, Email: user.Email},
	})
}

// Login verifies credentials and sets the auth cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	token, _, err := h.manager.Login(r.Context(), auth.KindUser, user.ID, user.Role)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.manager.SetCookie(w, token)

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    UserSummary{ID: user.ID, Username: user.Username},
	})
}

// Logout revokes the session and redirects to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r)
	http.Redirect(w, r, UserLoginPage, http.StatusFound)
}

// APILogout revokes the session and acknowledges with JSON.
func (h *AuthHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) revoke(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.TokenFromRequest(r); ok {
		if err := h.manager.Logout(r.Context(), token); err != nil {
			h.log.Warn("revoke session", zap.Error(err))
		}
	}
	h.manager.ClearCookie(w)
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id.SubjectID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ProfileLand is the summary of a land shown on the profile page.
type ProfileLand struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Location         types.Location   `json:"location"`
	Area             types.Area       `json:"area"`
	PropertyType     string           `json:"propertyType"`
	Status           types.LandStatus `json:"status"`
	Price            *float64         `json:"price,omitempty"`
	RegistrationDate string           `json:"registrationDate"`
}

// ProfileLands returns summaries of the authenticated user's lands.
func (h *AuthHandler) ProfileLands(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	lands, err := h.landService.ListByOwner(r.Context(), id.SubjectID, "", "")
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	out := make([]ProfileLand, 0, len(lands))
	for _, land := range lands {
		out = append(out, ProfileLand{
			ID:               land.ID,
			Title:            land.Title,
			Location:         land.Location,
			Area:             land.Area,
			PropertyType:     land.PropertyType,
			Status:           land.Status,
			Price:            land.Price,
			RegistrationDate: land.RegistrationDate.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
