package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landreg/apiserver/internal/auth"
	"github.com/landreg/apiserver/internal/services"
	"go.uber.org/zap"
)

// GovtHandler provides government employee registration and login.
type GovtHandler struct {
	manager     *auth.Manager
	govtService *services.GovtService
	log         *zap.Logger
}

func NewGovtHandler(manager *auth.Manager, govtService *services.GovtService, log *zap.Logger) *GovtHandler {
	return &GovtHandler{manager: manager, govtService: govtService, log: log}
}

// GovtRouter registers the government employee account routes.
func GovtRouter(r chi.Router, h *GovtHandler) {
	r.Post("/govt-emp-register", h.Register)
	r.Post("/govt-emp-login", h.Login)
}

type GovtLoginResponse struct {
	Message  string `json:"message"`
	Name     string `json:"name"`
	Redirect string `json:"redirect"`
}

func (h *GovtHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterGovtInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.govtService.Register(r.Context(), req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Government employee registered successfully"})
}

func (h *GovtHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	emp, err := h.govtService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	token, _, err := h.manager.Login(r.Context(), auth.KindGovernment, emp.ID, emp.Role)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.manager.SetCookie(w, token)

	writeJSON(w, http.StatusOK, GovtLoginResponse{
		Message:  "Login successful",
		Name:     emp.Name,
		Redirect: GovtVerificationPage,
	})
}
