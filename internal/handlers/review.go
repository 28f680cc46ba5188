package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

// ReviewHandler provides the reviewer endpoints of the sell workflow.
type ReviewHandler struct {
	sellService *services.SellService
	log         *zap.Logger
}

func NewReviewHandler(sellService *services.SellService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{sellService: sellService, log: log}
}

func ReviewRouter(r chi.Router, h *ReviewHandler, authn *Authenticator) {
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireReviewer)
		r.Get("/api/govt/sell-lands", h.List)
		r.Put("/api/govt/sell-lands/{sellLandID}/{action}", h.Review)
		r.Get("/api/govt/declined-lands", h.Declined)
	})
}

type SellLandsResponse struct {
	Lands []types.SellLand `json:"lands"`
}

type DeclinedLandsResponse struct {
	Lands []types.DeclinedLand `json:"lands"`
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	lands, err := h.sellService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, SellLandsResponse{Lands: lands})
}

// Review applies the approve or decline action in the path.
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sellLandID, err := parseID(r, "sellLandID", "sale request")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	action := services.ReviewAction(strings.ToLower(chi.URLParam(r, "action")))

	result, err := h.sellService.Review(r.Context(), sellLandID, action, id.String())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ReviewHandler) Declined(w http.ResponseWriter, r *http.Request) {
	lands, err := h.sellService.Declined(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, DeclinedLandsResponse{Lands: lands})
}
