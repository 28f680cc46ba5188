package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

// SellHandler provides the owner sale submission and the public sell list.
type SellHandler struct {
	sellService *services.SellService
	log         *zap.Logger
}

func NewSellHandler(sellService *services.SellService, log *zap.Logger) *SellHandler {
	return &SellHandler{sellService: sellService, log: log}
}

func SellRouter(r chi.Router, h *SellHandler, authn *Authenticator) {
	r.Get("/api/sell-list", h.SellList)
	r.With(authn.RequireUser).Post("/api/sell-land", h.Submit)
}

type SellListResponse struct {
	Items []types.SellListing `json:"items"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
	Total int                 `json:"total"`
}

func (h *SellHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.SubmitSaleInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sell, err := h.sellService.Submit(r.Context(), id.SubjectID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, SellLandResponse{Message: "Land submitted for sale successfully", SellLand: sell})
}

// SellList returns one page of approved listings.
func (h *SellHandler) SellList(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.sellService.SellList(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, SellListResponse{Items: items, Page: page, Limit: limit, Total: total})
}
