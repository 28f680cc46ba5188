package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/landreg/apiserver/internal/catalog"
	"go.uber.org/zap"
)

// CatalogHandler serves the buyer catalog search.
type CatalogHandler struct {
	catalog *catalog.Catalog
	log     *zap.Logger
}

func NewCatalogHandler(c *catalog.Catalog, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, log: log}
}

// CatalogRouter mounts the catalog routes with CORS for the given origins.
func CatalogRouter(r chi.Router, h *CatalogHandler, origins []string) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Get("/", h.Search)
	r.Get("/{listingID}", h.Get)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := catalog.ParseFilter(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.catalog.Search(filter))
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "listingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}
	listing, ok := h.catalog.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "land not found")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}
