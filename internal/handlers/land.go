package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/landreg/apiserver/internal/services"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20

// LandHandler provides land registration and owner land endpoints.
type LandHandler struct {
	landService *services.LandService
	sellService *services.SellService
	log         *zap.Logger
}

func NewLandHandler(landService *services.LandService, sellService *services.SellService, log *zap.Logger) *LandHandler {
	return &LandHandler{landService: landService, sellService: sellService, log: log}
}

// LandRouter registers the land routes. Every route requires a user session.
func LandRouter(r chi.Router, h *LandHandler, authn *Authenticator) {
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireUser)
		r.Post("/api/lands", h.CreateJSON)
		r.Post("/api/land/register", h.Register)
		r.Get("/api/lands", h.List)
		r.Get("/api/lands/{landID}", h.Get)
		r.Put("/api/lands/{landID}/stats", h.IncrementStat)
		r.Put("/api/lands/{landID}/sell", h.Sell)
		r.Get("/api/files/*", h.File)
	})
}

type LandCreatedResponse struct {
	Message string      `json:"message"`
	Land    LandSummary `json:"land"`
}

type LandSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Owner int64  `json:"owner"`
}

type StatRequest struct {
	Field string `json:"field"`
}

type StatResponse struct {
	Message    string           `json:"message"`
	Statistics types.Statistics `json:"statistics"`
}

type ListForSaleRequest struct {
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Negotiable  bool    `json:"negotiable"`
}

type SellLandResponse struct {
	Message  string         `json:"message"`
	SellLand types.SellLand `json:"sellLand"`
}

// CreateJSON registers a land from a JSON body.
func (h *LandHandler) CreateJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.RegisterLandInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	land, err := h.landService.Register(r.Context(), id.SubjectID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeLandCreated(w, land)
}

// Register accepts either a JSON body or a multipart form with file parts.
func (h *LandHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		h.CreateJSON(w, r)
		return
	}

	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	in, err := landInputFromForm(r.MultipartForm)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	files, closeFiles, err := landFilesFromForm(r.MultipartForm)
	defer closeFiles()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	land, err := h.landService.RegisterWithFiles(r.Context(), id.SubjectID, in, files)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeLandCreated(w, land)
}

func writeLandCreated(w http.ResponseWriter, land types.Land) {
	writeJSON(w, http.StatusCreated, LandCreatedResponse{
		Message: "Land registered successfully",
		Land:    LandSummary{ID: land.ID, Title: land.Title, Owner: land.OwnerID},
	})
}

// landInputFromForm reads the registration fields. location and area are
// accepted as JSON strings or as flat fields.
func landInputFromForm(form *multipart.Form) (services.RegisterLandInput, error) {
	get := func(names ...string) string {
		for _, name := range names {
			if values := form.Value[name]; len(values) > 0 {
				if v := strings.TrimSpace(values[0]); v != "" {
					return v
				}
			}
		}
		return ""
	}
	list := func(name string) []string {
		var out []string
		for _, v := range form.Value[name] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		return out
	}

	in := services.RegisterLandInput{
		Title:           get("title"),
		Description:     get("description"),
		PropertyType:    get("propertyType"),
		SaleDescription: get("saleDescription"),
		DocumentIDs:     list("documentIds"),
		Images:          list("images"),
	}
	var errs []validation.FieldError

	if raw := get("location"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Location); err != nil {
			errs = append(errs, validation.FieldError{Field: "location", Message: "must be a JSON object"})
		}
	} else {
		in.Location = types.Location{
			Address: get("address", "landLocation"),
			City:    get("city"),
			State:   get("state"),
			Pincode: get("pincode"),
		}
	}

	if raw := get("area"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Area); err != nil {
			errs = append(errs, validation.FieldError{Field: "area", Message: "must be a JSON object"})
		}
	} else {
		in.Area.Unit = get("areaUnit")
		if raw := get("areaValue", "landArea"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs = append(errs, validation.FieldError{Field: "area.value", Message: "must be a number"})
			}
			in.Area.Value = v
		}
	}

	if len(errs) > 0 {
		return services.RegisterLandInput{}, validation.New(errs...)
	}
	return in, nil
}

func landFilesFromForm(form *multipart.Form) ([]services.LandFile, func(), error) {
	var (
		files  []services.LandFile
		opened []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, field := range []string{services.FileLandImage, services.FileLandDoc, services.FileAadhaarDoc, services.FilePanDoc} {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, errors.New("invalid file " + field)
		}
		opened = append(opened, f)

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, services.LandFile{
			Field:       field,
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}
	return files, closeAll, nil
}

// List returns the caller's lands.
func (h *LandHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	lands, err := h.landService.ListByOwner(r.Context(), id.SubjectID, q.Get("status"), q.Get("sort"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, lands)
}

func (h *LandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	landID, err := parseID(r, "landID", "land")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	land, err := h.landService.Get(r.Context(), id.SubjectID, landID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, land)
}

// IncrementStat bumps one engagement counter of a land.
func (h *LandHandler) IncrementStat(w http.ResponseWriter, r *http.Request) {
	landID, err := parseID(r, "landID", "land")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req StatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.landService.IncrementStat(r.Context(), landID, req.Field)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, StatResponse{
		Message:    "Land " + strings.ToLower(strings.TrimSpace(req.Field)) + " updated",
		Statistics: stats,
	})
}

// Sell submits a sale request for the land in the path.
func (h *LandHandler) Sell(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	landID, err := parseID(r, "landID", "land")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ListForSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sell, err := h.sellService.Submit(r.Context(), id.SubjectID, services.SubmitSaleInput{
		LandID:          landID,
		Price:           req.Price,
		Negotiable:      req.Negotiable,
		SaleDescription: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, SellLandResponse{Message: "Land listed for sale successfully", SellLand: sell})
}
