package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/landreg/apiserver/internal/storage"
	"github.com/landreg/apiserver/internal/store"
	"github.com/landreg/apiserver/internal/validation"
	"github.com/landreg/apiserver/types"
	"go.uber.org/zap"
)

// Form fields of the files uploaded with a land registration.
const (
	FileLandImage  = "landImage"
	FileLandDoc    = "landDoc"
	FileAadhaarDoc = "aadhaarDoc"
	FilePanDoc     = "panDoc"
)

// LandRepository defines persistence operations for land parcels.
type LandRepository interface {
	Create(ctx context.Context, land types.Land) (types.Land, error)
	Get(ctx context.Context, id int64) (types.Land, error)
	ListByOwner(ctx context.Context, ownerID int64, opts store.LandListOptions) ([]types.Land, error)
	IncrementStat(ctx context.Context, id int64, stat store.Statistic) (types.Statistics, error)
}

// RegisterLandInput is the land registration form.
type RegisterLandInput struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Location        types.Location `json:"location"`
	Area            types.Area     `json:"area"`
	PropertyType    string         `json:"propertyType"`
	DocumentIDs     []string       `json:"documentIds"`
	SaleDescription string         `json:"saleDescription"`
	Images          []string       `json:"images"`
}

// LandFile is one file part of a multipart land registration.
type LandFile struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// LandService encapsulates land registration use-cases.
type LandService struct {
	lands   LandRepository
	users   UserRepository
	storage *storage.Storage
	events  *EventPublisher
	log     *zap.Logger
}

// NewLandService constructs a LandService. A nil storage disables uploads.
func NewLandService(lands LandRepository, users UserRepository, objects *storage.Storage, events *EventPublisher, log *zap.Logger) *LandService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LandService{lands: lands, users: users, storage: objects, events: events, log: log}
}

// Register creates a land owned by ownerID with status available. Owner
// details are copied from the stored user.
func (s *LandService) Register(ctx context.Context, ownerID int64, in RegisterLandInput) (types.Land, error) {
	land, err := s.prepare(ctx, ownerID, in)
	if err != nil {
		return types.Land{}, err
	}
	return s.create(ctx, land)
}

// RegisterWithFiles uploads the land image, the ownership document and the
// optional identity documents, then creates the land. Uploaded objects are
// removed again when the land cannot be created.
func (s *LandService) RegisterWithFiles(ctx context.Context, ownerID int64, in RegisterLandInput, files []LandFile) (types.Land, error) {
	if s.storage == nil {
		return types.Land{}, ErrStorageDisabled
	}

	byField := make(map[string]LandFile, len(files))
	for _, f := range files {
		if _, seen := byField[f.Field]; !seen {
			byField[f.Field] = f
		}
	}
	var missing []validation.FieldError
	for _, field := range []string{FileLandImage, FileLandDoc} {
		if _, ok := byField[field]; !ok {
			missing = append(missing, validation.FieldError{Field: field, Message: "is required"})
		}
	}
	if len(missing) > 0 {
		return types.Land{}, validation.New(missing...)
	}

	land, err := s.prepare(ctx, ownerID, in)
	if err != nil {
		return types.Land{}, err
	}

	var uploaded []string
	cleanup := func() {
		for _, key := range uploaded {
			if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
				s.log.Warn("remove uploaded object", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, field := range []string{FileLandImage, FileLandDoc, FileAadhaarDoc, FilePanDoc} {
		f, ok := byField[field]
		if !ok {
			continue
		}
		key := storage.LandObjectKey(ownerID, field, f.Filename)
		if err := s.storage.Put(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			cleanup()
			return types.Land{}, fmt.Errorf("upload %s: %w", field, err)
		}
		uploaded = append(uploaded, key)

		switch field {
		case FileLandImage:
			land.Images = append(land.Images, key)
		case FileLandDoc:
			land.DocumentIDs = append(land.DocumentIDs, key)
		case FileAadhaarDoc:
			land.AadhaarDoc = key
		case FilePanDoc:
			land.PanDoc = key
		}
	}

	created, err := s.create(ctx, land)
	if err != nil {
		cleanup()
		return types.Land{}, err
	}
	return created, nil
}

func (s *LandService) prepare(ctx context.Context, ownerID int64, in RegisterLandInput) (types.Land, error) {
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Land{}, fmt.Errorf("user %w", store.ErrNotFound)
		}
		return types.Land{}, err
	}

	land := types.Land{
		OwnerID: owner.ID,
		OwnerDetails: types.OwnerDetails{
			Name:        owner.Name,
			Email:       owner.Email,
			PhoneNumber: owner.PhoneNumber,
		},
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location: types.Location{
			Address: strings.TrimSpace(in.Location.Address),
			City:    strings.TrimSpace(in.Location.City),
			State:   strings.TrimSpace(in.Location.State),
			Pincode: strings.TrimSpace(in.Location.Pincode),
		},
		Area: types.Area{
			Value: in.Area.Value,
			Unit:  strings.ToLower(strings.TrimSpace(in.Area.Unit)),
		},
		PropertyType:     strings.ToLower(strings.TrimSpace(in.PropertyType)),
		DocumentIDs:      compact(in.DocumentIDs),
		Images:           compact(in.Images),
		Status:           types.LandAvailable,
		SaleDescription:  strings.TrimSpace(in.SaleDescription),
		RegistrationDate: time.Now(),
	}
	if err := validation.Struct(land); err != nil {
		return types.Land{}, err
	}
	return land, nil
}

func (s *LandService) create(ctx context.Context, land types.Land) (types.Land, error) {
	created, err := s.lands.Create(ctx, land)
	if err != nil {
		return types.Land{}, err
	}
	s.log.Info("land registered", zap.Int64("land_id", created.ID), zap.Int64("owner_id", created.OwnerID))
	s.events.Publish(ctx, types.Event{
		Type:    types.EventLandRegistered,
		LandID:  created.ID,
		OwnerID: created.OwnerID,
	})
	return created, nil
}

// ListByOwner returns the owner's lands. Status "" or "all" disables the
// status filter; sort defaults to newest.
func (s *LandService) ListByOwner(ctx context.Context, ownerID int64, status, sort string) ([]types.Land, error) {
	opts := store.LandListOptions{Sort: store.SortNewest}
	var errs []validation.FieldError

	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != "all" {
		opts.Status = types.LandStatus(status)
		if !opts.Status.Valid() {
			errs = append(errs, validation.FieldError{Field: "status", Message: "must be one of: all, available, pending, sold"})
		}
	}
	if sort = strings.ToLower(strings.TrimSpace(sort)); sort != "" {
		opts.Sort = store.LandSort(sort)
		if !opts.Sort.Valid() {
			errs = append(errs, validation.FieldError{Field: "sort", Message: "must be one of: newest, oldest, views, likes"})
		}
	}
	if len(errs) > 0 {
		return nil, validation.New(errs...)
	}
	return s.lands.ListByOwner(ctx, ownerID, opts)
}

// Get returns one of the owner's lands. Lands of other owners are reported
// as not found.
func (s *LandService) Get(ctx context.Context, ownerID, id int64) (types.Land, error) {
	land, err := s.lands.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Land{}, fmt.Errorf("land %w", store.ErrNotFound)
		}
		return types.Land{}, err
	}
	if land.OwnerID != ownerID {
		return types.Land{}, fmt.Errorf("land %w", store.ErrNotFound)
	}
	return land, nil
}

// IncrementStat adds one to the views, likes or inquiries counter.
func (s *LandService) IncrementStat(ctx context.Context, id int64, field string) (types.Statistics, error) {
	stat := store.Statistic(strings.ToLower(strings.TrimSpace(field)))
	if !stat.Valid() {
		return types.Statistics{}, ErrInvalidStatistic
	}
	stats, err := s.lands.IncrementStat(ctx, id, stat)
	if errors.Is(err, store.ErrNotFound) {
		return types.Statistics{}, fmt.Errorf("land %w", store.ErrNotFound)
	}
	return stats, err
}

// OpenFile streams an uploaded object that belongs to ownerID.
func (s *LandService) OpenFile(ctx context.Context, ownerID int64, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if storage.ValidateKey(key) != nil || !strings.HasPrefix(key, storage.LandObjectPrefix(ownerID)) {
		return nil, ErrForbidden
	}
	r, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("file %w", store.ErrNotFound)
		}
		return nil, err
	}
	return r, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
