package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// EntityCRUD is the service surface behind an EntityHandler
type EntityCRUD[T any, PT repository.RecordPtr[T]] interface {
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (PT, error)
	Create(ctx context.Context, row PT) (PT, error)
	Update(ctx context.Context, row PT) (PT, error)
	Delete(ctx context.Context, id string) error
}

// EntityHandler serves GET/POST/PUT/DELETE for one entity collection.
// Full list responses are cached per collection and dropped after every successful write.
// Collections whose row-level security filters rows by caller are cached per caller.
type EntityHandler[T any, PT repository.RecordPtr[T]] struct {
	collection      string
	payloadKey      string
	svc             EntityCRUD[T, PT]
	cache           cache.ResponseCache
	cacheControl    string
	callerPartition bool
	logger          *zap.Logger
}

// NewEntityHandler creates a handler for collection (the route segment and cache slot)
// whose request bodies carry the row under payloadKey. responseCache may be nil.
func NewEntityHandler[T any, PT repository.RecordPtr[T]](
	collection, payloadKey string,
	svc EntityCRUD[T, PT],
	responseCache cache.ResponseCache,
	cacheControl string,
	logger *zap.Logger,
) *EntityHandler[T, PT] {
	return &EntityHandler[T, PT]{
		collection:   collection,
		payloadKey:   payloadKey,
		svc:          svc,
		cache:        responseCache,
		cacheControl: cacheControl,
		logger:       logger.With(zap.String("collection", collection)),
	}
}

// PartitionByCaller keys the list cache by the caller's user id
func (h *EntityHandler[T, PT]) PartitionByCaller() *EntityHandler[T, PT] {
	h.callerPartition = true
	return h
}

// Collection returns the route segment, e.g. "sales-orders"
func (h *EntityHandler[T, PT]) Collection() string {
	return h.collection
}

func (h *EntityHandler[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, cacheable := h.cacheKey(ctx)
	if cacheable {
		if body, ok := h.cache.Get(ctx, key); ok {
			h.writeList(w, body, "HIT")
			return
		}
	}

	rows, err := h.svc.List(ctx)
	if err != nil {
		handleServiceError(w, h.logger, err, "list "+h.collection)
		return
	}

	body, err := json.Marshal(rows)
	if err != nil {
		h.logger.Error("failed to encode list", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list "+h.collection)
		return
	}
	if cacheable {
		h.cache.Set(ctx, key, body)
	}
	h.writeList(w, body, "MISS")
}

// cacheKey reads the collection generation before the list is loaded, so a
// write that lands while the list is read makes the result unservable.
func (h *EntityHandler[T, PT]) cacheKey(ctx context.Context) (cache.Key, bool) {
	if h.cache == nil {
		return cache.Key{}, false
	}
	key := cache.Key{Entity: h.collection}
	if h.callerPartition {
		caller, ok := auth.FromContext(ctx)
		if !ok {
			return cache.Key{}, false
		}
		key.Partition = caller.UserID
	}
	gen, ok := h.cache.Generation(ctx, h.collection)
	if !ok {
		return cache.Key{}, false
	}
	key.Generation = gen
	return key, true
}

func (h *EntityHandler[T, PT]) writeList(w http.ResponseWriter, body []byte, cacheStatus string) {
	w.Header().Set("Content-Type", "application/json")
	if h.cacheControl != "" {
		cc := h.cacheControl
		if h.callerPartition {
			// per-caller rows must not be stored by shared caches
			cc = strings.Replace(cc, "public", "private", 1)
			w.Header().Set("Vary", "Authorization")
		}
		w.Header().Set("Cache-Control", cc)
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *EntityHandler[T, PT]) GetByID(w http.ResponseWriter, r *http.Request) {
	row, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err, "get "+h.payloadKey)
		return
	}
	respondJSON(w, http.StatusOK, row)
}

func (h *EntityHandler[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	row, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(r.Context(), row)
	if err != nil {
		handleServiceError(w, h.logger, err, "create "+h.payloadKey)
		return
	}

	h.invalidate(r.Context())
	respondJSON(w, http.StatusCreated, created)
}

func (h *EntityHandler[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	row, ok := h.decode(w, r)
	if !ok {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		row.Base().ID = id
	}
	if row.Base().ID == "" {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	updated, err := h.svc.Update(r.Context(), row)
	if err != nil {
		handleServiceError(w, h.logger, err, "update "+h.payloadKey)
		return
	}

	h.invalidate(r.Context())
	respondJSON(w, http.StatusOK, updated)
}

func (h *EntityHandler[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = chi.URLParam(r, "id")
	}
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete "+h.payloadKey)
		return
	}

	h.invalidate(r.Context())
	respondJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

// decode reads and validates the payload, writing the 400 response itself on failure
func (h *EntityHandler[T, PT]) decode(w http.ResponseWriter, r *http.Request) (PT, bool) {
	row := PT(new(T))
	if err := decodePayload(w, r, h.payloadKey, row); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := validate.Struct(row); err != nil {
		respondValidationError(w, err)
		return nil, false
	}
	return row, true
}

// invalidate drops the collection's cached list
func (h *EntityHandler[T, PT]) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	h.cache.Invalidate(ctx, h.collection)
	h.logger.Debug("cache invalidated")
}
