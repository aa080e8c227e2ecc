package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mkravets/inventory-service/internal/model"
	"github.com/mkravets/inventory-service/internal/registry"
)

// Version is the application version.
const Version = "1.0.0"

// maxUploadBytes caps multipart form memory for photo uploads.
const maxUploadBytes = 32 << 20

// RESTHandler translates HTTP requests into registry operations and
// registry results into status codes and payloads.
type RESTHandler struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(reg *registry.Registry, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		registry: reg,
		logger:   logger,
	}
}

// RegisterRoutes registers the inventory routes with the router. Method
// restrictions are declared per route; the router turns a path match with
// a method mismatch into 405 before any handler runs.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/register", h.RegisterItem).Methods(http.MethodPost)
	router.HandleFunc("/inventory", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/inventory/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/inventory/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/inventory/{id}", h.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/inventory/{id}/photo", h.GetPhoto).Methods(http.MethodGet)
	router.HandleFunc("/inventory/{id}/photo", h.ReplacePhoto).Methods(http.MethodPut)
	router.HandleFunc("/search", h.Search).Methods(http.MethodGet, http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// RegisterItem handles POST /register requests: multipart fields
// inventory_name (required), description and an optional photo file.
func (h *RESTHandler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("invalid multipart form", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	photo, closeUpload, err := formPhoto(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid photo upload")
		return
	}
	defer closeUpload()

	item, err := h.registry.Create(ctx, r.FormValue("inventory_name"), r.FormValue("description"), photo)
	if err != nil {
		h.handleRegistryError(w, r, err, "register item")
		return
	}

	h.writeJSON(w, http.StatusCreated, h.itemDTO(r, item))
}

// ListItems handles GET /inventory requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.registry.List(r.Context())
	if err != nil {
		h.handleRegistryError(w, r, err, "list items")
		return
	}

	dtos := make([]model.ItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, h.itemDTO(r, &items[i]))
	}

	h.writeJSON(w, http.StatusOK, dtos)
}

// GetItem handles GET /inventory/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.registry.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleRegistryError(w, r, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, h.itemDTO(r, item))
}

// UpdateItem handles PUT /inventory/{id} requests. The JSON body may
// carry inventory_name and description; omitted fields keep their prior
// values, so presence is tracked with pointer fields. An empty body is a
// no-op update.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.registry.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.handleRegistryError(w, r, err, "update item")
		return
	}

	h.writeJSON(w, http.StatusOK, h.itemDTO(r, item))
}

// DeleteItem handles DELETE /inventory/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.handleRegistryError(w, r, err, "delete item")
		return
	}

	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

// GetPhoto handles GET /inventory/{id}/photo requests, serving the raw
// photo bytes. This route answers in plain text on errors: a missing
// item, a missing photo reference and a vanished blob are all 404.
func (h *RESTHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	path, err := h.registry.PhotoPath(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// ReplacePhoto handles PUT /inventory/{id}/photo requests with a required
// multipart photo field.
func (h *RESTHandler) ReplacePhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("invalid multipart form", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	photo, closeUpload, err := formPhoto(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid photo upload")
		return
	}
	defer closeUpload()

	item, err := h.registry.ReplacePhoto(r.Context(), mux.Vars(r)["id"], photo)
	if err != nil {
		h.handleRegistryError(w, r, err, "replace photo")
		return
	}

	h.writeJSON(w, http.StatusOK, PhotoResponse{
		ID:       item.ID,
		PhotoURL: h.itemDTO(r, item).PhotoURL,
		Message:  "Photo updated",
	})
}

// Search handles GET and POST /search requests. The id (required) and
// has_photo flag arrive in the query string for GET and the form body for
// POST. When has_photo is set and the item's photo resolves, the item's
// stored description gains a "Photo: <url>" line — search is a mutating
// operation by contract, not a pure read.
func (h *RESTHandler) Search(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	attach := r.FormValue("has_photo") != ""

	item, err := h.registry.AnnotatePhoto(r.Context(), id, attach, h.photoURL(r, id))
	if err != nil {
		h.handleRegistryError(w, r, err, "search item")
		return
	}

	h.writeJSON(w, http.StatusOK, h.itemDTO(r, item))
}

// handleRegistryError maps registry errors to HTTP responses.
func (h *RESTHandler) handleRegistryError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case errors.Is(err, model.ErrEmptyName):
		h.writeError(w, http.StatusBadRequest, "inventory_name is required")
	case errors.Is(err, registry.ErrMissingPhoto):
		h.writeError(w, http.StatusBadRequest, "photo file is required")
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrInvalidID):
		h.writeError(w, http.StatusNotFound, "Not found")
	default:
		h.logger.Error("registry operation failed",
			zap.String("operation", operation),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// itemDTO shapes an item for a response, deriving photo_url from the
// incoming request's scheme and host. The URL is recomputed on every
// request and set only when the photo currently resolves.
func (h *RESTHandler) itemDTO(r *http.Request, item *model.Item) model.ItemDTO {
	url := ""
	if item.PhotoFile != "" {
		if _, err := h.registry.PhotoPath(r.Context(), item.ID); err == nil {
			url = h.photoURL(r, item.ID)
		}
	}
	return item.DTO(url)
}

// photoURL builds the photo URL an item with the given id would have.
func (h *RESTHandler) photoURL(r *http.Request, id string) string {
	return fmt.Sprintf("%s://%s/inventory/%s/photo", requestScheme(r), r.Host, id)
}

// requestScheme determines the scheme of the incoming request,
// honouring a forwarding proxy's X-Forwarded-Proto header.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}

// formPhoto extracts the optional photo file from a parsed multipart
// form. The returned close function is safe to call unconditionally.
func formPhoto(r *http.Request) (*registry.Upload, func(), error) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}

	upload := &registry.Upload{
		Filename: header.Filename,
		Data:     file,
	}
	return upload, func() { _ = file.Close() }, nil
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes a JSON error body with the given status code.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
