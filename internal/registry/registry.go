// Package registry holds the authoritative in-memory item collection and
// the operations over it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/mkravets/inventory-service/internal/blob"
	"github.com/mkravets/inventory-service/internal/model"
	"github.com/mkravets/inventory-service/internal/storage"
)

// Registry errors.
var (
	ErrNotFound     = errors.New("item not found")
	ErrInvalidID    = errors.New("invalid item ID")
	ErrMissingPhoto = errors.New("photo file is required")
)

var inventoryItems = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "inventory_items",
		Help: "Number of items currently in the inventory",
	},
)

// Upload is a photo submitted with a create or photo-replace operation.
type Upload struct {
	Filename string
	Data     io.Reader
}

// Notifier receives a change event after every successful mutation.
type Notifier interface {
	Notify(event model.ChangeEvent)
}

// Registry is the in-memory item collection. Items are kept in insertion
// order, which is the order List returns. Every mutation persists the
// full collection before returning, so a successful result means the
// change is on disk. Mutations hold the write lock across the whole
// read-modify-persist sequence; a persist failure leaves memory ahead of
// disk until the next successful mutation.
type Registry struct {
	mu       sync.RWMutex
	items    []model.Item
	blobs    blob.Store
	store    storage.Store
	logger   *zap.Logger
	notifier Notifier
}

// New creates a Registry, loading any previously persisted collection.
func New(blobs blob.Store, store storage.Store, logger *zap.Logger) (*Registry, error) {
	items, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	inventoryItems.Set(float64(len(items)))

	return &Registry{
		items:  items,
		blobs:  blobs,
		store:  store,
		logger: logger,
	}, nil
}

// SetNotifier registers the receiver of change events. Must be called
// before the registry starts serving requests.
func (r *Registry) SetNotifier(n Notifier) {
	r.notifier = n
}

// Create adds a new item, storing the photo blob first when one is
// supplied. The new id is one plus the highest numeric id currently in
// the collection, so deleting the highest-numbered item frees its id.
func (r *Registry) Create(ctx context.Context, name, description string, photo *Upload) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	item := model.Item{
		Name:        name,
		Description: description,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = strconv.Itoa(r.nextIDLocked())

	if photo != nil {
		filename := newPhotoFilename(photo.Filename)
		if err := r.blobs.Save(filename, photo.Data); err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}
		item.PhotoFile = filename
	}

	r.items = append(r.items, item)

	if err := r.store.Save(r.items); err != nil {
		return nil, err
	}

	inventoryItems.Set(float64(len(r.items)))
	r.notify(model.ChangeCreated, item.ID)

	return &item, nil
}

// List returns all items in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Item, len(r.items))
	copy(items, r.items)

	return items, nil
}

// Get retrieves an item by its ID.
func (r *Registry) Get(ctx context.Context, id string) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	item := r.items[i]
	return &item, nil
}

// Update overwrites the fields the patch supplies and keeps the rest.
// Supplied values are applied verbatim; in particular the name is not
// re-validated, so an update may blank it.
func (r *Registry) Update(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	if patch.Name != nil {
		r.items[i].Name = *patch.Name
	}
	if patch.Description != nil {
		r.items[i].Description = *patch.Description
	}

	if err := r.store.Save(r.items); err != nil {
		return nil, err
	}

	r.notify(model.ChangeUpdated, id)

	item := r.items[i]
	return &item, nil
}

// Delete removes an item. Its photo blob, if any, is removed best-effort:
// a failed blob deletion never fails the operation.
func (r *Registry) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}

	r.removeBlobLocked(r.items[i].PhotoFile)
	r.items = append(r.items[:i], r.items[i+1:]...)

	if err := r.store.Save(r.items); err != nil {
		return err
	}

	inventoryItems.Set(float64(len(r.items)))
	r.notify(model.ChangeDeleted, id)

	return nil
}

// PhotoPath resolves the on-disk path of an item's photo. A missing item,
// an item without a photo and a photo whose blob has vanished from disk
// all collapse to ErrNotFound.
func (r *Registry) PhotoPath(ctx context.Context, id string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("photo path: %w", ctx.Err())
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexLocked(id)
	if i < 0 || r.items[i].PhotoFile == "" {
		return "", ErrNotFound
	}

	path, err := r.blobs.Path(r.items[i].PhotoFile)
	if err != nil {
		return "", ErrNotFound
	}

	return path, nil
}

// ReplacePhoto swaps an item's photo. The prior blob, if any, is removed
// best-effort before the new one is stored.
func (r *Registry) ReplacePhoto(ctx context.Context, id string, photo *Upload) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("replace photo: %w", ctx.Err())
	default:
	}

	if photo == nil {
		return nil, ErrMissingPhoto
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	r.removeBlobLocked(r.items[i].PhotoFile)

	filename := newPhotoFilename(photo.Filename)
	if err := r.blobs.Save(filename, photo.Data); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}
	r.items[i].PhotoFile = filename

	if err := r.store.Save(r.items); err != nil {
		return nil, err
	}

	r.notify(model.ChangePhotoUpdated, id)

	item := r.items[i]
	return &item, nil
}

// AnnotatePhoto backs the search operation. When attach is set and the
// item's photo resolves, the stored description is extended in place with
// a "Photo: <url>" line and persisted — search deliberately mutates state
// here, preserving the service's long-standing contract. photoURL is the
// externally computed URL for the item's photo.
func (r *Registry) AnnotatePhoto(ctx context.Context, id string, attach bool, photoURL string) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("annotate photo: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	if attach && r.items[i].PhotoFile != "" {
		if _, err := r.blobs.Path(r.items[i].PhotoFile); err == nil {
			r.items[i].Description += "\nPhoto: " + photoURL

			if err := r.store.Save(r.items); err != nil {
				return nil, err
			}

			r.notify(model.ChangeUpdated, id)
		}
	}

	item := r.items[i]
	return &item, nil
}

// nextIDLocked computes the next item id from the current collection:
// one plus the highest numeric id present, 1 when empty.
func (r *Registry) nextIDLocked() int {
	maxID := 0
	for _, item := range r.items {
		if n, err := strconv.Atoi(item.ID); err == nil && n > maxID {
			maxID = n
		}
	}
	return maxID + 1
}

// indexLocked returns the position of the item with the given id, or -1.
func (r *Registry) indexLocked(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

// removeBlobLocked deletes a photo blob best-effort. A blob that is
// already gone, or cannot be removed, is logged and otherwise ignored.
func (r *Registry) removeBlobLocked(filename string) {
	if filename == "" {
		return
	}
	if err := r.blobs.Remove(filename); err != nil {
		r.logger.Debug("failed to remove photo blob",
			zap.String("filename", filename),
			zap.Error(err),
		)
	}
}

// notify publishes a change event to the registered notifier, if any.
func (r *Registry) notify(changeType model.ChangeType, id string) {
	if r.notifier != nil {
		r.notifier.Notify(model.NewChangeEvent(changeType, id))
	}
}

// newPhotoFilename generates an opaque blob filename, preserving the
// uploaded file's extension so served content keeps a sensible suffix.
func newPhotoFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return uuid.New().String() + ext
}
