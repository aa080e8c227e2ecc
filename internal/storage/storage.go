// Package storage persists the item collection as a single JSON document.
package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mkravets/inventory-service/internal/model"
)

// Store defines the interface for durable item-collection storage.
type Store interface {
	// Load reads the full item collection. A missing, unreadable or
	// malformed document yields an empty collection, never an error.
	Load() ([]model.Item, error)

	// Save writes the full item collection, replacing prior content.
	Save(items []model.Item) error
}

// FileStore implements Store with a single JSON file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a FileStore backed by the file at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Load reads the item collection from disk. Startup tolerates any prior
// state: no file, unreadable file and malformed JSON all mean "no prior
// data" and produce an empty collection.
func (s *FileStore) Load() ([]model.Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("inventory document unreadable, starting empty",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return []model.Item{}, nil
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("inventory document malformed, starting empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return []model.Item{}, nil
	}

	if items == nil {
		items = []model.Item{}
	}

	return items, nil
}

// Save writes the full item collection to disk. Unlike Load, write
// failures propagate: the caller's mutation is not durable and must not
// be reported as successful.
func (s *FileStore) Save(items []model.Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory document: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write inventory document: %w", err)
	}

	return nil
}
