// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"
)

// Validation errors for Item.
var (
	ErrEmptyName = errors.New("inventory_name cannot be empty")
)

// Item is a single inventory record. PhotoFile is the internal blob
// filename and is what gets persisted; the externally visible photo URL
// is derived per request and never stored.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"inventory_name"`
	Description string `json:"description"`
	PhotoFile   string `json:"photo_file,omitempty"`
}

// Validate checks the creation preconditions for an Item.
// Only creation validates the name; updates apply fields verbatim.
func (i *Item) Validate() error {
	if i.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// ItemPatch carries the fields of a partial update. A nil pointer means
// the field was omitted and the prior value is kept; a pointer to the
// empty string overwrites.
type ItemPatch struct {
	Name        *string `json:"inventory_name"`
	Description *string `json:"description"`
}

// ItemDTO is the externally visible representation of an Item.
// PhotoURL is null unless the item's photo currently resolves.
type ItemDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"inventory_name"`
	Description string  `json:"description"`
	PhotoURL    *string `json:"photo_url"`
}

// DTO builds the external representation of the item. photoURL is the
// fully computed URL for the item's photo, or empty when the photo does
// not resolve.
func (i *Item) DTO(photoURL string) ItemDTO {
	dto := ItemDTO{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
	}
	if photoURL != "" {
		dto.PhotoURL = &photoURL
	}
	return dto
}

// ChangeType identifies the kind of mutation an inventory change event
// describes.
type ChangeType string

// Inventory change event types.
const (
	ChangeCreated      ChangeType = "created"
	ChangeUpdated      ChangeType = "updated"
	ChangeDeleted      ChangeType = "deleted"
	ChangePhotoUpdated ChangeType = "photo_updated"
)

// ChangeEvent is broadcast to event-stream subscribers after every
// successful registry mutation.
type ChangeEvent struct {
	Type      ChangeType `json:"type"`
	ItemID    string     `json:"item_id"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewChangeEvent creates a change event stamped with the current time.
func NewChangeEvent(changeType ChangeType, itemID string) ChangeEvent {
	return ChangeEvent{
		Type:      changeType,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
	}
}
