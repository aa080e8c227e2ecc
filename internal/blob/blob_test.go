package blob

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDirStore(t *testing.T) {
	// Arrange
	dir := filepath.Join(t.TempDir(), "photos")

	// Act
	store, err := NewDirStore(dir)

	// Assert
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}
	if store == nil {
		t.Fatal("NewDirStore() returned nil")
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("base directory should be created")
	}
}

func TestDirStore_SaveAndPath(t *testing.T) {
	// Arrange
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}

	// Act
	if err := store.Save("photo.jpg", strings.NewReader("jpeg bytes")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	path, err := store.Path("photo.jpg")

	// Assert
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading blob: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("blob content = %q, want %q", data, "jpeg bytes")
	}
}

func TestDirStore_Save_Overwrites(t *testing.T) {
	// Arrange
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}
	if err := store.Save("photo.jpg", strings.NewReader("old")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Act
	if err := store.Save("photo.jpg", strings.NewReader("new")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Assert
	path, err := store.Path("photo.jpg")
	if err != nil {
		t.Fatalf("Path() error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("blob content = %q, want %q", data, "new")
	}
}

func TestDirStore_Path_NotFound(t *testing.T) {
	// Arrange
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}

	// Act
	_, err = store.Path("missing.jpg")

	// Assert
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Path() error = %v, want ErrNotFound", err)
	}
}

func TestDirStore_Remove(t *testing.T) {
	// Arrange
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}
	if err := store.Save("photo.jpg", strings.NewReader("bytes")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Act
	if err := store.Remove("photo.jpg"); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}

	// Assert
	if _, err := store.Path("photo.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Path() after Remove() = %v, want ErrNotFound", err)
	}
}

func TestDirStore_Remove_Missing(t *testing.T) {
	// Arrange
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}

	// Act
	err = store.Remove("missing.jpg")

	// Assert - removal of an absent blob reports an error; callers decide
	// whether it matters
	if err == nil {
		t.Error("Remove() of missing blob should return an error")
	}
}

func TestDirStore_InvalidNames(t *testing.T) {
	tests := []struct {
		name     string
		blobName string
	}{
		{name: "empty name", blobName: ""},
		{name: "path traversal", blobName: "../escape.jpg"},
		{name: "nested path", blobName: "sub/photo.jpg"},
	}

	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			saveErr := store.Save(tt.blobName, strings.NewReader("x"))
			_, pathErr := store.Path(tt.blobName)

			// Assert
			if saveErr == nil {
				t.Error("Save() should reject invalid name")
			}
			if pathErr == nil {
				t.Error("Path() should reject invalid name")
			}
		})
	}
}
