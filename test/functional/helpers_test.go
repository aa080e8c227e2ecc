//go:build functional

// Package functional provides functional tests for the inventory API.
package functional

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mkravets/inventory-service/internal/blob"
	"github.com/mkravets/inventory-service/internal/config"
	"github.com/mkravets/inventory-service/internal/registry"
	"github.com/mkravets/inventory-service/internal/server"
	"github.com/mkravets/inventory-service/internal/storage"
)

// testEnv is a fully assembled service behind an httptest server.
type testEnv struct {
	baseURL string
	client  *http.Client
}

// startTestServer assembles the real stores, registry and router over a
// temporary cache directory and serves them over HTTP.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	blobs, err := blob.NewDirStore(filepath.Join(dir, "photos"))
	if err != nil {
		t.Fatalf("NewDirStore() error: %v", err)
	}
	store := storage.NewFileStore(filepath.Join(dir, "inventory.json"), zap.NewNop())
	reg, err := registry.New(blobs, store, zap.NewNop())
	if err != nil {
		t.Fatalf("registry.New() error: %v", err)
	}

	cfg := &config.Config{
		ServerHost:      "localhost",
		ServerPort:      8080,
		CacheDir:        dir,
		LogLevel:        "error",
		ShutdownTimeout: 5 * time.Second,
		MetricsEnabled:  false,
	}

	srv := server.New(cfg, zap.NewNop(), reg)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{
		baseURL: ts.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// do issues a request and returns the response; the caller owns the body.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.baseURL+path, body)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// register POSTs a multipart /register request.
func (e *testEnv) register(t *testing.T, name, description, photoContent string) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if name != "" {
		if err := writer.WriteField("inventory_name", name); err != nil {
			t.Fatalf("WriteField() error: %v", err)
		}
	}
	if description != "" {
		if err := writer.WriteField("description", description); err != nil {
			t.Fatalf("WriteField() error: %v", err)
		}
	}
	if photoContent != "" {
		part, err := writer.CreateFormFile("photo", "photo.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile() error: %v", err)
		}
		if _, err := io.Copy(part, strings.NewReader(photoContent)); err != nil {
			t.Fatalf("writing photo part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	return e.do(t, http.MethodPost, "/register", body, writer.FormDataContentType())
}

// photoForm builds a multipart body carrying only a photo file.
func photoForm(t *testing.T, content string) (io.Reader, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		t.Fatalf("CreateFormFile() error: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(content)); err != nil {
		t.Fatalf("writing photo part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

// decodeJSON decodes and closes a response body.
func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// readBody reads and closes a response body.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(data)
}
