// Package config provides configuration management for the inventory server.
package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		EnvServerHost,
		EnvServerPort,
		EnvCacheDir,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
	} {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerHost != DefaultServerHost {
		t.Errorf("ServerHost = %s, want %s", cfg.ServerHost, DefaultServerHost)
	}
	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.CacheDir != DefaultCacheDir {
		t.Errorf("CacheDir = %s, want %s", cfg.CacheDir, DefaultCacheDir)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name: "custom server host and port",
			envVars: map[string]string{
				EnvServerHost: "127.0.0.1",
				EnvServerPort: "9090",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerHost != "127.0.0.1" {
					t.Errorf("ServerHost = %s, want 127.0.0.1", cfg.ServerHost)
				}
				if cfg.ServerPort != 9090 {
					t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
				}
			},
		},
		{
			name: "custom cache dir",
			envVars: map[string]string{
				EnvCacheDir: "/var/lib/inventory",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.CacheDir != "/var/lib/inventory" {
					t.Errorf("CacheDir = %s, want /var/lib/inventory", cfg.CacheDir)
				}
			},
		},
		{
			name: "custom log level",
			envVars: map[string]string{
				EnvLogLevel: "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom shutdown timeout",
			envVars: map[string]string{
				EnvShutdownTimeout: "5s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 5*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name: "metrics disabled",
			envVars: map[string]string{
				EnvMetricsEnabled: "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "non-numeric port",
			envVars: map[string]string{EnvServerPort: "abc"},
		},
		{
			name:    "port out of range",
			envVars: map[string]string{EnvServerPort: "70000"},
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "verbose"},
		},
		{
			name:    "invalid shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "soon"},
		},
		{
			name:    "invalid metrics flag",
			envVars: map[string]string{EnvMetricsEnabled: "maybe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			_, err := Load()

			// Assert
			if err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid defaults",
			mutate:  func(_ *Config) {},
			wantErr: nil,
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.ServerPort = 0 },
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "empty cache dir",
			mutate:  func(c *Config) { c.CacheDir = "" },
			wantErr: ErrEmptyCacheDir,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "non-positive shutdown timeout",
			mutate:  func(c *Config) { c.ShutdownTimeout = 0 },
			wantErr: ErrInvalidShutdownTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := &Config{
				ServerHost:      DefaultServerHost,
				ServerPort:      DefaultServerPort,
				CacheDir:        DefaultCacheDir,
				LogLevel:        DefaultLogLevel,
				ShutdownTimeout: DefaultShutdownTimeout,
			}
			tt.mutate(cfg)

			// Act
			err := cfg.Validate()

			// Assert
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DerivedPaths(t *testing.T) {
	// Arrange
	cfg := &Config{ServerHost: "localhost", ServerPort: 8080, CacheDir: "/tmp/cache"}

	// Act / Assert
	if got := cfg.Address(); got != "localhost:8080" {
		t.Errorf("Address() = %s, want localhost:8080", got)
	}
	if got := cfg.InventoryFile(); got != filepath.Join("/tmp/cache", "inventory.json") {
		t.Errorf("InventoryFile() = %s", got)
	}
	if got := cfg.PhotoDir(); got != filepath.Join("/tmp/cache", "photos") {
		t.Errorf("PhotoDir() = %s", got)
	}
}
