package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KV is the durable key-value capability the conversation log is mirrored to.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config holds history storage configuration.
type Config struct {
	Enabled bool   `mapstructure:"enabled"` // Master switch
	Backend string `mapstructure:"backend"` // sqlite, file or memory
	Path    string `mapstructure:"path"`    // Override database file or directory
}

// DefaultConfig returns the default history configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Backend: "sqlite",
	}
}

// GetDataDir returns the XDG data directory for newsiq.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "newsiq"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "newsiq"), nil
}

// OpenKV opens the backend selected by cfg. Disabled history gets a NoopKV.
func OpenKV(cfg Config) (KV, error) {
	if !cfg.Enabled {
		return NoopKV{}, nil
	}

	path := cfg.Path
	if path == "" && cfg.Backend != "memory" {
		dataDir, err := GetDataDir()
		if err != nil {
			return nil, err
		}
		path = dataDir
		if cfg.Backend == "" || cfg.Backend == "sqlite" {
			path = filepath.Join(dataDir, "history.db")
		}
	}

	switch cfg.Backend {
	case "", "sqlite":
		return NewSQLiteKV(path)
	case "file":
		return NewFileKV(path)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q (want sqlite, file or memory)", cfg.Backend)
	}
}

// MemoryKV keeps values in process memory.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Close() error { return nil }

// NoopKV stores nothing. Used when history is disabled.
type NoopKV struct{}

func (NoopKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopKV) Set(context.Context, string, []byte) error         { return nil }
func (NoopKV) Delete(context.Context, string) error              { return nil }
func (NoopKV) Close() error                                      { return nil }
