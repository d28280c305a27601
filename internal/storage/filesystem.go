package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/andyleap/finchconnect/internal/models"
)

type FilesystemStorage struct {
	basePath string
	mu       sync.Mutex
}

func NewFilesystemStorage(basePath string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path %s: %w", basePath, err)
	}

	return &FilesystemStorage{
		basePath: basePath,
	}, nil
}

func (f *FilesystemStorage) path() string {
	return filepath.Join(f.basePath, "connection.json")
}

func (f *FilesystemStorage) SetConnectionToken(ctx context.Context, token string) error {
	data, err := json.MarshalIndent(newConnection(token), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// write then rename so readers never see a partial file
	tmp := f.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write connection file: %w", err)
	}
	if err := os.Rename(tmp, f.path()); err != nil {
		return fmt.Errorf("failed to replace connection file: %w", err)
	}

	return nil
}

func (f *FilesystemStorage) GetConnection(ctx context.Context) (*models.Connection, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path())
	f.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read connection file: %w", err)
	}

	var conn models.Connection
	if err := json.Unmarshal(data, &conn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}

	return &conn, nil
}
