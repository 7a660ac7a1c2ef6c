package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/COROTANjayson/readify/internal/config"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

// Store keeps uploaded documents and generated decks as opaque blobs.
// Open and Delete report appErr.ErrNotFound for unknown keys.
type Store interface {
	Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// UploadKey names the stored source document of a file.
func UploadKey(fileID string) string {
	return fileID + ".pdf"
}

// DeckKey names the rendered presentation of a file. A file has at most one
// deck, so regeneration overwrites the same key.
func DeckKey(fileID string) string {
	return "presentation-" + fileID + ".pptx"
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,199}$`)

// ValidateKey accepts flat names only, so a key never escapes its backend
// root or prefix.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: invalid blob key %q", appErr.ErrInvalid, key)
	}
	return nil
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.FileStoreConfig) (Store, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Type))
	registryMu.RLock()
	factory, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported file store type %q", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
