package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/votehubph/backend/internal/models"
)

// StorageKey is the fixed key a persisted selection lives under.
const StorageKey = "browse_selected_location"

// Store persists the last manual selection. Load reports false when nothing is stored.
type Store interface {
	Load(ctx context.Context) (models.LocationSelection, bool, error)
	Save(ctx context.Context, sel models.LocationSelection) error
	Clear(ctx context.Context) error
}

type MemoryStore struct {
	mu  sync.Mutex
	sel *models.LocationSelection

	Saves int
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(ctx context.Context) (models.LocationSelection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sel == nil {
		return models.LocationSelection{}, false, nil
	}
	return *m.sel, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, sel models.LocationSelection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	m.sel = &sel
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel = nil
	return nil
}

// FileStore keeps the selection in a small JSON document keyed by StorageKey.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) read() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStore) write(doc map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Load(ctx context.Context) (models.LocationSelection, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return models.LocationSelection{}, false, err
	}
	raw, ok := doc[StorageKey]
	if !ok {
		return models.LocationSelection{}, false, nil
	}
	var sel models.LocationSelection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return models.LocationSelection{}, false, fmt.Errorf("parse %s: %w", StorageKey, err)
	}
	return sel, !sel.IsZero(), nil
}

func (f *FileStore) Save(ctx context.Context, sel models.LocationSelection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	doc[StorageKey] = raw
	return f.write(doc)
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[StorageKey]; !ok {
		return nil
	}
	delete(doc, StorageKey)
	return f.write(doc)
}
