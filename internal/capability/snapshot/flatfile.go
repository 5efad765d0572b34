package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FlatFileWorld is a WorldAccess adapter for worlds whose region contents are
// materialised as one file per region under a directory. Game-engine adapters
// implementing the same interface can be swapped in at startup.
type FlatFileWorld struct {
	mu  sync.Mutex
	dir string
}

func NewFlatFileWorld(dir string) (*FlatFileWorld, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty world dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FlatFileWorld{dir: dir}, nil
}

func (w *FlatFileWorld) path(region string) string {
	return filepath.Join(w.dir, region+".region")
}

func (w *FlatFileWorld) Export(region string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, err := os.ReadFile(w.path(region))
	if os.IsNotExist(err) {
		// A region that was never built in exports as empty.
		return nil, nil
	}
	return data, err
}

func (w *FlatFileWorld) Import(region string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(data) == 0 {
		err := os.Remove(w.path(region))
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	tmp := w.path(region) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, w.path(region))
}
