package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Snapshot is the persisted form of the cart.
type Snapshot struct {
	Items         []Item  `json:"items"`
	TotalQuantity uint    `json:"totalQuantity"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Store persists cart snapshots. Load returns (nil, nil) when no snapshot
// exists yet.
type Store interface {
	Save(Snapshot) error
	Load() (*Snapshot, error)
}

// FileStore keeps the snapshot as a single JSON document, the local-storage
// equivalent for a non-browser client.
type FileStore struct {
	Path string
}

func (s *FileStore) Save(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return &snap, nil
}
