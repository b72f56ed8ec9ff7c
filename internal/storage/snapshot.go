package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minhpq/microsql/internal/record"
)

// Snapshot is the full serialized state of one database: every table's rows
// plus its catalog entry. There is no version field; absent sections load
// as empty.
type Snapshot struct {
	Tables        map[string][]record.Row  `json:"tables"`
	Schemas       map[string]record.Schema `json:"schemas"`
	PrimaryKeys   map[string]string        `json:"primary_keys"`
	UniqueColumns map[string][]string      `json:"unique_columns"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Tables:        make(map[string][]record.Row),
		Schemas:       make(map[string]record.Schema),
		PrimaryKeys:   make(map[string]string),
		UniqueColumns: make(map[string][]string),
	}
}

// Manager loads and saves the snapshot file of one database. The file is
// named after the database and rewritten whole after every mutation.
type Manager struct {
	path string
}

func NewManager(dir, name string) *Manager {
	return &Manager{path: filepath.Join(dir, name+".json")}
}

func (m *Manager) Path() string { return m.path }

// Load reads the snapshot file. A missing file yields an empty snapshot and
// no error; a malformed file yields the parse error, and the caller decides
// whether to start empty.
func (m *Manager) Load() (*Snapshot, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("storage: read snapshot: %w", err)
	}

	snap := NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("storage: parse snapshot: %w", err)
	}

	// Absent sections unmarshal to nil; normalize so callers can range
	// and assign without nil checks.
	if snap.Tables == nil {
		snap.Tables = make(map[string][]record.Row)
	}
	if snap.Schemas == nil {
		snap.Schemas = make(map[string]record.Schema)
	}
	if snap.PrimaryKeys == nil {
		snap.PrimaryKeys = make(map[string]string)
	}
	if snap.UniqueColumns == nil {
		snap.UniqueColumns = make(map[string][]string)
	}
	return snap, nil
}

// Save serializes the snapshot and replaces the file atomically: write to a
// temp file in the same directory, then rename over the target.
func (m *Manager) Save(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: ensure dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: replace snapshot: %w", err)
	}
	return nil
}
