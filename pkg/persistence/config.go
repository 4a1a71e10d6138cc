package persistence

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// SnapshotVersion is the current snapshot file format version.
const SnapshotVersion = 1

var (
	// ErrVersion is returned for snapshots written by a newer format.
	ErrVersion = errors.New("unsupported snapshot version")

	// ErrNoDocument is returned for snapshots without a configuration document.
	ErrNoDocument = errors.New("snapshot has no configuration document")
)

// Snapshot is one saved configuration.
type Snapshot struct {
	Version int       `yaml:"version"`
	SavedAt time.Time `yaml:"savedAt"`
	Port    string    `yaml:"port,omitempty"`
	Session string    `yaml:"session,omitempty"`
	Driver  string    `yaml:"driver,omitempty"`

	// Document is the configuration dumped from the tree.
	Document yaml.Node `yaml:"document,omitempty"`
}

// SetDocument parses data and stores it as the embedded document.
func (s *Snapshot) SetDocument(data []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config document: %w", err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		s.Document = *doc.Content[0]
		return nil
	}
	s.Document = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return nil
}

// HasDocument reports whether a configuration document is embedded.
func (s *Snapshot) HasDocument() bool {
	return s.Document.Kind != 0
}

// DocumentBytes renders the embedded document.
func (s *Snapshot) DocumentBytes() ([]byte, error) {
	if !s.HasDocument() {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&s.Document); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SnapshotStore reads and writes one snapshot file.
type SnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewSnapshotStore creates a store for path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Save writes the snapshot, creating parent directories.
func (s *SnapshotStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	snap.Version = SnapshotVersion
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}

	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}

	// Write through a temporary file so a failed save keeps the old one.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the snapshot. It returns nil, nil if the file does not exist.
func (s *SnapshotStore) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if err := yaml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, snap.Version)
	}
	return snap, nil
}

// Clear removes the snapshot file.
func (s *SnapshotStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
