package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
)

const (
	objectsDir = "objects"
	indexFile  = "index.json"
)

// Snapshot is a stored, content-addressed version of a dataset.
type Snapshot struct {
	ID        string    `json:"id"` // content hash
	Tag       string    `json:"tag,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	Products  []string  `json:"products"`
}

type snapshotIndex struct {
	Snapshots []Snapshot `json:"snapshots"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store keeps dataset snapshots on disk, one object per distinct content hash.
type Store struct {
	mu      sync.RWMutex
	rootDir string
	index   *snapshotIndex
}

// NewStore creates or opens a snapshot store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}

	if err := os.MkdirAll(filepath.Join(rootDir, objectsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", rootDir, err)
	}

	if err := s.loadIndex(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load snapshot index: %w", err)
		}
		s.index = &snapshotIndex{Snapshots: []Snapshot{}, UpdatedAt: time.Now()}
	}
	return s, nil
}

// Put stores doc. Storing identical content twice returns the existing
// snapshot, retagged when tag is non-empty.
func (s *Store) Put(doc ontology.Document, tag, source string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ContentHash(doc)
	for i, snap := range s.index.Snapshots {
		if snap.ID != id {
			continue
		}
		if tag != "" && snap.Tag != tag {
			s.index.Snapshots[i].Tag = tag
			s.index.UpdatedAt = time.Now()
			if err := s.saveIndex(); err != nil {
				return Snapshot{}, err
			}
		}
		return s.index.Snapshots[i], nil
	}

	data, err := json.Marshal(Canonical(doc))
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal dataset: %w", err)
	}
	if err := s.writeObject(id, data); err != nil {
		return Snapshot{}, fmt.Errorf("store object %s: %w", id, err)
	}

	snap := Snapshot{
		ID:        id,
		Tag:       tag,
		Source:    source,
		CreatedAt: time.Now(),
		Nodes:     len(doc.Nodes),
		Edges:     len(doc.Edges),
		Products:  products(doc),
	}
	s.index.Snapshots = append(s.index.Snapshots, snap)
	s.index.UpdatedAt = snap.CreatedAt
	if err := s.saveIndex(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Get loads the document stored under id. A unique id prefix is accepted.
func (s *Store) Get(id string) (ontology.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	full, err := s.resolve(id)
	if err != nil {
		return ontology.Document{}, err
	}
	data, err := s.readObject(full)
	if err != nil {
		return ontology.Document{}, fmt.Errorf("read snapshot %s: %w", full, err)
	}
	var doc ontology.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ontology.Document{}, fmt.Errorf("unmarshal snapshot %s: %w", full, err)
	}
	return doc, nil
}

// List returns all snapshots, newest first.
func (s *Store) List() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Snapshot, len(s.index.Snapshots))
	copy(result, s.index.Snapshots)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// FindByTag returns the snapshot with the given tag.
func (s *Store) FindByTag(tag string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.index.Snapshots {
		if snap.Tag == tag {
			return snap, nil
		}
	}
	return Snapshot{}, fmt.Errorf("snapshot with tag %q not found", tag)
}

// Delete removes a snapshot and its object.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	full, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := os.Remove(s.objectPath(full)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot object: %w", err)
	}

	filtered := s.index.Snapshots[:0]
	for _, snap := range s.index.Snapshots {
		if snap.ID != full {
			filtered = append(filtered, snap)
		}
	}
	s.index.Snapshots = filtered
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// resolve expands an id prefix. Callers hold the lock.
func (s *Store) resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("snapshot id is empty")
	}
	var found string
	for _, snap := range s.index.Snapshots {
		if len(id) > len(snap.ID) || snap.ID[:len(id)] != id {
			continue
		}
		if found != "" {
			return "", fmt.Errorf("snapshot id %q is ambiguous", id)
		}
		found = snap.ID
	}
	if found == "" {
		return "", fmt.Errorf("snapshot %q not found", id)
	}
	return found, nil
}

func (s *Store) objectPath(hash string) string {
	return filepath.Join(s.rootDir, objectsDir, hash[:2], hash[2:]+".json")
}

// writeObject stores content by its hash.
func (s *Store) writeObject(hash string, content []byte) error {
	path := s.objectPath(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, content, 0o644)
}

func (s *Store) readObject(hash string) ([]byte, error) {
	return os.ReadFile(s.objectPath(hash))
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &snapshotIndex{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}

func products(doc ontology.Document) []string {
	set := make(map[string]bool)
	for _, n := range doc.Nodes {
		set[n.Product] = true
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
