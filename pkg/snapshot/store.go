package snapshot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const ext = ".json"

// Store is the interface for snapshot storage backends.
type Store interface {
	// Put stores s under s.Name, replacing any previous snapshot.
	Put(ctx context.Context, s *Snapshot) error

	// Get loads a snapshot by name. It returns ErrNotFound if there is none.
	Get(ctx context.Context, name string) (*Snapshot, error)

	// List returns stored snapshot names in sorted order.
	List(ctx context.Context) ([]string, error)
}

// DiskStore stores snapshots as JSON files in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore, creating dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *DiskStore) Dir() string { return s.dir }

// Put writes the snapshot to <dir>/<name>.json.
func (s *DiskStore) Put(ctx context.Context, snap *Snapshot) error {
	if err := validName(snap.Name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, snap.Name+ext))
}

// Get reads <dir>/<name>.json.
func (s *DiskStore) Get(ctx context.Context, name string) (*Snapshot, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name+ext))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// List returns the names of all .json files in the directory.
func (s *DiskStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ext); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

var _ Store = (*DiskStore)(nil)
