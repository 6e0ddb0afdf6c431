package objstore

import (
	"bytes"
	"context"
	"io"
	"sort"
)

// MemStore is a trivial in-memory ObjectStore, grounded on the same
// shape as the Postgres store but backed by plain maps. It is used by
// the engine's unit and scenario tests. File-content overrides do not
// pass through it; the scheduler reads them from its own Overrides map.
type MemStore struct {
	blobs   map[ObjectID][]byte
	commits map[ObjectID]*CommitInfo
	trees   map[ObjectID][]TreeEntry
	head    ObjectID
	hasHead bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		blobs:   make(map[ObjectID][]byte),
		commits: make(map[ObjectID]*CommitInfo),
		trees:   make(map[ObjectID][]TreeEntry),
	}
}

// PutBlob registers content under id.
func (m *MemStore) PutBlob(id ObjectID, content []byte) {
	m.blobs[id] = content
}

// PutCommit registers a commit's metadata and tree. entries should
// already be filtered to blameable kinds by the caller (as the real
// store's Tree implementation does).
func (m *MemStore) PutCommit(info CommitInfo, entries []TreeEntry) {
	cp := info
	m.commits[info.ID] = &cp
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	m.trees[info.ID] = sorted
}

// SetHead sets the repository head commit.
func (m *MemStore) SetHead(id ObjectID) {
	m.head = id
	m.hasHead = true
}

func (m *MemStore) Size(_ context.Context, id ObjectID) (int64, error) {
	b, ok := m.blobs[id]
	if !ok {
		return 0, &ErrMissingObject{ID: id}
	}
	return int64(len(b)), nil
}

func (m *MemStore) Open(_ context.Context, id ObjectID) (io.ReadCloser, error) {
	b, ok := m.blobs[id]
	if !ok {
		return nil, &ErrMissingObject{ID: id}
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *MemStore) Commit(_ context.Context, id ObjectID) (*CommitInfo, error) {
	c, ok := m.commits[id]
	if !ok {
		return nil, &ErrMissingObject{ID: id}
	}
	return c, nil
}

func (m *MemStore) Tree(_ context.Context, commit ObjectID) ([]TreeEntry, error) {
	entries, ok := m.trees[commit]
	if !ok {
		return nil, &ErrMissingObject{ID: commit}
	}
	out := make([]TreeEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *MemStore) Head(_ context.Context) (ObjectID, bool, error) {
	return m.head, m.hasHead, nil
}
