// Package objstore defines the object-store collaborator contract the
// blame engine consumes (§6) and provides two implementations: an
// in-memory store used by tests and small inputs, and a Postgres-backed
// store adapted from the teacher repository's internal/db package,
// generalized from a single-parent chain to a full multi-parent commit
// graph.
package objstore

import (
	"context"
	"io"
	"time"
)

// ObjectID is an opaque immutable identifier for a blob or a commit.
// The zero value is the sentinel "working directory" blob id.
type ObjectID string

// IsZero reports whether id is the working-directory sentinel.
func (id ObjectID) IsZero() bool { return id == "" }

// EntryKind distinguishes the tree-entry types the comparator and
// rename detector care about. Symlinks and submodules (gitlinks) are
// filtered out at tree-enumeration time for blame targets, but the type
// itself is still needed to evaluate mode-compatibility during rename
// detection of co-located entries.
type EntryKind int

const (
	KindRegular EntryKind = iota
	KindSymlink
	KindGitlink
)

// TreeEntry is one file in a commit's tree.
type TreeEntry struct {
	Path string
	Kind EntryKind
	Blob ObjectID
}

// CommitInfo describes a commit as the object store reports it.
type CommitInfo struct {
	ID            ObjectID
	ParentIDs     []ObjectID
	CommitTime    int32 // signed 32-bit seconds since epoch
	AuthorEmail   string
	CommitterDate time.Time
}

// ObjectStore is the external collaborator the blame engine consumes.
// It is deliberately out of the core's scope: the engine only ever
// calls these five methods.
type ObjectStore interface {
	// Size returns the byte length of a blob without loading it. The
	// rename detector does not call it; it loads full content instead.
	Size(ctx context.Context, id ObjectID) (int64, error)
	// Open returns a stream over a blob's bytes. Callers must Close it.
	Open(ctx context.Context, id ObjectID) (io.ReadCloser, error)
	// Commit resolves a commit's metadata.
	Commit(ctx context.Context, id ObjectID) (*CommitInfo, error)
	// Tree enumerates a commit's tree, already filtered to entries whose
	// Kind the caller can blame (regular files; symlinks/submodules are
	// excluded upstream of the engine).
	Tree(ctx context.Context, commit ObjectID) ([]TreeEntry, error)
	// Head resolves the repository's head commit. Returns ok=false if
	// there is no resolvable head (§7, No-head).
	Head(ctx context.Context) (id ObjectID, ok bool, err error)
}

// ReadAll is a convenience wrapper reading a blob fully into memory.
func ReadAll(ctx context.Context, store ObjectStore, id ObjectID) ([]byte, error) {
	r, err := store.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ErrMissingObject indicates a tree/commit referenced an id the store
// cannot open. Per §7, a missing object is treated as size=0 by the
// rename detector's prefilter; a subsequent Open is fatal.
type ErrMissingObject struct {
	ID ObjectID
}

func (e *ErrMissingObject) Error() string {
	return "objstore: missing object " + string(e.ID)
}
