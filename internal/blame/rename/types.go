// Package rename implements the similarity-based rename/copy detector
// (§4.C) and the orchestrating rename detector (§4.D): pairing added
// paths with deleted paths by content similarity and by path-name
// similarity, then resolving exact/one-to-many/many-to-many matches.
package rename

// ChangeType mirrors the DiffEntry.changeType enumeration of §3.
type ChangeType int

const (
	Add ChangeType = iota
	Delete
	Modify
	Copy
	Rename
)

func (c ChangeType) String() string {
	switch c {
	case Add:
		return "ADD"
	case Delete:
		return "DELETE"
	case Modify:
		return "MODIFY"
	case Copy:
		return "COPY"
	case Rename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// EntryMode is the tree-entry mode's type bits, used for the
// mode-compatibility check: a regular file is never renamed to a
// symlink.
type EntryMode int

const (
	ModeRegular EntryMode = iota
	ModeSymlink
	ModeGitlink
)

// Entry is a DiffEntry: one row of the rename detector's input/output
// bucket.
type Entry struct {
	Type     ChangeType
	OldPath  string
	NewPath  string
	OldID    string // object id, empty/zero for ADD
	NewID    string
	OldMode  EntryMode
	NewMode  EntryMode
	Score    int // [0,127], set by the detector
	OldSize  int64
	NewSize  int64
	OldBytes []byte // content loader results, filled in lazily by the caller
	NewBytes []byte
}

// modeCompatible reports whether two entries could plausibly be the
// same renamed/copied file: their mode *type* bits must agree.
func modeCompatible(a, b EntryMode) bool {
	return a == b
}

// nameOf returns the sort key used by Detector's final ordering:
// newPath, except for DELETE entries which sort by oldPath.
func nameOf(e Entry) string {
	if e.Type == Delete {
		return e.OldPath
	}
	return e.NewPath
}

// sortRank orders DELETE before ADD before everything else, so a
// path whose type changed (e.g. file -> symlink) appears as a DELETE
// immediately followed by an ADD rather than interleaved with other
// entries of the same name.
func sortRank(t ChangeType) int {
	switch t {
	case Delete:
		return 0
	case Add:
		return 1
	default:
		return 2
	}
}
