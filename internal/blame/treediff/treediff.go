// Package treediff implements the file-tree comparator with rename
// detection (§4.E): given a parent and child commit it maps a set of
// target paths in the child to their ancestor paths in the parent,
// using a lock-step fast path when possible and falling back to a full
// diff plus the rename detector.
package treediff

import (
	"context"
	"sort"

	"github.com/haldirsson/coblame/internal/blame/rename"
	"github.com/haldirsson/coblame/internal/objstore"
)

// DefaultFastPathThreshold is the default target-path count below which
// the lock-step walk is attempted before falling back to a full diff.
const DefaultFastPathThreshold = 100

// DiffFile is the comparator's per-path output (§3): the child-side
// path, its ancestor path in the parent (nil for an ADD), and the
// parent-side blob id.
type DiffFile struct {
	NewPath     string
	OldPath     *string
	OldObjectID objstore.ObjectID
}

// Comparator is the file-tree comparator collaborator.
type Comparator struct {
	Store             objstore.ObjectStore
	Detector          *rename.Detector
	FastPathThreshold int
}

// New builds a comparator backed by the given store and rename detector.
func New(store objstore.ObjectStore, detector *rename.Detector) *Comparator {
	return &Comparator{Store: store, Detector: detector, FastPathThreshold: DefaultFastPathThreshold}
}

// Compare maps targetPaths in child to their ancestor in parent.
// overLimit mirrors the rename detector's rename-limit-exceeded flag
// (§7) when the slow path had to invoke it.
func (c *Comparator) Compare(ctx context.Context, parent, child objstore.ObjectID, targetPaths map[string]bool) (files []DiffFile, overLimit bool, err error) {
	childMap, err := c.treeMap(ctx, child)
	if err != nil {
		return nil, false, err
	}
	parentMap, err := c.treeMap(ctx, parent)
	if err != nil {
		return nil, false, err
	}

	if len(targetPaths) > 0 && len(targetPaths) < c.fastPathThreshold() {
		if files, ok := fastPath(parentMap, childMap, targetPaths); ok {
			return files, false, nil
		}
	}
	return c.slowPath(parentMap, childMap, targetPaths)
}

func (c *Comparator) fastPathThreshold() int {
	if c.FastPathThreshold != 0 {
		return c.FastPathThreshold
	}
	return DefaultFastPathThreshold
}

// fastPath walks both trees in lock-step restricted to targetPaths. It
// aborts (ok=false) the instant a target path was added in the child
// relative to the parent, since an add is exactly the case the rename
// detector exists to resolve.
func fastPath(parentMap, childMap map[string]objstore.TreeEntry, targetPaths map[string]bool) (files []DiffFile, ok bool) {
	paths := sortedKeys(targetPaths)
	for _, path := range paths {
		childEntry, inChild := childMap[path]
		if !inChild {
			continue
		}
		parentEntry, inParent := parentMap[path]
		if !inParent {
			return nil, false
		}
		if childEntry.Blob == parentEntry.Blob {
			continue
		}
		op := path
		files = append(files, DiffFile{NewPath: path, OldPath: &op, OldObjectID: parentEntry.Blob})
	}
	return files, true
}

func (c *Comparator) slowPath(parentMap, childMap map[string]objstore.TreeEntry, targetPaths map[string]bool) ([]DiffFile, bool, error) {
	entries := diffEntries(parentMap, childMap, targetPaths)
	result := c.Detector.Detect(entries)

	var files []DiffFile
	for _, e := range result.Entries {
		if e.Type == rename.Delete {
			continue
		}
		if len(targetPaths) > 0 && !targetPaths[e.NewPath] {
			continue
		}
		df := DiffFile{NewPath: e.NewPath, OldObjectID: objstore.ObjectID(e.OldID)}
		if e.Type != rename.Add {
			op := e.OldPath
			df.OldPath = &op
		}
		files = append(files, df)
	}
	return files, result.OverRenameLimit, nil
}

// diffEntries builds the full DiffEntry bucket between parent and child,
// restricting ADD candidates to targetPaths (deletes and modifies carry
// forward unrestricted, since a delete elsewhere may still be the best
// rename source for a targeted add).
func diffEntries(parentMap, childMap map[string]objstore.TreeEntry, targetPaths map[string]bool) []rename.Entry {
	var entries []rename.Entry

	for path, pe := range parentMap {
		if ce, ok := childMap[path]; ok {
			if ce.Blob == pe.Blob {
				continue
			}
			entries = append(entries, rename.Entry{
				Type:    rename.Modify,
				OldPath: path,
				NewPath: path,
				OldID:   string(pe.Blob),
				NewID:   string(ce.Blob),
				OldMode: entryMode(pe.Kind),
				NewMode: entryMode(ce.Kind),
			})
			continue
		}
		entries = append(entries, rename.Entry{
			Type:    rename.Delete,
			OldPath: path,
			OldID:   string(pe.Blob),
			OldMode: entryMode(pe.Kind),
		})
	}

	restrictAdds := len(targetPaths) > 0
	for path, ce := range childMap {
		if _, ok := parentMap[path]; ok {
			continue
		}
		if restrictAdds && !targetPaths[path] {
			continue
		}
		entries = append(entries, rename.Entry{
			Type:    rename.Add,
			NewPath: path,
			NewID:   string(ce.Blob),
			NewMode: entryMode(ce.Kind),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return diffEntryKey(entries[i]) < diffEntryKey(entries[j])
	})
	return entries
}

func diffEntryKey(e rename.Entry) string {
	if e.Type == rename.Delete {
		return e.OldPath
	}
	return e.NewPath
}

func entryMode(k objstore.EntryKind) rename.EntryMode {
	switch k {
	case objstore.KindSymlink:
		return rename.ModeSymlink
	case objstore.KindGitlink:
		return rename.ModeGitlink
	default:
		return rename.ModeRegular
	}
}

func (c *Comparator) treeMap(ctx context.Context, commit objstore.ObjectID) (map[string]objstore.TreeEntry, error) {
	entries, err := c.Store.Tree(ctx, commit)
	if err != nil {
		return nil, err
	}
	m := make(map[string]objstore.TreeEntry, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
