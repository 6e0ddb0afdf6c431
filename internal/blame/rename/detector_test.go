package rename

import (
	"strings"
	"testing"
)

func loaderFrom(blobs map[string]string) ContentLoader {
	return func(id string) ([]byte, error) {
		return []byte(blobs[id]), nil
	}
}

func content(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestDetectorExactOneToOneRename(t *testing.T) {
	blobs := map[string]string{
		"b1": content("l1", "l2", "l3", "l4", "l5", "l6", "l7"),
	}
	entries := []Entry{
		{Type: Delete, OldPath: "fileA", OldID: "b1", OldMode: ModeRegular},
		{Type: Add, NewPath: "fileC", NewID: "b1", NewMode: ModeRegular},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 60, BreakScore: -1}}
	res := d.Detect(entries)

	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(res.Entries), res.Entries)
	}
	if res.Entries[0].Type != Rename {
		t.Fatalf("expected RENAME, got %v", res.Entries[0].Type)
	}
	if res.Entries[0].Score != 100 {
		t.Fatalf("exact rename should score 100, got %d", res.Entries[0].Score)
	}
}

func TestDetectorExactCopyAndRename(t *testing.T) {
	// fileA copied to fileB AND renamed to fileC: one of the two must be
	// RENAME (claiming the source path) and the other COPY.
	blobs := map[string]string{"b1": content("l1", "l2", "l3", "l4", "l5", "l6", "l7")}
	entries := []Entry{
		{Type: Delete, OldPath: "fileA", OldID: "b1", OldMode: ModeRegular},
		{Type: Add, NewPath: "fileB", NewID: "b1", NewMode: ModeRegular},
		{Type: Add, NewPath: "fileC", NewID: "b1", NewMode: ModeRegular},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 60, BreakScore: -1}}
	res := d.Detect(entries)

	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(res.Entries), res.Entries)
	}
	renameCount, copyCount := 0, 0
	for _, e := range res.Entries {
		switch e.Type {
		case Rename:
			renameCount++
		case Copy:
			copyCount++
		}
	}
	if renameCount != 1 || copyCount != 1 {
		t.Fatalf("expected exactly one RENAME and one COPY, got rename=%d copy=%d", renameCount, copyCount)
	}
}

func TestDetectorModeIncompatibleNotRenamed(t *testing.T) {
	blobs := map[string]string{"b1": content("l1", "l2")}
	entries := []Entry{
		{Type: Delete, OldPath: "fileA", OldID: "b1", OldMode: ModeRegular},
		{Type: Add, NewPath: "linkA", NewID: "b1", NewMode: ModeSymlink},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 60, BreakScore: -1}}
	res := d.Detect(entries)

	for _, e := range res.Entries {
		if e.Type == Rename || e.Type == Copy {
			t.Fatalf("regular file should never rename to a symlink: %+v", e)
		}
	}
}

func TestDetectorContentRenameBySimilarity(t *testing.T) {
	blobs := map[string]string{
		"old": content("alpha", "beta", "gamma", "delta", "epsilon"),
		"new": content("alpha", "beta", "gamma", "delta", "CHANGED"),
	}
	entries := []Entry{
		{Type: Delete, OldPath: "dir/old_name.txt", OldID: "old", OldMode: ModeRegular},
		{Type: Add, NewPath: "dir/new_name.txt", NewID: "new", NewMode: ModeRegular},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 50, BreakScore: -1}}
	res := d.Detect(entries)

	if len(res.Entries) != 1 || res.Entries[0].Type != Rename {
		t.Fatalf("expected a single content rename, got %+v", res.Entries)
	}
}

func TestDetectorNegativeRenameLimitSkipsContentPhase(t *testing.T) {
	blobs := map[string]string{
		"old": content("alpha", "beta", "gamma"),
		"new": content("alpha", "beta", "DELTA"),
	}
	entries := []Entry{
		{Type: Delete, OldPath: "a.txt", OldID: "old", OldMode: ModeRegular},
		{Type: Add, NewPath: "b.txt", NewID: "new", NewMode: ModeRegular},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 10, BreakScore: -1, RenameLimit: -1}}
	res := d.Detect(entries)

	for _, e := range res.Entries {
		if e.Type == Rename || e.Type == Copy {
			t.Fatalf("content rename phase should be fully skipped when RenameLimit<0: %+v", e)
		}
	}
}

func TestDetectorOutputOrdering(t *testing.T) {
	blobs := map[string]string{"b1": content("x")}
	entries := []Entry{
		{Type: Delete, OldPath: "z_deleted", OldID: "b1", OldMode: ModeRegular},
		{Type: Add, NewPath: "a_added", NewID: "other", NewMode: ModeRegular},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 60, BreakScore: -1}}
	res := d.Detect(entries)
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 unmatched entries, got %d", len(res.Entries))
	}
	if nameOf(res.Entries[0]) >= nameOf(res.Entries[1]) {
		t.Fatalf("expected entries ordered by name: %+v", res.Entries)
	}
}

func TestDetectorFixpointOnOwnOutput(t *testing.T) {
	blobs := map[string]string{
		"b1": content("l1", "l2", "l3", "l4", "l5", "l6", "l7"),
	}
	entries := []Entry{
		{Type: Delete, OldPath: "fileA", OldID: "b1", OldMode: ModeRegular},
		{Type: Add, NewPath: "fileC", NewID: "b1", NewMode: ModeRegular},
	}
	d := &Detector{Load: loaderFrom(blobs), Opts: DetectorOptions{RenameScore: 60, BreakScore: -1}}
	first := d.Detect(entries)
	second := d.Detect(first.Entries)

	for _, e := range second.Entries {
		if e.Type == Add || e.Type == Delete {
			t.Fatalf("running the detector on its own RENAME/COPY/MODIFY output produced a fresh DELETE+ADD: %+v", e)
		}
	}
}
