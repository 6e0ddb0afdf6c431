package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/haldirsson/coblame/internal/blame/rename"
	"github.com/haldirsson/coblame/internal/blame/treediff"
	"github.com/haldirsson/coblame/internal/diffengine"
	"github.com/haldirsson/coblame/internal/objstore"
)

func newTestComparator(store objstore.ObjectStore) *treediff.Comparator {
	detector := &rename.Detector{
		Load: func(id string) ([]byte, error) {
			return objstore.ReadAll(context.Background(), store, objstore.ObjectID(id))
		},
		Opts: rename.DetectorOptions{RenameScore: 60, BreakScore: -1, RenameLimit: 1000},
	}
	return treediff.New(store, detector)
}

func runScheduler(t *testing.T, store *objstore.MemStore, head objstore.ObjectID, paths ...string) *ResultStore {
	t.Helper()
	results := NewResultStore()
	sched := New(Config{
		Store:      store,
		Comparator: newTestComparator(store),
		Engine:     diffengine.New(diffengine.CompareDefault, diffengine.AlgorithmMyers),
		Results:    results,
	})
	var filePaths map[string]bool
	if len(paths) > 0 {
		filePaths = make(map[string]bool, len(paths))
		for _, p := range paths {
			filePaths[p] = true
		}
	}
	if err := sched.Initialize(context.Background(), head, false, filePaths); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return results
}

func hashesOf(t *testing.T, rs *ResultStore, path string) []string {
	t.Helper()
	fr := rs.Result(path)
	if fr == nil {
		t.Fatalf("no result for %s", path)
	}
	out := make([]string, len(fr.Attributions))
	for i, a := range fr.Attributions {
		if a == nil {
			out[i] = "<unattributed>"
			continue
		}
		out[i] = a.CommitHash
	}
	return out
}

func assertHashes(t *testing.T, rs *ResultStore, path string, want []string) {
	t.Helper()
	got := hashesOf(t, rs, path)
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", path, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: line %d got %s, want %s", path, i, got[i], want[i])
		}
	}
}

func putCommit(store *objstore.MemStore, id objstore.ObjectID, parents []objstore.ObjectID, t int32, entries ...objstore.TreeEntry) {
	store.PutCommit(objstore.CommitInfo{
		ID:            id,
		ParentIDs:     parents,
		CommitTime:    t,
		AuthorEmail:   string(id) + "@example.com",
		CommitterDate: time.Unix(int64(t), 0),
	}, entries)
}

// TestInitialCommitAttributesAllLinesToItself covers scenario 1 (§8): a
// root commit has no parent, so every line it introduces finalizes to
// itself.
func TestInitialCommitAttributesAllLinesToItself(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("blobA1", []byte("l1\nl2\n"))
	putCommit(store, "c1", nil, 1, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "blobA1"})
	store.SetHead("c1")

	rs := runScheduler(t, store, "c1")
	assertHashes(t, rs, "fileA", []string{"c1", "c1"})
}

// TestRenameCarriesBlameAcrossPathChange covers scenario 2 (§8): a file
// renamed with no content change keeps its original commit's blame.
func TestRenameCarriesBlameAcrossPathChange(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("blob1", []byte("l1\nl2\n"))
	putCommit(store, "c1", nil, 1, objstore.TreeEntry{Path: "old.txt", Kind: objstore.KindRegular, Blob: "blob1"})
	putCommit(store, "c2", []objstore.ObjectID{"c1"}, 2, objstore.TreeEntry{Path: "new.txt", Kind: objstore.KindRegular, Blob: "blob1"})
	store.SetHead("c2")

	rs := runScheduler(t, store, "c2")
	assertHashes(t, rs, "new.txt", []string{"c1", "c1"})
}

// TestMergePrefersSamePathParentOverContentMatch covers scenario 3 (§8):
// a merge parent with the same path and identical content must win
// globally over a different parent whose content happens to match
// byte-for-byte at a different path — the global pass-order resolution
// (see the scheduler doc comment) is what prevents the content-rename
// match from claiming the file instead.
func TestMergePrefersSamePathParentOverContentMatch(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("shared", []byte("l1\nl2\n"))

	putCommit(store, "c1", nil, 1)
	putCommit(store, "c2", []objstore.ObjectID{"c1"}, 2, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "shared"})
	putCommit(store, "c3", []objstore.ObjectID{"c1"}, 2, objstore.TreeEntry{Path: "fileB", Kind: objstore.KindRegular, Blob: "shared"})
	putCommit(store, "cm", []objstore.ObjectID{"c2", "c3"}, 3, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "shared"})
	store.SetHead("cm")

	rs := runScheduler(t, store, "cm")
	assertHashes(t, rs, "fileA", []string{"c2", "c2"})
}

// TestMergeExactContentParentShortCircuitsDiff covers scenario 5 (§8): a
// merge result byte-identical to one parent's content must attribute
// entirely to that parent, not split by diffing against the other
// parent whose content differs.
func TestMergeExactContentParentShortCircuitsDiff(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("b2", []byte("l1\nl3\n"))
	store.PutBlob("b3", []byte("l1\nl2\n"))

	putCommit(store, "c1", nil, 1)
	putCommit(store, "c2", []objstore.ObjectID{"c1"}, 2, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "b2"})
	putCommit(store, "c3", []objstore.ObjectID{"c1"}, 2, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "b3"})
	putCommit(store, "cm", []objstore.ObjectID{"c2", "c3"}, 3, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "b3"})
	store.SetHead("cm")

	rs := runScheduler(t, store, "cm")
	assertHashes(t, rs, "fileA", []string{"c3", "c3"})
}

// TestRegionsMergeAtCommonAncestor covers scenario 4 (§8): one branch
// adds a line on top of a shared two-line base and the merge commit
// itself adds a fourth; the walk must reconverge at the common parent
// instead of visiting it twice.
func TestRegionsMergeAtCommonAncestor(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("base", []byte("l1\nl2\n"))
	store.PutBlob("left", []byte("l1\nl2\nleft\n"))
	store.PutBlob("right", []byte("l1\nl2\nleft\nright\n"))

	putCommit(store, "c1", nil, 1, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "base"})
	putCommit(store, "c2", []objstore.ObjectID{"c1"}, 2, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "left"})
	putCommit(store, "cm", []objstore.ObjectID{"c2", "c1"}, 3, objstore.TreeEntry{Path: "fileA", Kind: objstore.KindRegular, Blob: "right"})
	store.SetHead("cm")

	rs := runScheduler(t, store, "cm")
	assertHashes(t, rs, "fileA", []string{"c1", "c1", "c2", "cm"})
}

// TestProgressCallbackFiresOncePerFrontierPop covers scenario 6 (§8): a
// straight-line history of N commits, only the first of which touches
// the blamed file, still visits every intervening commit once each —
// the unmodified-path pass must carry the file's candidate all the way
// back through history unclaimed by any of the noise commits in between.
func TestProgressCallbackFiresOncePerFrontierPop(t *testing.T) {
	const n = 100
	store := objstore.NewMemStore()

	store.PutBlob("origin", []byte("l1\nl2\n"))
	var prev objstore.ObjectID = "c0"
	var parents []objstore.ObjectID
	putCommit(store, prev, parents, 1, objstore.TreeEntry{Path: "counter.txt", Kind: objstore.KindRegular, Blob: "origin"})

	for i := 1; i < n; i++ {
		id := objstore.ObjectID("c" + itoa(i))
		blobID := objstore.ObjectID("noise" + itoa(i))
		store.PutBlob(blobID, []byte(itoa(i)+"\n"))
		putCommit(store, id, []objstore.ObjectID{prev}, int32(i+1),
			objstore.TreeEntry{Path: "counter.txt", Kind: objstore.KindRegular, Blob: "origin"},
			objstore.TreeEntry{Path: "noise.txt", Kind: objstore.KindRegular, Blob: blobID},
		)
		prev = id
	}
	store.SetHead(prev)

	iterations := 0
	results := NewResultStore()
	sched := New(Config{
		Store:      store,
		Comparator: newTestComparator(store),
		Engine:     diffengine.New(diffengine.CompareDefault, diffengine.AlgorithmMyers),
		Results:    results,
		Progress:   func(int, string) { iterations++ },
	})
	if err := sched.Initialize(context.Background(), prev, false, nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := sched.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if iterations != n {
		t.Fatalf("got %d progress callbacks, want %d", iterations, n)
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}
