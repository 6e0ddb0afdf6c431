package treediff

import (
	"context"
	"testing"

	"github.com/haldirsson/coblame/internal/blame/rename"
	"github.com/haldirsson/coblame/internal/objstore"
)

func newDetector(store objstore.ObjectStore) *rename.Detector {
	return &rename.Detector{
		Load: func(id string) ([]byte, error) {
			return objstore.ReadAll(context.Background(), store, objstore.ObjectID(id))
		},
		Opts: rename.DetectorOptions{RenameScore: 60, BreakScore: -1, RenameLimit: 1000},
	}
}

func TestFastPathPureModify(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("p1", []byte("old content"))
	store.PutBlob("c1", []byte("new content"))
	store.PutCommit(objstore.CommitInfo{ID: "parent"}, []objstore.TreeEntry{{Path: "a.txt", Blob: "p1"}})
	store.PutCommit(objstore.CommitInfo{ID: "child"}, []objstore.TreeEntry{{Path: "a.txt", Blob: "c1"}})

	cmp := New(store, newDetector(store))
	files, overLimit, err := cmp.Compare(context.Background(), "parent", "child", map[string]bool{"a.txt": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overLimit {
		t.Fatalf("did not expect rename limit exceeded")
	}
	if len(files) != 1 || files[0].NewPath != "a.txt" || files[0].OldPath == nil || *files[0].OldPath != "a.txt" {
		t.Fatalf("unexpected fast-path result: %+v", files)
	}
	if files[0].OldObjectID != "p1" {
		t.Fatalf("expected parent blob id p1, got %v", files[0].OldObjectID)
	}
}

func TestFastPathAbortsOnAdd(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("c1", []byte("brand new"))
	store.PutCommit(objstore.CommitInfo{ID: "parent"}, nil)
	store.PutCommit(objstore.CommitInfo{ID: "child"}, []objstore.TreeEntry{{Path: "new.txt", Blob: "c1"}})

	cmp := New(store, newDetector(store))
	files, _, err := cmp.Compare(context.Background(), "parent", "child", map[string]bool{"new.txt": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].OldPath != nil {
		t.Fatalf("expected an ADD DiffFile with nil OldPath, got %+v", files)
	}
}

func TestSlowPathDetectsRename(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("blob1", []byte("identical content\nline two\n"))
	store.PutCommit(objstore.CommitInfo{ID: "parent"}, []objstore.TreeEntry{{Path: "old/name.go", Blob: "blob1"}})
	store.PutCommit(objstore.CommitInfo{ID: "child"}, []objstore.TreeEntry{{Path: "new/name.go", Blob: "blob1"}})

	cmp := New(store, newDetector(store))
	files, _, err := cmp.Compare(context.Background(), "parent", "child", map[string]bool{"new/name.go": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected exactly one diff file for the renamed target, got %+v", files)
	}
	got := files[0]
	if got.NewPath != "new/name.go" || got.OldPath == nil || *got.OldPath != "old/name.go" {
		t.Fatalf("unexpected rename projection: %+v", got)
	}
}

func TestSlowPathFiltersToTargetPaths(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("a-old", []byte("a content v1"))
	store.PutBlob("a-new", []byte("a content v2"))
	store.PutBlob("b-old", []byte("b content v1"))
	store.PutBlob("b-new", []byte("b content v2"))
	store.PutCommit(objstore.CommitInfo{ID: "parent"}, []objstore.TreeEntry{
		{Path: "a.txt", Blob: "a-old"},
		{Path: "b.txt", Blob: "b-old"},
	})
	store.PutCommit(objstore.CommitInfo{ID: "child"}, []objstore.TreeEntry{
		{Path: "a.txt", Blob: "a-new"},
		{Path: "b.txt", Blob: "b-new"},
	})

	cmp := New(store, newDetector(store))
	cmp.FastPathThreshold = -1 // force slow path
	files, _, err := cmp.Compare(context.Background(), "parent", "child", map[string]bool{"a.txt": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].NewPath != "a.txt" {
		t.Fatalf("expected only a.txt in the restricted result, got %+v", files)
	}
}
