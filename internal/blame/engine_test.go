package blame

import (
	"context"
	"testing"

	"github.com/haldirsson/coblame/internal/objstore"
)

func TestRunResolvesHeadAndAttributesRootCommit(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("blob1", []byte("l1\nl2\nl3\n"))
	store.PutCommit(objstore.CommitInfo{ID: "c1", AuthorEmail: "a@example.com"}, []objstore.TreeEntry{
		{Path: "fileA", Kind: objstore.KindRegular, Blob: "blob1"},
	})
	store.SetHead("c1")

	results, err := Run(context.Background(), store, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Path != "fileA" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(results[0].Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(results[0].Lines))
	}
	for i, l := range results[0].Lines {
		if l == nil || l.CommitHash != "c1" || l.AuthorEmail != "a@example.com" {
			t.Fatalf("line %d: got %+v, want attribution to c1", i, l)
		}
	}
}

func TestRunWithoutHeadReturnsErrNoHead(t *testing.T) {
	store := objstore.NewMemStore()
	_, err := Run(context.Background(), store, Options{})
	if err != ErrNoHead {
		t.Fatalf("got %v, want ErrNoHead", err)
	}
}

func TestRunRestrictsToRequestedFilePaths(t *testing.T) {
	store := objstore.NewMemStore()
	store.PutBlob("blobA", []byte("l1\n"))
	store.PutBlob("blobB", []byte("l1\n"))
	store.PutCommit(objstore.CommitInfo{ID: "c1"}, []objstore.TreeEntry{
		{Path: "fileA", Kind: objstore.KindRegular, Blob: "blobA"},
		{Path: "fileB", Kind: objstore.KindRegular, Blob: "blobB"},
	})
	store.SetHead("c1")

	results, err := Run(context.Background(), store, Options{FilePaths: []string{"fileA"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].Path != "fileA" {
		t.Fatalf("unexpected results: %+v", results)
	}
}
