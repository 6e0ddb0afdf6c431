package fileblame

import (
	"testing"

	"github.com/haldirsson/coblame/internal/blame/region"
	"github.com/haldirsson/coblame/internal/diffengine"
)

func regionList(triples ...[3]int) *region.List {
	l := &region.List{}
	for _, t := range triples {
		l.Append(region.New(t[0], t[1], t[2]))
	}
	return l
}

func collect(l *region.List) [][3]int {
	var out [][3]int
	for r := l.Head; r != nil; r = r.Next {
		out = append(out, [3]int{r.ResultStart, r.SourceStart, r.Length})
	}
	return out
}

func assertRegions(t *testing.T, label string, got *region.List, want [][3]int) {
	t.Helper()
	g := collect(got)
	if len(g) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", label, g, want)
		}
	}
}

func TestTakeBlameInsertInMiddle(t *testing.T) {
	regions := regionList([3]int{0, 0, 10})
	edits := []diffengine.Edit{{BeginA: 3, EndA: 3, BeginB: 3, EndB: 5}}

	parent, child := TakeBlame(regions, edits)

	assertRegions(t, "parent", parent, [][3]int{{0, 0, 3}, {5, 3, 5}})
	assertRegions(t, "child", child, [][3]int{{3, 3, 2}})
}

func TestTakeBlameInsertAtEndOfFile(t *testing.T) {
	regions := regionList([3]int{0, 0, 7})
	edits := []diffengine.Edit{{BeginA: 5, EndA: 5, BeginB: 5, EndB: 7}}

	parent, child := TakeBlame(regions, edits)

	assertRegions(t, "parent", parent, [][3]int{{0, 0, 5}})
	assertRegions(t, "child", child, [][3]int{{5, 5, 2}})
}

func TestTakeBlamePureDeleteWithZeroLengthB(t *testing.T) {
	regions := regionList([3]int{0, 0, 6})
	edits := []diffengine.Edit{{BeginA: 2, EndA: 4, BeginB: 2, EndB: 2}}

	parent, child := TakeBlame(regions, edits)

	assertRegions(t, "parent", parent, [][3]int{{0, 0, 2}, {2, 4, 4}})
	if !child.Empty() {
		t.Fatalf("expected no lines attributed to child on a pure delete, got %v", collect(child))
	}
}

func TestTakeBlameRegionUntouchedByAnyEditStillShifts(t *testing.T) {
	regions := regionList([3]int{0, 10, 3})
	edits := []diffengine.Edit{{BeginA: 0, EndA: 0, BeginB: 0, EndB: 2}}

	parent, child := TakeBlame(regions, edits)

	assertRegions(t, "parent", parent, [][3]int{{0, 8, 3}})
	if !child.Empty() {
		t.Fatalf("expected no child regions, got %v", collect(child))
	}
}

func TestTakeBlameRegionSpansTwoEdits(t *testing.T) {
	// Child lines 0..12: edit1 inserts 1 line at [2,3), edit2 inserts 1
	// line at [8,9); a single wide region should be split across both.
	regions := regionList([3]int{0, 0, 12})
	edits := []diffengine.Edit{
		{BeginA: 2, EndA: 2, BeginB: 2, EndB: 3},
		{BeginA: 7, EndA: 7, BeginB: 8, EndB: 9},
	}

	parent, child := TakeBlame(regions, edits)

	assertRegions(t, "parent", parent, [][3]int{{0, 0, 2}, {3, 2, 5}, {9, 7, 3}})
	assertRegions(t, "child", child, [][3]int{{2, 2, 1}, {8, 8, 1}})
}

func TestBlameVerbatimWhenBlobIDsMatch(t *testing.T) {
	regions := regionList([3]int{0, 0, 4})
	res, err := Blame(nil, nil, Job{ChildRegions: regions, ParentBlobID: "x", ChildBlobID: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRegions(t, "parent", res.ParentRegions, [][3]int{{0, 0, 4}})
	if !res.ChildRegions.Empty() {
		t.Fatalf("expected nothing left on the child side")
	}
}

func TestBlameVerbatimWhenDiffYieldsNoEdits(t *testing.T) {
	regions := regionList([3]int{0, 0, 2})
	engine := diffengine.New(diffengine.CompareIgnoreWhitespace, diffengine.AlgorithmMyers)
	loader := func(id string) ([]byte, error) {
		if id == "parent" {
			return []byte("a\n  b\n"), nil
		}
		return []byte("a\nb\n"), nil
	}
	res, err := Blame(loader, engine, Job{ChildRegions: regions, ParentBlobID: "parent", ChildBlobID: "child"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertRegions(t, "parent", res.ParentRegions, [][3]int{{0, 0, 2}})
}
