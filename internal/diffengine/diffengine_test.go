package diffengine

import "testing"

func TestDiffLinesNoChangeProducesNoEdits(t *testing.T) {
	e := New(CompareDefault, AlgorithmMyers)
	lines := []string{"a", "b", "c"}
	edits := e.DiffLines(lines, lines)
	if len(edits) != 0 {
		t.Fatalf("expected no edits for identical input, got %v", edits)
	}
}

func TestDiffLinesSingleInsert(t *testing.T) {
	e := New(CompareDefault, AlgorithmMyers)
	a := []string{"one", "two", "three"}
	b := []string{"one", "INSERTED", "two", "three"}
	edits := e.DiffLines(a, b)
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %v", edits)
	}
	ed := edits[0]
	if ed.BeginA != 1 || ed.EndA != 1 || ed.BeginB != 1 || ed.EndB != 2 {
		t.Fatalf("unexpected edit bounds: %+v", ed)
	}
}

func TestDiffLinesSingleDelete(t *testing.T) {
	e := New(CompareDefault, AlgorithmMyers)
	a := []string{"one", "two", "three"}
	b := []string{"one", "three"}
	edits := e.DiffLines(a, b)
	if len(edits) != 1 {
		t.Fatalf("expected one edit, got %v", edits)
	}
	ed := edits[0]
	if ed.BeginA != 1 || ed.EndA != 2 || ed.BeginB != 1 || ed.EndB != 1 {
		t.Fatalf("unexpected edit bounds: %+v", ed)
	}
}

func TestDiffLinesReplaceFoldsIntoOneEdit(t *testing.T) {
	e := New(CompareDefault, AlgorithmMyers)
	a := []string{"one", "old", "three"}
	b := []string{"one", "new", "three"}
	edits := e.DiffLines(a, b)
	if len(edits) != 1 {
		t.Fatalf("expected one folded edit for a pure replace, got %v", edits)
	}
}

func TestWhitespaceComparatorIgnoresFormatting(t *testing.T) {
	e := New(CompareIgnoreWhitespace, AlgorithmMyers)
	a := []string{"func f() {", "  return 1", "}"}
	b := []string{"func f() {", "    return 1", "}"}
	edits := e.DiffLines(a, b)
	if len(edits) != 0 {
		t.Fatalf("expected whitespace-only change to be ignored, got %v", edits)
	}
}

func TestSplitLinesDropsTrailingNewlineOnly(t *testing.T) {
	got := splitLines("a\nb\nc\n")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSplitLinesKeepsTrailingPartialLine(t *testing.T) {
	got := splitLines("a\nb\nc")
	if len(got) != 3 || got[2] != "c" {
		t.Fatalf("expected partial trailing line retained, got %v", got)
	}
}
