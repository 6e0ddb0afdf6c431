package simindex

import (
	"bytes"
	"strings"
	"testing"
)

func blob(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

func TestScoreSelfEqualsScale(t *testing.T) {
	content := blob("alpha", "beta", "gamma", "delta")
	idx, ok, err := Build(content, Options{})
	if err != nil || !ok {
		t.Fatalf("build failed: ok=%v err=%v", ok, err)
	}
	if got := Score(idx, idx, 10000); got != 10000 {
		t.Fatalf("self-score = %d, want 10000", got)
	}
}

func TestScoreDisjointIsZero(t *testing.T) {
	a, _, _ := Build(blob("one", "two", "three"), Options{})
	b, _, _ := Build(blob("uno", "dos", "tres"), Options{})
	if got := Score(a, b, 10000); got != 0 {
		t.Fatalf("disjoint score = %d, want 0", got)
	}
}

func TestScorePartialOverlap(t *testing.T) {
	a, _, _ := Build(blob("one", "two", "three", "four"), Options{})
	b, _, _ := Build(blob("one", "two", "five", "six"), Options{})
	got := Score(a, b, 10000)
	if got <= 0 || got >= 10000 {
		t.Fatalf("expected partial score strictly between 0 and scale, got %d", got)
	}
}

func TestBuildOverSizeLimitNotComparable(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 100)
	_, ok, err := Build(content, Options{MaxSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for oversized content")
	}
}

func TestBuildTableFull(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString("line")
		sb.WriteByte(byte('a' + i))
		sb.WriteByte('\n')
	}
	_, _, err := Build([]byte(sb.String()), Options{Capacity: 2})
	if err != ErrTableFull {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
}

func TestIsBinaryNulBeforeNewline(t *testing.T) {
	if !IsBinary([]byte("abc\x00def\nghi")) {
		t.Fatal("expected binary detection")
	}
}

func TestIsBinaryTextIsNotBinary(t *testing.T) {
	if IsBinary([]byte("hello\nworld\n")) {
		t.Fatal("expected text content to not be classified as binary")
	}
}

func TestIsBinaryNulAfterFirstLineIsStillBinary(t *testing.T) {
	// a NUL within the first 8KB anywhere still counts, not only before
	// the first newline, per the "within first 8KB" clause.
	content := []byte("first line\nsecond\x00line\n")
	if !IsBinary(content) {
		t.Fatal("expected NUL within first block to be classified as binary")
	}
}
