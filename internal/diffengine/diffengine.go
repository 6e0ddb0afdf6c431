// Package diffengine implements the DiffAlgorithm collaborator the core
// consumes (§6): given two line sequences it returns an ordered list of
// edits the take-blame algorithm walks. Grounded on the teacher's
// internal/repo/diff.go and internal/merge/merge.go, both of which drive
// github.com/sergi/go-diff's diffmatchpatch at line granularity via
// DiffLinesToRunes/DiffMainRunes/DiffCharsToLines.
package diffengine

import (
	"strings"

	"github.com/haldirsson/coblame/internal/util"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineComparator selects how two lines are compared for equality before
// diffing. The corpus's diff collaborators only ever compare exact text,
// so whitespace-ignoring folds leading/trailing space and collapses
// interior runs before hashing each line into the diff engine's rune
// alphabet.
type LineComparator int

const (
	CompareDefault LineComparator = iota
	CompareIgnoreWhitespace
)

// Algorithm selects among the diff collaborator's offered algorithms.
// sergi/go-diff implements a Myers-style algorithm only; Histogram is
// accepted for API compatibility with the configuration surface in §6
// and resolves to the same Myers engine, since the corpus carries no
// histogram-diff library.
type Algorithm int

const (
	AlgorithmMyers Algorithm = iota
	AlgorithmHistogram
)

// Edit is one (beginA, endA, beginB, endB) line-range edit, half-open on
// both ends, in the coordinate space of the two line sequences passed to
// Diff.
type Edit struct {
	BeginA, EndA int
	BeginB, EndB int
}

// Engine is the DiffAlgorithm collaborator. It is stateless and safe for
// concurrent use by multiple blame workers, matching the per-call
// diffmatchpatch.New() pattern the teacher repo already uses.
type Engine struct {
	Comparator LineComparator
	Algorithm  Algorithm
}

// New builds a diff engine for the given configuration.
func New(cmp LineComparator, alg Algorithm) *Engine {
	return &Engine{Comparator: cmp, Algorithm: alg}
}

// CountLines reports the blame algorithm's line count for content — the
// same convention splitLines uses, exposed for candidate initialization.
func CountLines(content []byte) int {
	return len(splitLines(string(util.ToValidUTF8Bytes(content))))
}

// Diff splits a and b into lines, folds them through the configured line
// comparator, and returns the ordered edit list between them. Blob
// content is coerced to valid UTF-8 first (older repos commonly carry
// Latin-1 source files), so a byte offset a line-oriented diff reports
// always corresponds to a decodable rune boundary.
func (e *Engine) Diff(a, b []byte) []Edit {
	linesA := splitLines(string(util.ToValidUTF8Bytes(a)))
	linesB := splitLines(string(util.ToValidUTF8Bytes(b)))
	return e.DiffLines(linesA, linesB)
}

// DiffLines runs the configured comparator and diff algorithm over two
// pre-split line sequences.
func (e *Engine) DiffLines(linesA, linesB []string) []Edit {
	keyA := make([]string, len(linesA))
	keyB := make([]string, len(linesB))
	for i, l := range linesA {
		keyA[i] = e.normalize(l)
	}
	for i, l := range linesB {
		keyB[i] = e.normalize(l)
	}

	dmp := diffmatchpatch.New()
	textA, textB, lineArray := dmp.DiffLinesToRunes(strings.Join(keyA, "\n"), strings.Join(keyB, "\n"))
	diffs := dmp.DiffMainRunes(textA, textB, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return editsFromDiffs(diffs)
}

func (e *Engine) normalize(line string) string {
	if e.Comparator != CompareIgnoreWhitespace {
		return line
	}
	fields := strings.Fields(line)
	return strings.Join(fields, " ")
}

// editsFromDiffs walks the diffmatchpatch line-level diff and coalesces
// adjacent delete/insert runs into single edits, matching the
// (beginA,endA,beginB,endB) contract: a pure context run advances both
// cursors without emitting an edit.
func editsFromDiffs(diffs []diffmatchpatch.Diff) []Edit {
	var edits []Edit
	a, b := 0, 0
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			a += n
			b += n
		case diffmatchpatch.DiffDelete:
			beginA, beginB := a, b
			a += n
			// A delete is frequently immediately followed by an insert
			// representing a replace; fold it into one edit.
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				i++
				m := countLines(diffs[i].Text)
				b += m
				edits = append(edits, Edit{BeginA: beginA, EndA: a, BeginB: beginB, EndB: b})
				continue
			}
			edits = append(edits, Edit{BeginA: beginA, EndA: a, BeginB: beginB, EndB: b})
		case diffmatchpatch.DiffInsert:
			beginA, beginB := a, b
			b += n
			edits = append(edits, Edit{BeginA: beginA, EndA: a, BeginB: beginB, EndB: b})
		}
	}
	return edits
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// splitLines splits content into lines the way the blame algorithm counts
// them: a trailing newline does not produce a trailing empty line, but
// content with no trailing newline still counts its last partial line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
