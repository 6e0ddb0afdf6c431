package rename

import "testing"

func TestPathNameScoreEmptyStrings(t *testing.T) {
	if got := PathNameScore("", ""); got != 100 {
		t.Fatalf("empty/empty = %d, want 100", got)
	}
}

func TestPathNameScoreIdentical(t *testing.T) {
	if got := PathNameScore("src/pkg/file.go", "src/pkg/file.go"); got != 100 {
		t.Fatalf("identical = %d, want 100", got)
	}
}

func TestPathNameScoreCompletelyDisjoint(t *testing.T) {
	got := PathNameScore("aaa/bbb/ccc", "xxx/yyy/zzz")
	if got != 0 {
		t.Fatalf("disjoint score = %d, want 0", got)
	}
}

func TestPathNameScoreRenameWithinSameDir(t *testing.T) {
	// same directory, similar filename suffix: should score high
	got := PathNameScore("src/pkg/old_name.go", "src/pkg/new_name.go")
	if got < 50 {
		t.Fatalf("same-dir rename score too low: %d", got)
	}
}
