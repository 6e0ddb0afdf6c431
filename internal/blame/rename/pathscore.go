package rename

import "strings"

// PathNameScore scores the similarity of two paths in [0, 100], all
// integer arithmetic. Directory similarity is the average of a
// left-to-right common-prefix ratio and a right-to-left common-suffix
// ratio over max(dirLenA, dirLenB); file similarity is the right-to-left
// common-suffix of the file names over max(fileLenA, fileLenB).
// Combined: (dirScoreLTR + dirScoreRTL) * 0.25 + fileScore * 0.5.
func PathNameScore(a, b string) int {
	dirA, fileA := splitPath(a)
	dirB, fileB := splitPath(b)

	dirLTR, dirRTL := dirScores(dirA, dirB)
	fileScore := suffixRatio(fileA, fileB)

	return (dirLTR+dirRTL)*25/100 + fileScore*50/100
}

func splitPath(p string) (dir, file string) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

// dirScores returns (leftToRightPrefixRatio, rightToLeftSuffixRatio) in
// [0,100] each. Two empty directories score 100 on both.
func dirScores(a, b string) (ltr, rtl int) {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 100, 100
	}

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	ltr = prefix * 100 / maxLen

	suffix := 0
	for suffix < len(a) && suffix < len(b) && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	rtl = suffix * 100 / maxLen
	return
}

// suffixRatio is the right-to-left common-suffix length over
// max(len(a),len(b)), in [0,100]. Two empty strings score 100.
func suffixRatio(a, b string) int {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 100
	}
	suffix := 0
	for suffix < len(a) && suffix < len(b) && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return suffix * 100 / maxLen
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
