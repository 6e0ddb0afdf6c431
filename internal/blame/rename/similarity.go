package rename

import (
	"sort"

	"github.com/haldirsson/coblame/internal/blame/simindex"
)

// ContentLoader returns the full content of a blob by object id.
type ContentLoader func(id string) ([]byte, error)

const indexMask = (1 << 28) - 1

// SimilarityOptions controls the similarity rename detector (§4.C).
type SimilarityOptions struct {
	RenameScore       int   // [0,100], threshold below which pairs are discarded
	BigFileThreshold  int64 // bytes; pairs where max(size) exceeds this are discarded
	SkipBinaryContent bool  // skip pairs where either blob is binary
	IndexCapacity     int   // simindex table capacity override, 0 = default
}

// SimilarityResult is the output of the similarity detector.
type SimilarityResult struct {
	Entries       []Entry
	TableOverflow bool
}

// SimilarityDetector pairs added paths with deleted paths by content
// similarity (via a shingled-hash simindex) and by path-name similarity.
type SimilarityDetector struct {
	Load ContentLoader
	Opts SimilarityOptions
}

// Detect runs the similarity-based match between sources (typically the
// DELETE side) and destinations (typically the ADD side). matchedSource
// tracks old-paths already claimed by an exact rename elsewhere so that
// a re-match here emits COPY rather than RENAME; it is mutated in place
// to record renames claimed during this call too.
func (sd *SimilarityDetector) Detect(sources, destinations []Entry, matchedSource map[string]bool) SimilarityResult {
	if matchedSource == nil {
		matchedSource = make(map[string]bool)
	}
	if len(sources) == 0 || len(destinations) == 0 {
		return SimilarityResult{}
	}

	opts := sd.Opts
	renameScore := opts.RenameScore
	bigFile := opts.BigFileThreshold
	if bigFile == 0 {
		bigFile = 1 << 62
	}

	srcIdx := make([]*simindex.Index, len(sources))
	srcSkip := make([]bool, len(sources)) // overflow or not-comparable: skip entirely
	srcSize := make([]int64, len(sources))
	dstIdx := make([]*simindex.Index, len(destinations))
	dstSkip := make([]bool, len(destinations))
	dstSize := make([]int64, len(destinations))

	overflow := false

	loadSize := func(id string) int64 {
		b, err := sd.Load(id)
		if err != nil {
			return 0
		}
		return int64(len(b))
	}
	for i, s := range sources {
		srcSize[i] = loadSize(s.OldID)
	}
	for j, d := range destinations {
		dstSize[j] = loadSize(d.NewID)
	}

	ensureSrcIdx := func(i int) (*simindex.Index, bool) {
		if srcIdx[i] != nil || srcSkip[i] {
			return srcIdx[i], !srcSkip[i]
		}
		b, err := sd.Load(sources[i].OldID)
		if err != nil {
			srcSkip[i] = true
			return nil, false
		}
		idx, ok, err := simindex.Build(b, simindex.Options{Capacity: opts.IndexCapacity})
		if err == simindex.ErrTableFull {
			srcSkip[i] = true
			overflow = true
			return nil, false
		}
		if err != nil || !ok {
			srcSkip[i] = true
			return nil, false
		}
		srcIdx[i] = idx
		return idx, true
	}
	ensureDstIdx := func(j int) (*simindex.Index, bool) {
		if dstIdx[j] != nil || dstSkip[j] {
			return dstIdx[j], !dstSkip[j]
		}
		b, err := sd.Load(destinations[j].NewID)
		if err != nil {
			dstSkip[j] = true
			return nil, false
		}
		idx, ok, err := simindex.Build(b, simindex.Options{Capacity: opts.IndexCapacity})
		if err == simindex.ErrTableFull {
			dstSkip[j] = true
			overflow = true
			return nil, false
		}
		if err != nil || !ok {
			dstSkip[j] = true
			return nil, false
		}
		dstIdx[j] = idx
		return idx, true
	}

	var encoded []uint64
	for i, s := range sources {
		if s.OldMode != ModeRegular {
			continue
		}
		if srcSkip[i] {
			continue
		}
		sourceBinary := false
		if opts.SkipBinaryContent {
			b, err := sd.Load(s.OldID)
			if err == nil && simindex.IsBinary(b) {
				sourceBinary = true
			}
		}

	destLoop:
		for j, d := range destinations {
			if d.NewMode != ModeRegular {
				continue
			}
			if dstSkip[j] {
				continue
			}

			minSize, maxSize := srcSize[i], dstSize[j]
			if minSize > maxSize {
				minSize, maxSize = maxSize, minSize
			}
			if maxSize > bigFile {
				continue
			}
			if maxSize == 0 {
				continue
			}
			if 100*minSize/maxSize < int64(renameScore) {
				continue
			}

			if opts.SkipBinaryContent {
				if sourceBinary {
					// entire source is skipped for all destinations.
					break destLoop
				}
				b, err := sd.Load(d.NewID)
				if err == nil && simindex.IsBinary(b) {
					continue
				}
			}

			sIdx, sOK := ensureSrcIdx(i)
			if !sOK {
				// source itself failed: skip all destinations for it.
				break destLoop
			}
			dIdx, dOK := ensureDstIdx(j)
			if !dOK {
				continue
			}

			contentScore := simindex.Score(sIdx, dIdx, 10000)
			nameScore := PathNameScore(s.OldPath, d.NewPath) * 100
			final := (99*contentScore + 1*nameScore) / 10000
			if final > 127 {
				final = 127
			}
			if final < 0 {
				final = 0
			}
			if final < renameScore {
				continue
			}

			encoded = append(encoded, encodePair(final, i, j))
		}
	}

	sort.Slice(encoded, func(a, b int) bool { return encoded[a] > encoded[b] })

	destClaimed := make([]bool, len(destinations))
	var out []Entry
	for _, e := range encoded {
		score, i, j := decodePair(e)
		if destClaimed[j] {
			continue
		}
		destClaimed[j] = true

		s, d := sources[i], destinations[j]
		entry := Entry{
			OldPath: s.OldPath,
			NewPath: d.NewPath,
			OldID:   s.OldID,
			NewID:   d.NewID,
			OldMode: s.OldMode,
			NewMode: d.NewMode,
			Score:   score,
		}
		if !matchedSource[s.OldPath] {
			entry.Type = Rename
			matchedSource[s.OldPath] = true
		} else {
			entry.Type = Copy
		}
		out = append(out, entry)
	}

	return SimilarityResult{Entries: out, TableOverflow: overflow}
}

func encodePair(score, srcIdx, dstIdx int) uint64 {
	return uint64(score)<<56 | uint64(indexMask-srcIdx)<<28 | uint64(indexMask-dstIdx)
}

func decodePair(v uint64) (score, srcIdx, dstIdx int) {
	score = int(v >> 56)
	srcIdx = indexMask - int((v>>28)&indexMask)
	dstIdx = indexMask - int(v&indexMask)
	return
}
