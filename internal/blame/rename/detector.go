package rename

import "sort"

// DetectorOptions controls the orchestrating rename detector (§4.D).
type DetectorOptions struct {
	RenameScore       int   // [0,100], default 60
	BreakScore        int   // default -1 (never break MODIFY entries)
	RenameLimit       int   // 0 = unlimited, <0 = exact-only (skip content phase)
	BigFileThreshold  int64 // default 50 MiB
	SkipBinaryContent bool
}

// Result is the final, ordered output of the detector plus the
// non-fatal degradation flags described in §7.
type Result struct {
	Entries       []Entry
	TableOverflow bool
	OverRenameLimit bool
}

// Detector orchestrates exact-id matching followed by similarity-based
// content matching, and resolves MODIFY "breaks" used to re-enable
// rename matching for heavily-rewritten same-path files.
type Detector struct {
	Load ContentLoader
	Opts DetectorOptions
}

// Detect runs the four-phase algorithm of §4.D over a bucket of
// DiffEntry items collected for one (parent, child) tree comparison.
func (dt *Detector) Detect(entries []Entry) Result {
	opts := dt.Opts

	var adds, deletes, modifies, others []Entry
	for _, e := range entries {
		switch e.Type {
		case Add:
			adds = append(adds, e)
		case Delete:
			deletes = append(deletes, e)
		case Modify:
			modifies = append(modifies, e)
		default:
			others = append(others, e)
		}
	}

	// Phase 1: break weak modifications.
	var brokenPairs []brokenPair
	var keptModifies []Entry
	if opts.BreakScore > 0 {
		sd := &SimilarityDetector{Load: dt.Load, Opts: SimilarityOptions{
			RenameScore:       0,
			BigFileThreshold:  opts.BigFileThreshold,
			SkipBinaryContent: opts.SkipBinaryContent,
		}}
		for _, m := range modifies {
			score := singlePairScore(sd, m.OldID, m.NewID)
			if score < opts.BreakScore {
				brokenPairs = append(brokenPairs, brokenPair{oldPath: m.OldPath, newPath: m.NewPath})
				deletes = append(deletes, Entry{Type: Delete, OldPath: m.OldPath, OldID: m.OldID, OldMode: m.OldMode})
				adds = append(adds, Entry{Type: Add, NewPath: m.NewPath, NewID: m.NewID, NewMode: m.NewMode})
			} else {
				keptModifies = append(keptModifies, m)
			}
		}
	} else {
		keptModifies = modifies
	}

	matchedSource := make(map[string]bool)

	// Phase 2: exact renames (blob-id equality, score = 100).
	exactOut, remAdds, remDeletes := exactPhase(adds, deletes, matchedSource)

	// Phase 3: content renames.
	overLimit := false
	var contentOut []Entry
	tableOverflow := false
	if len(remAdds) > 0 && len(remDeletes) > 0 {
		switch {
		case opts.RenameLimit < 0:
			// exact-only: content phase skipped entirely.
		case opts.RenameLimit == 0 || len(remAdds)*len(remDeletes) <= opts.RenameLimit:
			sd := &SimilarityDetector{Load: dt.Load, Opts: SimilarityOptions{
				RenameScore:       opts.RenameScore,
				BigFileThreshold:  opts.BigFileThreshold,
				SkipBinaryContent: opts.SkipBinaryContent,
			}}
			// deterministic secondary sort: the open question in the
			// design notes calls for imposing an order on the remaining
			// deletes before the content phase, since map iteration
			// order is otherwise unstable.
			sort.Slice(remDeletes, func(i, j int) bool { return remDeletes[i].OldPath < remDeletes[j].OldPath })
			sort.Slice(remAdds, func(i, j int) bool { return remAdds[i].NewPath < remAdds[j].NewPath })

			res := sd.Detect(remDeletes, remAdds, matchedSource)
			contentOut = res.Entries
			tableOverflow = res.TableOverflow

			matchedAdds := make(map[string]bool, len(contentOut))
			matchedDeletes := make(map[string]bool, len(contentOut))
			for _, e := range contentOut {
				matchedAdds[e.NewPath] = true
				matchedDeletes[e.OldPath] = true
			}
			remAdds = filterOut(remAdds, func(e Entry) bool { return matchedAdds[e.NewPath] })
			remDeletes = filterOut(remDeletes, func(e Entry) bool { return matchedDeletes[e.OldPath] })
		default:
			overLimit = true
		}
	}

	// Phase 4: rejoin broken modifications that didn't pair off as
	// renames to a different path. Last-write-wins keyed by newPath,
	// per the design notes' resolution of the open question.
	rejoined := make(map[string]Entry) // newPath -> MODIFY entry
	claimedByRename := make(map[string]bool)
	for _, e := range exactOut {
		claimedByRename[e.NewPath] = true
		claimedByRename[e.OldPath] = true
	}
	for _, e := range contentOut {
		claimedByRename[e.NewPath] = true
		claimedByRename[e.OldPath] = true
	}

	if len(brokenPairs) > 0 {
		addByPath := make(map[string]Entry, len(remAdds))
		for _, e := range remAdds {
			addByPath[e.NewPath] = e
		}
		deleteByPath := make(map[string]Entry, len(remDeletes))
		for _, e := range remDeletes {
			deleteByPath[e.OldPath] = e
		}
		for _, bp := range brokenPairs {
			if claimedByRename[bp.oldPath] || claimedByRename[bp.newPath] {
				continue
			}
			a, hasAdd := addByPath[bp.newPath]
			d, hasDelete := deleteByPath[bp.oldPath]
			if hasAdd && hasDelete {
				rejoined[bp.newPath] = Entry{
					Type: Modify, OldPath: d.OldPath, NewPath: a.NewPath,
					OldID: d.OldID, NewID: a.NewID, OldMode: d.OldMode, NewMode: a.NewMode,
				}
				delete(addByPath, bp.newPath)
				delete(deleteByPath, bp.oldPath)
			}
		}
		remAdds = remAdds[:0]
		for _, e := range addByPath {
			remAdds = append(remAdds, e)
		}
		remDeletes = remDeletes[:0]
		for _, e := range deleteByPath {
			remDeletes = append(remDeletes, e)
		}
	}

	var final []Entry
	final = append(final, keptModifies...)
	final = append(final, exactOut...)
	final = append(final, contentOut...)
	final = append(final, others...)
	final = append(final, remAdds...)
	final = append(final, remDeletes...)
	for _, e := range rejoined {
		final = append(final, e)
	}

	sort.SliceStable(final, func(i, j int) bool {
		ni, nj := nameOf(final[i]), nameOf(final[j])
		if ni != nj {
			return ni < nj
		}
		return sortRank(final[i].Type) < sortRank(final[j].Type)
	})

	return Result{Entries: final, TableOverflow: tableOverflow, OverRenameLimit: overLimit}
}

type brokenPair struct {
	oldPath, newPath string
}

func singlePairScore(sd *SimilarityDetector, oldID, newID string) int {
	if oldID == "" || newID == "" {
		return 0
	}
	// Reuse the similarity machinery directly for a single-pair score.
	res := sd.Detect(
		[]Entry{{OldPath: "a", OldID: oldID, OldMode: ModeRegular}},
		[]Entry{{NewPath: "a", NewID: newID, NewMode: ModeRegular}},
		map[string]bool{},
	)
	if len(res.Entries) == 0 {
		return 0
	}
	return res.Entries[0].Score
}

func filterOut(entries []Entry, drop func(Entry) bool) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if !drop(e) {
			out = append(out, e)
		}
	}
	return out
}

// exactPhase implements the blob-id-equality rename resolution of §4.D
// step 2: one-to-one, one-add-to-many-deletes, many-adds-to-one-delete,
// and many-to-many cases.
func exactPhase(adds, deletes []Entry, matchedSource map[string]bool) (out []Entry, remAdds, remDeletes []Entry) {
	deletesByID := make(map[string][]Entry)
	for _, d := range deletes {
		deletesByID[d.OldID] = append(deletesByID[d.OldID], d)
	}
	addsByID := make(map[string][]Entry)
	for _, a := range adds {
		addsByID[a.NewID] = append(addsByID[a.NewID], a)
	}

	var ids []string
	for id := range addsByID {
		if _, ok := deletesByID[id]; ok && id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		as := addsByID[id]
		ds := deletesByID[id]

		switch {
		case len(as) == 1 && len(ds) == 1:
			if modeCompatible(as[0].NewMode, ds[0].OldMode) {
				out = append(out, renameOrCopy(ds[0], as[0], matchedSource))
			} else {
				remAdds = append(remAdds, as[0])
				remDeletes = append(remDeletes, ds[0])
			}
		case len(as) == 1 && len(ds) > 1:
			best := bestMatch(ds, as[0].NewPath, func(d Entry) bool { return modeCompatible(as[0].NewMode, d.OldMode) })
			if best >= 0 {
				out = append(out, renameOrCopy(ds[best], as[0], matchedSource))
				for i, d := range ds {
					if i != best {
						remDeletes = append(remDeletes, d)
					}
				}
			} else {
				remAdds = append(remAdds, as[0])
				remDeletes = append(remDeletes, ds...)
			}
		case len(as) > 1 && len(ds) == 1:
			best := bestMatch(as, ds[0].OldPath, func(a Entry) bool { return modeCompatible(a.NewMode, ds[0].OldMode) })
			if best >= 0 {
				out = append(out, renameOrCopy(ds[0], as[best], matchedSource))
				for i, a := range as {
					if i != best {
						// same source matched again -> always COPY
						out = append(out, Entry{
							Type: Copy, OldPath: ds[0].OldPath, NewPath: a.NewPath,
							OldID: ds[0].OldID, NewID: a.NewID, OldMode: ds[0].OldMode, NewMode: a.NewMode,
						})
					}
				}
			} else {
				remAdds = append(remAdds, as...)
				remDeletes = append(remDeletes, ds[0])
			}
		default: // many-to-many
			type pair struct {
				score  int
				ai, di int
			}
			var pairs []pair
			for ai, a := range as {
				for di, d := range ds {
					if !modeCompatible(a.NewMode, d.OldMode) {
						continue
					}
					pairs = append(pairs, pair{score: PathNameScore(d.OldPath, a.NewPath), ai: ai, di: di})
				}
			}
			sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
			claimedA := make(map[int]bool)
			claimedD := make(map[int]bool)
			for _, p := range pairs {
				if claimedA[p.ai] {
					continue
				}
				claimedA[p.ai] = true
				out = append(out, renameOrCopy(ds[p.di], as[p.ai], matchedSource))
				claimedD[p.di] = true
			}
			for i, a := range as {
				if !claimedA[i] {
					remAdds = append(remAdds, a)
				}
			}
			for i, d := range ds {
				if !claimedD[i] {
					remDeletes = append(remDeletes, d)
				}
			}
		}
	}

	matchedIDs := make(map[string]bool, len(ids))
	for _, id := range ids {
		matchedIDs[id] = true
	}
	for id, as := range addsByID {
		if matchedIDs[id] {
			continue
		}
		remAdds = append(remAdds, as...)
	}
	for id, ds := range deletesByID {
		if matchedIDs[id] {
			continue
		}
		remDeletes = append(remDeletes, ds...)
	}

	return out, remAdds, remDeletes
}

func renameOrCopy(d, a Entry, matchedSource map[string]bool) Entry {
	e := Entry{
		OldPath: d.OldPath, NewPath: a.NewPath,
		OldID: d.OldID, NewID: a.NewID,
		OldMode: d.OldMode, NewMode: a.NewMode,
		Score: 100,
	}
	if !matchedSource[d.OldPath] {
		e.Type = Rename
		matchedSource[d.OldPath] = true
	} else {
		e.Type = Copy
	}
	return e
}

// bestMatch returns the index within candidates whose path best matches
// target by PathNameScore, restricted to those satisfying ok. Returns -1
// if none satisfy ok.
func bestMatch(candidates []Entry, target string, ok func(Entry) bool) int {
	best := -1
	bestScore := -1
	for i, c := range candidates {
		if !ok(c) {
			continue
		}
		var score int
		if c.NewPath != "" {
			score = PathNameScore(c.NewPath, target)
		} else {
			score = PathNameScore(c.OldPath, target)
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}
