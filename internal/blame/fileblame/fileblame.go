// Package fileblame implements the per-file blamer (§4.F): given a
// child FileCandidate's region list and an ordered edit list between a
// parent and child blob, it partitions the regions into what the parent
// is responsible for and what remains attributable to the child.
package fileblame

import (
	"github.com/haldirsson/coblame/internal/blame/region"
	"github.com/haldirsson/coblame/internal/diffengine"
)

// Loader fetches a blob's raw bytes by id.
type Loader func(id string) ([]byte, error)

// Job describes one per-file parent-blame job: the child's current
// region list and the two blob ids being compared.
type Job struct {
	ChildRegions *region.List
	ParentBlobID string
	ChildBlobID  string
}

// Result is the outcome of blaming one file across a (parent, child)
// pair. ParentRegions is nil (empty) when the parent inherits nothing.
type Result struct {
	ParentRegions *region.List
	ChildRegions  *region.List
}

// Blame runs steps 1, 2 and 5 of §4.F around the take-blame core: an
// identical blob id short-circuits to a verbatim move, otherwise the two
// blobs are diffed and partitioned; an empty edit list (possible under a
// whitespace-ignoring comparator) is likewise treated as a verbatim
// move.
func Blame(loader Loader, engine *diffengine.Engine, job Job) (Result, error) {
	if job.ParentBlobID == job.ChildBlobID {
		return verbatim(job.ChildRegions), nil
	}

	parentBytes, err := loader(job.ParentBlobID)
	if err != nil {
		return Result{}, err
	}
	childBytes, err := loader(job.ChildBlobID)
	if err != nil {
		return Result{}, err
	}

	edits := engine.Diff(parentBytes, childBytes)
	if len(edits) == 0 {
		return verbatim(job.ChildRegions), nil
	}

	parentSide, childSide := TakeBlame(job.ChildRegions, edits)
	return Result{ParentRegions: parentSide, ChildRegions: childSide}, nil
}

func verbatim(childRegions *region.List) Result {
	return Result{ParentRegions: childRegions.Clone(), ChildRegions: &region.List{}}
}

// TakeBlame is the core region-reassignment algorithm. edits is an
// ordered, non-overlapping list of (beginA, endA, beginB, endB) ranges in
// the coordinate space of regions (B = the child blob regions currently
// point into; A = the parent blob). It consumes regions' head and
// returns two fresh lists: the regions now attributed to the parent (A
// side) and the regions that stay with the child (B side, i.e. lines
// the child itself introduced).
func TakeBlame(regions *region.List, edits []diffengine.Edit) (parentSide, childSide *region.List) {
	parentSide = &region.List{}
	childSide = &region.List{}

	r := regions.Head
	ei := 0

	for r != nil {
		for ei < len(edits) && edits[ei].EndB <= r.SourceStart {
			ei++
		}
		if ei >= len(edits) {
			break
		}
		e := edits[ei]

		if r.SourceStart < e.BeginB {
			d := e.BeginB - r.SourceStart
			if r.Length <= d {
				parentSide.Append(&region.Region{
					ResultStart: r.ResultStart,
					SourceStart: e.BeginA - d,
					Length:      r.Length,
				})
				r = r.Next
				continue
			}
			parentSide.Append(&region.Region{
				ResultStart: r.ResultStart,
				SourceStart: e.BeginA - d,
				Length:      d,
			})
			r.SlideAndShrink(d)
		}

		if e.EndB == e.BeginB {
			ei++
			continue
		}

		// r.SourceStart is now in [e.BeginB, e.EndB).
		if r.SourceStart+r.Length <= e.EndB {
			childSide.Append(&region.Region{
				ResultStart: r.ResultStart,
				SourceStart: r.SourceStart,
				Length:      r.Length,
			})
			if r.SourceStart+r.Length == e.EndB {
				ei++
			}
			r = r.Next
			continue
		}

		length := e.EndB - r.SourceStart
		childSide.Append(&region.Region{
			ResultStart: r.ResultStart,
			SourceStart: r.SourceStart,
			Length:      length,
		})
		r.SlideAndShrink(length)
		ei++
	}

	if r != nil {
		shift := 0
		if len(edits) > 0 {
			last := edits[len(edits)-1]
			shift = last.EndB - last.EndA
		}
		for ; r != nil; r = r.Next {
			parentSide.Append(&region.Region{
				ResultStart: r.ResultStart,
				SourceStart: r.SourceStart - shift,
				Length:      r.Length,
			})
		}
	}

	return parentSide, childSide
}
