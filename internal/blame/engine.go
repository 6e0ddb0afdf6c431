// Package blame wires the region algebra, similarity index, rename
// detector, file-tree comparator, per-file blamer and commit-graph
// scheduler into the single entry point callers use: Run computes, for
// every requested file, the commit and author responsible for each of
// its current lines.
package blame

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/haldirsson/coblame/internal/blame/rename"
	"github.com/haldirsson/coblame/internal/blame/scheduler"
	"github.com/haldirsson/coblame/internal/blame/treediff"
	"github.com/haldirsson/coblame/internal/diffengine"
	"github.com/haldirsson/coblame/internal/objstore"
)

// Options configures one blame run (§6).
type Options struct {
	// StartCommit anchors the walk; the zero value resolves the store's
	// head.
	StartCommit objstore.ObjectID
	// UseWorkingTree, when set, inserts a synthetic node ahead of
	// StartCommit representing uncommitted content (§4.G, workdir
	// variant). Reader and Overrides supply that content.
	UseWorkingTree bool
	Reader         scheduler.WorkingTreeReader
	Overrides      map[string][]byte

	// FilePaths restricts the walk to these paths; empty means every
	// regular file in the starting tree.
	FilePaths []string

	RenameScore       int
	BreakScore        int
	RenameLimit       int
	BigFileThreshold  int64
	SkipBinaryRenames bool

	LineComparator diffengine.LineComparator
	Algorithm      diffengine.Algorithm

	// Workers bounds the per-file blame worker pool; <= 1 runs
	// sequentially.
	Workers int

	Progress func(iteration int, commitHash string)
	Cancel   <-chan struct{}
}

// Line is one resolved attribution, or nil when the line was never
// attributed (possible under Cancel, §7).
type Line struct {
	CommitHash  string
	CommitDate  time.Time
	AuthorEmail string
}

// FileResult is one blamed file's per-line attribution array, indexed by
// the line's position in the content at StartCommit (0-based).
type FileResult struct {
	Path  string
	Lines []*Line
}

// Run executes the blame walk and returns results sorted by path.
func Run(ctx context.Context, store objstore.ObjectStore, opts Options) ([]FileResult, error) {
	start := opts.StartCommit
	if start.IsZero() {
		head, ok, err := store.Head(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoHead
		}
		start = head
	}

	loader := func(id string) ([]byte, error) {
		return objstore.ReadAll(ctx, store, objstore.ObjectID(id))
	}

	detector := &rename.Detector{
		Load: loader,
		Opts: rename.DetectorOptions{
			RenameScore: fallback(opts.RenameScore, 60),
			BreakScore:  fallback(opts.BreakScore, -1),
			// RenameLimit's zero value already means "unlimited" (the
			// detector's own default, §6), so it is passed through as-is
			// rather than substituted like the other knobs: a caller that
			// never sets it and a caller that explicitly asks for
			// unlimited are indistinguishable, and both want 0.
			RenameLimit:       opts.RenameLimit,
			BigFileThreshold:  fallback64(opts.BigFileThreshold, 50<<20),
			SkipBinaryContent: opts.SkipBinaryRenames,
		},
	}
	comparator := treediff.New(store, detector)
	engine := diffengine.New(opts.LineComparator, opts.Algorithm)
	results := scheduler.NewResultStore()

	sched := scheduler.New(scheduler.Config{
		Store:      store,
		Comparator: comparator,
		Engine:     engine,
		Results:    results,
		Workers:    opts.Workers,
		Progress:   opts.Progress,
		Cancel:     opts.Cancel,
		Reader:     opts.Reader,
		Overrides:  opts.Overrides,
	})

	filePaths := toPathSet(opts.FilePaths)
	if err := sched.Initialize(ctx, start, opts.UseWorkingTree, filePaths); err != nil {
		return nil, err
	}
	if err := sched.Run(ctx); err != nil {
		if errors.Is(err, scheduler.ErrCancelled) {
			return project(results), err
		}
		return nil, err
	}

	return project(results), nil
}

func toPathSet(paths []string) map[string]bool {
	if len(paths) == 0 {
		return nil
	}
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}

func project(results *scheduler.ResultStore) []FileResult {
	all := results.All()
	out := make([]FileResult, 0, len(all))
	for path, fr := range all {
		lines := make([]*Line, len(fr.Attributions))
		for i, a := range fr.Attributions {
			if a == nil {
				continue
			}
			lines[i] = &Line{CommitHash: a.CommitHash, CommitDate: a.CommitDate, AuthorEmail: a.AuthorEmail}
		}
		out = append(out, FileResult{Path: path, Lines: lines})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func fallback(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func fallback64(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}
