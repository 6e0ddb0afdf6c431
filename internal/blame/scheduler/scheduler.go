package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haldirsson/coblame/internal/blame/fileblame"
	"github.com/haldirsson/coblame/internal/blame/region"
	"github.com/haldirsson/coblame/internal/blame/treediff"
	"github.com/haldirsson/coblame/internal/diffengine"
	"github.com/haldirsson/coblame/internal/objstore"
)

// WorkingTreeReader is the out-of-scope working-directory file reader
// collaborator (§1), used only for paths a caller did not supply via
// fileContentOverrides.
type WorkingTreeReader interface {
	ReadFile(path string) ([]byte, error)
}

// Config wires the scheduler's collaborators and §6 options together.
type Config struct {
	Store      objstore.ObjectStore
	Comparator *treediff.Comparator
	Engine     *diffengine.Engine
	Results    *ResultStore

	// Workers bounds the per-expansion blame worker pool; 0 or 1 runs
	// jobs in-place on the scheduler goroutine for deterministic
	// debugging and small inputs (§5).
	Workers int

	// Progress is called once per frontier pop, after the node is fully
	// processed, with a monotonically increasing iteration counter and
	// the node's commit hash ("" for the workdir node).
	Progress func(iteration int, commitHash string)

	// Cancel, if non-nil, is polled between frontier pops and between
	// per-parent loops (§5); a closed channel aborts the walk.
	Cancel <-chan struct{}

	Reader    WorkingTreeReader
	Overrides map[string][]byte
}

// Scheduler drives the commit-graph walk described in §4.G.
type Scheduler struct {
	cfg      Config
	frontier *frontier
}

// New builds a scheduler ready to Initialize and Run.
func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg, frontier: newFrontier()}
}

// cancelled reports whether the cooperative cancellation signal fired.
func (s *Scheduler) cancelled() bool {
	if s.cfg.Cancel == nil {
		return false
	}
	select {
	case <-s.cfg.Cancel:
		return true
	default:
		return false
	}
}

// ErrCancelled is returned by Run when the cooperative cancellation
// signal fires mid-walk. Partial results remain in the configured
// ResultStore (§7, Cancelled).
var ErrCancelled = fmt.Errorf("scheduler: cancelled")

// Initialize builds the starting GraphNode for startCommit (or the
// working tree anchored at it, when useWorkDir is set), enumerating its
// tree filtered by filePaths (nil/empty means "all files"), and pushes
// it onto the frontier.
func (s *Scheduler) Initialize(ctx context.Context, startCommit objstore.ObjectID, useWorkDir bool, filePaths map[string]bool) error {
	var node *GraphNode
	var entries []objstore.TreeEntry
	var err error

	entries, err = s.cfg.Store.Tree(ctx, startCommit)
	if err != nil {
		return err
	}

	if useWorkDir {
		node = newNode("")
		node.IsWorkDir = true
		node.ParentCommit = startCommit
		node.Overridden = make(map[string]bool)
	} else {
		info, err := s.cfg.Store.Commit(ctx, startCommit)
		if err != nil {
			return err
		}
		node = newNode(startCommit)
		node.Info = info
	}

	for _, e := range entries {
		if e.Kind != objstore.KindRegular {
			continue
		}
		if len(filePaths) > 0 && !filePaths[e.Path] {
			continue
		}

		blob := e.Blob
		var content []byte
		if useWorkDir {
			if c, ok := s.cfg.Overrides[e.Path]; ok {
				content = c
				node.Overridden[e.Path] = true
			} else if s.cfg.Reader != nil {
				if c, err := s.cfg.Reader.ReadFile(e.Path); err == nil {
					content = c
					node.Overridden[e.Path] = true
				} else {
					content, err = objstore.ReadAll(ctx, s.cfg.Store, e.Blob)
					if err != nil {
						return err
					}
				}
			} else {
				content, err = objstore.ReadAll(ctx, s.cfg.Store, e.Blob)
				if err != nil {
					return err
				}
			}
			blob = ""
		} else {
			content, err = objstore.ReadAll(ctx, s.cfg.Store, e.Blob)
			if err != nil {
				return err
			}
		}

		lineCount := diffengine.CountLines(content)
		s.cfg.Results.Init(e.Path, lineCount)
		if lineCount == 0 {
			continue
		}
		node.addCandidate(&FileCandidate{
			OriginalPath: e.Path,
			Path:         e.Path,
			Blob:         blob,
			Regions:      region.FromRegion(region.New(0, 0, lineCount)),
		})
	}

	s.frontier.push(node)
	return nil
}

// Run drains the frontier until empty or cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	iteration := 0
	for !s.frontier.empty() {
		if s.cancelled() {
			return ErrCancelled
		}
		node := s.frontier.pop()
		if err := s.step(ctx, node); err != nil {
			return err
		}
		iteration++
		if s.cfg.Progress != nil {
			s.cfg.Progress(iteration, commitLabel(node))
		}
	}
	return nil
}

func commitLabel(n *GraphNode) string {
	if n.IsWorkDir {
		return ""
	}
	return string(n.Commit)
}

// diffEntry bundles the three outcomes a candidate's path can have
// against one parent: absent from the diff set (pass 1 eligible),
// present with an exact content match (pass 2), or present as a genuine
// modification (pass 3).
type diffEntry struct {
	oldPath *string
	oldID   objstore.ObjectID
}

// step expands the popped node against its parents (§4.G). A node with
// no parents finalizes all remaining candidate regions to its own
// commit.
func (s *Scheduler) step(ctx context.Context, node *GraphNode) error {
	parents := node.ParentIDs()
	if len(parents) == 0 {
		s.finalizeAll(node, node.All())
		return nil
	}

	targetPaths := node.Paths()
	parentDiffs := make(map[objstore.ObjectID]map[string]diffEntry, len(parents))
	for _, p := range parents {
		if s.cancelled() {
			return ErrCancelled
		}
		files, _, err := s.diffFilesForParent(ctx, node, p, targetPaths)
		if err != nil {
			return err
		}
		m := make(map[string]diffEntry, len(files))
		for _, f := range files {
			m[f.NewPath] = diffEntry{oldPath: f.OldPath, oldID: f.OldObjectID}
		}
		parentDiffs[p] = m
	}

	accum := make(map[objstore.ObjectID]*GraphNode)
	var accumMu sync.Mutex
	unclaimed := make([]*FileCandidate, len(node.All()))

	workers := s.cfg.Workers
	if workers <= 1 {
		for i, c := range node.All() {
			remaining, err := s.resolveCandidate(ctx, node, c, parents, parentDiffs, accum, &accumMu)
			if err != nil {
				return err
			}
			unclaimed[i] = claimedCandidate(c, remaining)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, c := range node.All() {
			i, c := i, c
			g.Go(func() error {
				remaining, err := s.resolveCandidate(gctx, node, c, parents, parentDiffs, accum, &accumMu)
				if err != nil {
					return err
				}
				unclaimed[i] = claimedCandidate(c, remaining)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	claimed := unclaimed[:0]
	for _, c := range unclaimed {
		if c != nil {
			claimed = append(claimed, c)
		}
	}

	for _, parentNode := range accum {
		s.frontier.push(parentNode)
	}
	s.finalizeAll(node, claimed)
	return nil
}

// claimedCandidate wraps whatever region list resolveCandidate could not
// explain via any parent back into a FileCandidate for finalization, or
// returns nil when the candidate was fully claimed.
func claimedCandidate(c *FileCandidate, remaining *region.List) *FileCandidate {
	if remaining.Empty() {
		return nil
	}
	return &FileCandidate{
		OriginalPath: c.OriginalPath,
		Path:         c.Path,
		Blob:         c.Blob,
		Regions:      remaining,
	}
}

// resolveCandidate evaluates one candidate against all of its node's
// parents, attaching claimed region clones to the per-parent
// accumulation nodes, and returns whatever region list could not be
// explained by any parent.
//
// Passes run in priority order, each checked across every parent before
// the next is attempted (see DESIGN.md for why this ordering — not a
// per-parent loop of all three passes — is required to match the
// "merge prefers same-path parent" and "exact content short-circuits"
// scenarios simultaneously): pass 1 (unmodified path) and pass 2 (exact
// content match elsewhere) both claim the candidate's entire region list
// and may hand it to more than one parent when multiple parents are
// equally valid origins. Pass 3 (genuine per-parent diff) is only
// attempted when neither earlier pass claimed anything, and then
// consumes parents sequentially in declared order, since each parent's
// blame job can only explain what the previous one left unexplained.
func (s *Scheduler) resolveCandidate(
	ctx context.Context,
	node *GraphNode,
	c *FileCandidate,
	parents []objstore.ObjectID,
	parentDiffs map[objstore.ObjectID]map[string]diffEntry,
	accum map[objstore.ObjectID]*GraphNode,
	accumMu *sync.Mutex,
) (*region.List, error) {
	var pass1, pass2, pass3 []objstore.ObjectID
	pass3Entry := make(map[objstore.ObjectID]diffEntry)

	for _, p := range parents {
		entry, ok := parentDiffs[p][c.Path]
		switch {
		case !ok:
			pass1 = append(pass1, p)
		case entry.oldPath == nil:
			// Pure ADD relative to this parent: it contributes nothing.
		case entry.oldID == c.Blob:
			pass2 = append(pass2, p)
		default:
			pass3 = append(pass3, p)
			pass3Entry[p] = entry
		}
	}

	if len(pass1) > 0 {
		for _, p := range pass1 {
			s.attach(accum, accumMu, c.OriginalPath, p, c.Path, c.Blob, c.Regions.Clone())
		}
		return &region.List{}, nil
	}

	if len(pass2) > 0 {
		for _, p := range pass2 {
			op := *parentDiffs[p][c.Path].oldPath
			s.attach(accum, accumMu, c.OriginalPath, p, op, c.Blob, c.Regions.Clone())
		}
		return &region.List{}, nil
	}

	remaining := c.Regions.Clone()
	loader := func(id string) ([]byte, error) {
		if id == "" && node.IsWorkDir {
			if b, ok := s.cfg.Overrides[c.OriginalPath]; ok {
				return b, nil
			}
			if s.cfg.Reader != nil {
				return s.cfg.Reader.ReadFile(c.OriginalPath)
			}
		}
		return objstore.ReadAll(ctx, s.cfg.Store, objstore.ObjectID(id))
	}
	for _, p := range pass3 {
		if remaining.Empty() {
			break
		}
		if s.cancelled() {
			return nil, ErrCancelled
		}
		entry := pass3Entry[p]
		res, err := fileblame.Blame(loader, s.cfg.Engine, fileblame.Job{
			ChildRegions: remaining,
			ParentBlobID: string(entry.oldID),
			ChildBlobID:  string(c.Blob),
		})
		if err != nil {
			return nil, err
		}
		if !res.ParentRegions.Empty() {
			s.attach(accum, accumMu, c.OriginalPath, p, *entry.oldPath, entry.oldID, res.ParentRegions)
		}
		remaining = res.ChildRegions
	}

	return remaining, nil
}

// attach hands regions to the accumulation node for parentID as a
// candidate at the parent-side path and blob, keeping the originalPath of
// the child candidate that owns them so finalization lands on the
// requested file even across renames.
func (s *Scheduler) attach(accum map[objstore.ObjectID]*GraphNode, accumMu *sync.Mutex, originalPath string, parentID objstore.ObjectID, path string, blob objstore.ObjectID, regions *region.List) {
	if regions.Empty() {
		return
	}

	accumMu.Lock()
	defer accumMu.Unlock()
	pn, ok := accum[parentID]
	if !ok {
		pn = s.newParentNode(parentID)
		accum[parentID] = pn
	}
	pn.addCandidate(&FileCandidate{
		OriginalPath: originalPath,
		Path:         path,
		Blob:         blob,
		Regions:      regions,
	})
}

func (s *Scheduler) newParentNode(id objstore.ObjectID) *GraphNode {
	n := newNode(id)
	return n
}

// diffFilesForParent computes the comparator output for one parent. The
// working-tree node synthesizes its diff set directly from the override
// map instead of the real comparator, since it has no object-store
// commit of its own to diff against (§1: the working-directory reader is
// an external collaborator, not a tree the object store knows about).
func (s *Scheduler) diffFilesForParent(ctx context.Context, node *GraphNode, parent objstore.ObjectID, targetPaths map[string]bool) ([]treediff.DiffFile, bool, error) {
	if !node.IsWorkDir {
		return s.cfg.Comparator.Compare(ctx, parent, node.Commit, targetPaths)
	}

	anchorEntries, err := s.cfg.Store.Tree(ctx, parent)
	if err != nil {
		return nil, false, err
	}
	anchorByPath := make(map[string]objstore.ObjectID, len(anchorEntries))
	for _, e := range anchorEntries {
		anchorByPath[e.Path] = e.Blob
	}

	var files []treediff.DiffFile
	paths := make([]string, 0, len(targetPaths))
	for p := range targetPaths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if !node.Overridden[path] {
			continue
		}
		blob, ok := anchorByPath[path]
		if !ok {
			files = append(files, treediff.DiffFile{NewPath: path})
			continue
		}
		op := path
		files = append(files, treediff.DiffFile{NewPath: path, OldPath: &op, OldObjectID: blob})
	}
	return files, false, nil
}

// finalizeAll writes every still-held region of the given candidates to
// the node's own commit — these are lines this commit (or the working
// tree) is itself responsible for introducing.
func (s *Scheduler) finalizeAll(node *GraphNode, candidates []*FileCandidate) {
	hash, date, email := commitAttribution(node)
	for _, c := range candidates {
		for r := c.Regions.Head; r != nil; r = r.Next {
			for i := 0; i < r.Length; i++ {
				s.cfg.Results.Attribute(c.OriginalPath, r.ResultStart+i, Attribution{
					CommitHash:  hash,
					CommitDate:  date,
					AuthorEmail: email,
				})
			}
		}
	}
}

func commitAttribution(node *GraphNode) (hash string, date time.Time, email string) {
	if node.IsWorkDir || node.Info == nil {
		return "", time.Time{}, ""
	}
	return string(node.Commit), node.Info.CommitterDate, node.Info.AuthorEmail
}
