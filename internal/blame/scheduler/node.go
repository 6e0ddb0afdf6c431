// Package scheduler implements the commit-graph blame scheduler (§4.G):
// a priority-ordered graph walk that pops the most recent frontier node,
// expands it against its parents using the file-tree comparator and the
// per-file blamer, and pushes parent-side nodes back onto the frontier
// until every line of every target file has been attributed.
package scheduler

import (
	"container/heap"

	"github.com/haldirsson/coblame/internal/blame/region"
	"github.com/haldirsson/coblame/internal/objstore"
)

// FileCandidate tracks one file through history (§3). OriginalPath never
// changes; Path is the file's name inside the node currently holding it.
// Blob is the content id the candidate currently points at — the zero
// sentinel id means "working directory at OriginalPath".
type FileCandidate struct {
	OriginalPath string
	Path         string
	Blob         objstore.ObjectID
	Regions      *region.List
}

func (c *FileCandidate) clone() *FileCandidate {
	return &FileCandidate{
		OriginalPath: c.OriginalPath,
		Path:         c.Path,
		Blob:         c.Blob,
		Regions:      c.Regions.Clone(),
	}
}

// GraphNode is a frontier node: a commit (or the working tree) plus the
// FileCandidates whose unattributed regions last passed through it.
type GraphNode struct {
	Commit       objstore.ObjectID
	IsWorkDir    bool
	ParentCommit objstore.ObjectID // anchor parent, used only by the working-tree variant
	Info         *objstore.CommitInfo
	Overridden   map[string]bool // paths with working-tree content overrides (workdir node only)

	byPath map[string][]*FileCandidate
	all    []*FileCandidate

	heapIndex int
}

func newNode(commit objstore.ObjectID) *GraphNode {
	return &GraphNode{Commit: commit, byPath: make(map[string][]*FileCandidate)}
}

// identity is the key push() uses to detect an already-frontier node of
// the same commit. The working-tree variant's identity is its anchor
// (there is only ever one working-tree node per walk).
func (n *GraphNode) identity() objstore.ObjectID {
	if n.IsWorkDir {
		return "workdir:" + n.ParentCommit
	}
	return n.Commit
}

// ParentIDs returns the node's parents in declared order — the anchor
// commit for the working-tree variant, or the commit's real parents.
func (n *GraphNode) ParentIDs() []objstore.ObjectID {
	if n.IsWorkDir {
		return []objstore.ObjectID{n.ParentCommit}
	}
	if n.Info == nil {
		return nil
	}
	return n.Info.ParentIDs
}

// commitTime orders the frontier: the working-tree variant is always
// +Inf (processed first); otherwise the commit's own time.
func (n *GraphNode) commitTime() int64 {
	if n.IsWorkDir {
		return int64(1) << 62
	}
	if n.Info == nil {
		return 0
	}
	return int64(n.Info.CommitTime)
}

// addCandidate attaches a candidate to the node, registering it in both
// the path index and the flat list.
func (n *GraphNode) addCandidate(c *FileCandidate) {
	n.byPath[c.Path] = append(n.byPath[c.Path], c)
	n.all = append(n.all, c)
}

// All returns every candidate currently owned by the node.
func (n *GraphNode) All() []*FileCandidate { return n.all }

// Paths returns the set of distinct paths any candidate currently
// occupies, used as the file-tree comparator's target-path restriction.
func (n *GraphNode) Paths() map[string]bool {
	paths := make(map[string]bool, len(n.byPath))
	for p := range n.byPath {
		paths[p] = true
	}
	return paths
}

// mergeFrom absorbs another node's candidates: matching (path,
// originalPath) pairs have their region lists merged; unmatched
// candidates are attached as-is. Used by push() when a frontier node of
// the same identity already exists.
func (n *GraphNode) mergeFrom(other *GraphNode) {
	for _, oc := range other.all {
		if existing := n.findCandidate(oc.Path, oc.OriginalPath); existing != nil {
			existing.Regions.Merge(oc.Regions)
			continue
		}
		n.addCandidate(oc)
	}
}

func (n *GraphNode) findCandidate(path, originalPath string) *FileCandidate {
	for _, c := range n.byPath[path] {
		if c.OriginalPath == originalPath {
			return c
		}
	}
	return nil
}

// frontier is a max-heap over GraphNodes ordered by commitTime
// (descending), ties broken by identity with the working-tree variant
// sorting first.
type frontier struct {
	nodes []*GraphNode
	index map[objstore.ObjectID]*GraphNode
}

func newFrontier() *frontier {
	return &frontier{index: make(map[objstore.ObjectID]*GraphNode)}
}

func (f *frontier) Len() int { return len(f.nodes) }

func (f *frontier) Less(i, j int) bool {
	a, b := f.nodes[i], f.nodes[j]
	if a.IsWorkDir != b.IsWorkDir {
		return a.IsWorkDir
	}
	at, bt := a.commitTime(), b.commitTime()
	if at != bt {
		return at > bt
	}
	return a.identity() > b.identity()
}

func (f *frontier) Swap(i, j int) {
	f.nodes[i], f.nodes[j] = f.nodes[j], f.nodes[i]
	f.nodes[i].heapIndex = i
	f.nodes[j].heapIndex = j
}

func (f *frontier) Push(x any) {
	n := x.(*GraphNode)
	n.heapIndex = len(f.nodes)
	f.nodes = append(f.nodes, n)
}

func (f *frontier) Pop() any {
	old := f.nodes
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	f.nodes = old[:n-1]
	return node
}

// push inserts node, merging it into an already-present node of the
// same identity instead of adding a duplicate frontier entry (§4.G).
func (f *frontier) push(node *GraphNode) {
	if existing, ok := f.index[node.identity()]; ok {
		existing.mergeFrom(node)
		return
	}
	f.index[node.identity()] = node
	heap.Push(f, node)
}

// pop removes and returns the highest-priority node.
func (f *frontier) pop() *GraphNode {
	node := heap.Pop(f).(*GraphNode)
	delete(f.index, node.identity())
	return node
}

func (f *frontier) empty() bool { return len(f.nodes) == 0 }
