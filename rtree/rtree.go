// Package rtree implements an R-tree built by Guttman-style quadratic-
// split point-by-point insertion, supporting the shared k-nearest-
// neighbour distance-browsing query. Fan-out is capped at M entries
// per node with no enforced minimum fill.
package rtree

import (
	"fmt"

	"github.com/gprender/nearest-neighbour/geom"
	"github.com/gprender/nearest-neighbour/pq"
)

// M is the fan-out upper bound: a node overflows once it holds more
// than M entries. There is no enforced lower bound; split may produce
// groups of any positive size.
const M = 8

// entry is a tagged union: a bounding rectangle paired with either a
// child node (internal entry) or a leaf's datum index (leaf entry).
// child == nil marks a leaf entry.
type entry[T geom.Coords] struct {
	mbr      geom.Rectangle
	child    *node[T]
	leafIdx  int // index into RTree.data, valid only when child == nil
}

func (e *entry[T]) isLeafEntry() bool { return e.child == nil }

// node is an R-tree node: an ordered list of entries plus a cached load
// (count of data reachable in the subtree).
type node[T geom.Coords] struct {
	entries []entry[T]
	load    int
}

// isLeaf reports whether n's entries are all leaf entries. An empty
// node (the root's node before the first insert) is considered a leaf.
func (n *node[T]) isLeaf() bool {
	return len(n.entries) == 0 || n.entries[0].isLeafEntry()
}

// RTree is an in-memory R-tree over records of type T. The zero value
// is not usable; construct with New.
type RTree[T geom.Coords] struct {
	root   entry[T] // always an internal entry
	data   []geom.Datum[T]
	bounds geom.Rectangle // accepted for API symmetry with the other indexes; not enforced
	seeded bool
}

// New constructs an empty R-tree. Domain bounds are accepted for
// symmetry with quadtree.New/zgrid.New and validated the same way
// (geom.ErrInvalidBounds if x0 > x1 or y0 > y1), but unlike the
// quadtree and Zgrid the R-tree does not restrict inserted points to
// this domain: a point outside it is simply accepted, and the root
// MBR grows to cover it.
func New[T geom.Coords](x0, x1, y0, y1 float64) (*RTree[T], error) {
	bounds, err := geom.NewRectangle(x0, x1, y0, y1)
	if err != nil {
		return nil, err
	}
	return &RTree[T]{
		root:   entry[T]{child: &node[T]{}},
		bounds: bounds,
	}, nil
}

// Build inserts every record point-by-point.
func (t *RTree[T]) Build(records []T) error {
	for _, rec := range records {
		t.Insert(rec)
	}
	return nil
}

// Insert adds a single record to the tree, expanding the root MBR and
// recursively descending via choose_branch, splitting any node that
// overflows along the way.
//
// The root MBR is deferred rather than seeded as a fixed zero-rectangle
// up front (which would leak into every subsequent distance
// computation): it is set on the first Insert to the degenerate
// rectangle at that point, then grown from there.
func (t *RTree[T]) Insert(rec T) {
	d := geom.NewDatum(rec)
	idx := len(t.data)
	t.data = append(t.data, d)

	if !t.seeded {
		t.root.mbr = geom.PointRect(d.Point)
		t.seeded = true
	} else {
		t.root.mbr = geom.CombinePoint(t.root.mbr, d.Point)
	}

	if t.root.child.insert(d.Point, idx) {
		t.splitRoot()
	}
}

// insert recursively inserts a point into n, returning whether n now
// overflows (more than M entries).
func (n *node[T]) insert(p geom.Point, dataIdx int) bool {
	if n.isLeaf() {
		n.entries = append(n.entries, entry[T]{mbr: geom.PointRect(p), leafIdx: dataIdx})
	} else {
		branch := n.chooseBranch(p)
		n.entries[branch].mbr = geom.CombinePoint(n.entries[branch].mbr, p)
		if n.entries[branch].child.insert(p, dataIdx) {
			n.split(branch)
		}
	}
	n.load++
	return len(n.entries) > M
}

// chooseBranch scans entries and selects the one requiring the
// smallest area expansion to include p, breaking ties by smaller
// current MBR area.
func (n *node[T]) chooseBranch(p geom.Point) int {
	best := 0
	bestExpansion := geom.Enlargement(n.entries[0].mbr, geom.PointRect(p))
	for i := 1; i < len(n.entries); i++ {
		expansion := geom.Enlargement(n.entries[i].mbr, geom.PointRect(p))
		if expansion < bestExpansion ||
			(expansion == bestExpansion && geom.Area(n.entries[i].mbr) < geom.Area(n.entries[best].mbr)) {
			bestExpansion = expansion
			best = i
		}
	}
	return best
}

// splitRoot handles the special case of an overflowing root, which has
// no parent to call split on: allocate a fresh internal entry whose
// node contains the previous root's entry as its sole child, then
// split that new root node.
func (t *RTree[T]) splitRoot() {
	oldRoot := t.root
	newRootNode := &node[T]{entries: []entry[T]{oldRoot}, load: oldRoot.child.load}
	t.root = entry[T]{mbr: oldRoot.mbr, child: newRootNode}
	newRootNode.split(0)
}

// QueryKNN returns up to k records nearest to (x,y), ordered
// farthest-first, via the shared distance-browsing algorithm. R-tree
// leaf entries each reference exactly one datum (unlike the quadtree's
// and Zgrid's bucketed leaves), so a popped leaf entry yields a single
// candidate rather than a bucket.
func (t *RTree[T]) QueryKNN(k int, x, y float64) ([]T, error) {
	if k < 1 {
		return nil, geom.ErrInvalidK
	}
	query := geom.Point{X: x, Y: y}

	nodePQ := pq.NewNodeQueue[entry[T]]()
	if len(t.data) > 0 {
		nodePQ.Push(t.root, geom.DistanceToRect(query, t.root.mbr))
	}
	datumPQ := pq.NewDatumQueue[geom.Datum[T]](k)

	for !nodePQ.Empty() && (datumPQ.Len() < k || datumPQ.Peek().Dist > nodePQ.Peek().Dist) {
		next := nodePQ.Pop().Value
		if next.isLeafEntry() {
			d := t.data[next.leafIdx]
			dist := geom.Distance(query, d.Point)
			if !datumPQ.Full() {
				datumPQ.Push(d, dist)
			} else {
				datumPQ.Choose(d, dist)
			}
		} else {
			for _, child := range next.child.entries {
				nodePQ.Push(child, geom.DistanceToRect(query, child.mbr))
			}
		}
	}

	out := make([]T, 0, datumPQ.Len())
	for _, d := range datumPQ.Drain() {
		out = append(out, d.Data)
	}
	return out, nil
}

// GetLoad reports the number of records reachable from the root.
func (t *RTree[T]) GetLoad() int { return t.root.child.load }

// Size reports the total number of records stored in the tree.
func (t *RTree[T]) Size() int { return len(t.data) }

// String is a small debugging aid.
func (t *RTree[T]) String() string {
	return fmt.Sprintf("RTree{records=%d, load=%d}", len(t.data), t.GetLoad())
}
