// Package quadtree implements a region quadtree over a rectangular
// domain, built by recursive top-down partitioning, supporting
// k-nearest-neighbour queries via the shared distance-browsing
// algorithm in package pq.
package quadtree

import (
	"fmt"

	"github.com/gprender/nearest-neighbour/geom"
	"github.com/gprender/nearest-neighbour/pq"
)

// LeafCapacity is the bucket-size threshold at which recursive
// partitioning stops and a leaf is created.
const LeafCapacity = 16

// Node is a node in the quadtree: either an internal node with exactly
// four children, or a leaf identified by LeafRange.Start == LeafRange.End.
type Node struct {
	Depth     int
	Code      uint64
	Bounds    geom.Rectangle
	Center    geom.Point
	LeafRange geom.Range
	Children  [4]*Node
}

// IsLeaf reports whether n is a leaf (its leaf range names a single
// bucket rather than spanning a contiguous range of descendant leaves).
func (n *Node) IsLeaf() bool {
	return n.LeafRange.Start == n.LeafRange.End
}

// Tree is an in-memory region quadtree over records of type T.
type Tree[T geom.Coords] struct {
	root   *Node
	leaves [][]geom.Datum[T]
	bounds geom.Rectangle // the caller-supplied (un-nudged) domain
}

// New constructs an empty quadtree over the given domain bounds.
// Returns geom.ErrInvalidBounds if x0 > x1 or y0 > y1.
func New[T geom.Coords](x0, x1, y0, y1 float64) (*Tree[T], error) {
	bounds, err := geom.NewRectangle(x0, x1, y0, y1)
	if err != nil {
		return nil, err
	}
	// Nudge the upper bounds so a point exactly on the maximum edge
	// doesn't land in the quadrant comparator's "greater than" branch
	// one cell past where Z-order hashing would place it.
	nudged := geom.Rectangle{
		MinX: bounds.MinX, MinY: bounds.MinY,
		MaxX: bounds.MaxX + geom.DomainNudge,
		MaxY: bounds.MaxY + geom.DomainNudge,
	}
	return &Tree[T]{
		root:   &Node{Depth: 0, Code: 0, Bounds: nudged, Center: geom.Midpoint(nudged)},
		bounds: bounds,
	}, nil
}

// Build ingests records, recursively partitioning them into the
// quadtree. Returns geom.ErrPointOutOfDomain if any record's projected
// point lies outside the configured domain (the quadtree, unlike
// Zgrid or the R-tree, rejects such points rather than clamping or
// growing to accommodate them).
func (t *Tree[T]) Build(records []T) error {
	data := make([]geom.Datum[T], 0, len(records))
	for _, rec := range records {
		d := geom.NewDatum(rec)
		if !geom.ContainsPoint(t.bounds, d.Point) {
			return fmt.Errorf("%w: point (%v,%v)", geom.ErrPointOutOfDomain, d.Point.X, d.Point.Y)
		}
		data = append(data, d)
	}
	t.root.LeafRange = t.insert(t.root, data)
	return nil
}

// insert recursively partitions data into node, appending leaf buckets
// to the tree's leaf array in Z-order (in-order traversal) as it goes,
// so any subtree's leaves occupy a contiguous slice of the leaf array.
func (t *Tree[T]) insert(node *Node, data []geom.Datum[T]) geom.Range {
	if len(data) <= LeafCapacity {
		idx := uint64(len(t.leaves))
		t.leaves = append(t.leaves, data)
		node.LeafRange = geom.Range{Start: idx, End: idx}
		return node.LeafRange
	}

	var partition [4][]geom.Datum[T]
	for _, d := range data {
		q := quadrant(node.Center, d.Point)
		partition[q] = append(partition[q], d)
	}

	createChildren(node)

	// The SW (index 0) child holds the lowest Z-order code in the
	// subtree; the NE (index 3) child holds the highest. NE and SW's
	// siblings all fall between those two leaf indices by induction.
	first := t.insert(node.Children[0], partition[0])
	node.LeafRange.Start = first.Start
	t.insert(node.Children[1], partition[1])
	t.insert(node.Children[2], partition[2])
	last := t.insert(node.Children[3], partition[3])
	node.LeafRange.End = last.End

	return node.LeafRange
}

// quadrant selects a child index: SW=0, SE=1, NW=2, NE=3. Z-order 0
// conventionally faces north, but geographic (0,0) is southwest, so the
// y comparator looks inverted relative to a "natural" reading; this is
// the fixed, single convention the rest of the package (child bounds
// construction and Z-order hashing) must agree with.
func quadrant(center, p geom.Point) int {
	q := 0
	if p.X > center.X {
		q |= 1
	}
	if p.Y > center.Y {
		q |= 2
	}
	return q
}

func createChildren(node *Node) {
	b := node.Bounds
	c := node.Center
	bounds := [4]geom.Rectangle{
		{MinX: b.MinX, MaxX: c.X, MinY: b.MinY, MaxY: c.Y}, // SW
		{MinX: c.X, MaxX: b.MaxX, MinY: b.MinY, MaxY: c.Y}, // SE
		{MinX: b.MinX, MaxX: c.X, MinY: c.Y, MaxY: b.MaxY}, // NW
		{MinX: c.X, MaxX: b.MaxX, MinY: c.Y, MaxY: b.MaxY}, // NE
	}
	for i := 0; i < 4; i++ {
		node.Children[i] = &Node{
			Depth:  node.Depth + 1,
			Code:   (node.Code << 2) | uint64(i),
			Bounds: bounds[i],
			Center: geom.Midpoint(bounds[i]),
		}
	}
}

// QueryKNN returns up to k records nearest to (x,y), ordered
// farthest-first, using best-first distance browsing over the node and
// datum priority queues. If the tree holds fewer than k records, all of
// them are returned.
func (t *Tree[T]) QueryKNN(k int, x, y float64) ([]T, error) {
	if k < 1 {
		return nil, geom.ErrInvalidK
	}
	query := geom.Point{X: x, Y: y}

	nodePQ := pq.NewNodeQueue[*Node]()
	nodePQ.Push(t.root, geom.DistanceToRect(query, t.root.Bounds))
	datumPQ := pq.NewDatumQueue[geom.Datum[T]](k)

	for !nodePQ.Empty() && (datumPQ.Len() < k || datumPQ.Peek().Dist > nodePQ.Peek().Dist) {
		next := nodePQ.Pop().Value
		if next.IsLeaf() {
			for _, d := range t.leaves[next.LeafRange.Start] {
				dist := geom.Distance(query, d.Point)
				if !datumPQ.Full() {
					datumPQ.Push(d, dist)
				} else {
					datumPQ.Choose(d, dist)
				}
			}
		} else {
			for _, child := range next.Children {
				nodePQ.Push(child, geom.DistanceToRect(query, child.Bounds))
			}
		}
	}

	out := make([]T, 0, datumPQ.Len())
	for _, d := range datumPQ.Drain() {
		out = append(out, d.Data)
	}
	return out, nil
}

// NumLeaves reports the number of leaf buckets in the tree.
func (t *Tree[T]) NumLeaves() int { return len(t.leaves) }

// Size reports the total number of records stored in the tree.
func (t *Tree[T]) Size() int {
	n := 0
	for _, bucket := range t.leaves {
		n += len(bucket)
	}
	return n
}
