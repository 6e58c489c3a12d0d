// Package zgrid implements a uniform 2^r x 2^r grid ("Zgrid") whose
// cells are addressed by the Z-order code of their coordinates, with a
// full implicit quadtree of depth r sitting above the cells to drive
// the shared k-nearest-neighbour distance-browsing query.
package zgrid

import (
	"github.com/gprender/nearest-neighbour/geom"
	"github.com/gprender/nearest-neighbour/pq"
)

// Node is a node in the implicit quadtree above the grid cells. Every
// node's LeafRange names the span of grid cells beneath it; leafness is
// determined by the absence of children rather than from LeafRange.
type Node struct {
	Code      uint64
	Depth     int
	Bounds    geom.Rectangle
	Center    geom.Point
	LeafRange geom.Range
	Children  [4]*Node
}

// IsLeaf reports whether n is a grid cell (depth == resolution) rather
// than an internal node of the implicit quadtree.
func (n *Node) IsLeaf() bool {
	return n.Children[0] == nil
}

// Grid is an in-memory Zgrid over records of type T.
type Grid[T geom.Coords] struct {
	root       *Node
	resolution int
	cells      [][]geom.Datum[T]
	bounds     geom.Rectangle // un-nudged domain as supplied to New
	nudged     geom.Rectangle
}

// New constructs an empty Zgrid over the given domain bounds. Returns
// geom.ErrInvalidBounds if x0 > x1 or y0 > y1.
func New[T geom.Coords](x0, x1, y0, y1 float64) (*Grid[T], error) {
	bounds, err := geom.NewRectangle(x0, x1, y0, y1)
	if err != nil {
		return nil, err
	}
	nudged := geom.Rectangle{
		MinX: bounds.MinX, MinY: bounds.MinY,
		MaxX: bounds.MaxX + geom.DomainNudge,
		MaxY: bounds.MaxY + geom.DomainNudge,
	}
	return &Grid[T]{bounds: bounds, nudged: nudged}, nil
}

// Build allocates 4^r leaf cells, bins every record into its Z-order
// cell, and populates the implicit quadtree of depth r above them.
// Points strictly outside the configured domain are clamped into the
// nearest edge cell (geom.GridIndex already clamps) rather than
// rejected, in contrast to the quadtree's outright rejection.
func (g *Grid[T]) Build(records []T, r int) error {
	g.resolution = r
	g.cells = make([][]geom.Datum[T], 1<<uint(2*r))
	for _, rec := range records {
		d := geom.NewDatum(rec)
		code := geom.ZOrderHash(d.Point, g.nudged, r)
		g.cells[code] = append(g.cells[code], d)
	}
	g.root = &Node{Depth: 0, Code: 0, Bounds: g.nudged, Center: geom.Midpoint(g.nudged)}
	populate(g.root, r)
	return nil
}

// populate recursively builds the full implicit quadtree of depth r
// above the grid cells.
func populate(node *Node, remaining int) {
	span := uint64(1) << uint(2*remaining)
	node.LeafRange = geom.Range{
		Start: node.Code * span,
		End:   (node.Code+1)*span - 1,
	}
	if remaining == 0 {
		return
	}
	b, c := node.Bounds, node.Center
	bounds := [4]geom.Rectangle{
		{MinX: b.MinX, MaxX: c.X, MinY: b.MinY, MaxY: c.Y}, // SW
		{MinX: c.X, MaxX: b.MaxX, MinY: b.MinY, MaxY: c.Y}, // SE
		{MinX: b.MinX, MaxX: c.X, MinY: c.Y, MaxY: b.MaxY}, // NW
		{MinX: c.X, MaxX: b.MaxX, MinY: c.Y, MaxY: b.MaxY}, // NE
	}
	for i := 0; i < 4; i++ {
		child := &Node{
			Depth:  node.Depth + 1,
			Code:   (node.Code << 2) | uint64(i),
			Bounds: bounds[i],
			Center: geom.Midpoint(bounds[i]),
		}
		node.Children[i] = child
		populate(child, remaining-1)
	}
}

// QueryKNN returns up to k records nearest to (x,y), ordered
// farthest-first, via the same best-first distance browsing the
// quadtree and R-tree use.
func (g *Grid[T]) QueryKNN(k int, x, y float64) ([]T, error) {
	if k < 1 {
		return nil, geom.ErrInvalidK
	}
	query := geom.Point{X: x, Y: y}

	nodePQ := pq.NewNodeQueue[*Node]()
	nodePQ.Push(g.root, geom.DistanceToRect(query, g.root.Bounds))
	datumPQ := pq.NewDatumQueue[geom.Datum[T]](k)

	for !nodePQ.Empty() && (datumPQ.Len() < k || datumPQ.Peek().Dist > nodePQ.Peek().Dist) {
		next := nodePQ.Pop().Value
		if next.IsLeaf() {
			for _, d := range g.cells[next.Code] {
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

// Size reports the total number of grid cells (4^r).
func (g *Grid[T]) Size() int { return len(g.cells) }

// Resolution reports the grid's configured resolution r.
func (g *Grid[T]) Resolution() int { return g.resolution }
