// Package geom provides the 2D geometric substrate shared by the
// quadtree, zgrid and rtree packages: points, axis-aligned rectangles,
// leaf-range bookkeeping, and the distance/area/MBR arithmetic the
// k-nearest-neighbour distance-browsing algorithm depends on.
package geom

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel error kinds reported at the public API boundary of the index
// types. ErrPointOutOfDomain is returned only by the quadtree, and no
// index type returns ErrEmptyBuild. Wrap these with fmt.Errorf("%w: ...", ErrX, ...) to add
// context; callers should use errors.Is against the sentinel.
var (
	ErrInvalidBounds    = errors.New("geom: invalid bounds (require xmin <= xmax and ymin <= ymax)")
	ErrInvalidK         = errors.New("geom: k must be >= 1")
	ErrEmptyBuild       = errors.New("geom: build called with no records")
	ErrPointOutOfDomain = errors.New("geom: point lies outside the configured domain bounds")
)

// Point is an ordered pair of floating-point coordinates.
type Point struct {
	X, Y float64
}

// Rectangle is an axis-aligned bounding box. Construct with NewRectangle
// or literal initialization; degenerate (zero-area) rectangles are only
// valid as R-tree seeds and single-point leaf MBRs.
type Rectangle struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewRectangle validates and builds a Rectangle from domain bounds,
// matching the constructor contract shared by all three index types:
// reject if x0 > x1 or y0 > y1.
func NewRectangle(x0, x1, y0, y1 float64) (Rectangle, error) {
	if x0 > x1 || y0 > y1 {
		return Rectangle{}, fmt.Errorf("%w: got x[%v,%v] y[%v,%v]", ErrInvalidBounds, x0, x1, y0, y1)
	}
	return Rectangle{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}, nil
}

// Range is an inclusive index pair over a tree's leaf array.
type Range struct {
	Start, End uint64
}

// Coords is satisfied by any record type whose x/y coordinate can be
// read by position, mirroring the "indexable at positions 0 and 1"
// contract of the original C++ records (raw_datum[0], raw_datum[1]).
type Coords interface {
	At(i int) float64
}

// Datum pairs an opaque caller record with its projected Point. The
// projection happens once, at ingest.
type Datum[T Coords] struct {
	Data  T
	Point Point
}

// NewDatum projects a record into a Datum.
func NewDatum[T Coords](data T) Datum[T] {
	return Datum[T]{Data: data, Point: Point{X: data.At(0), Y: data.At(1)}}
}

// Midpoint is the center of a rectangle.
func Midpoint(r Rectangle) Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Distance is the Euclidean distance between two points.
func Distance(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceToRect is the Euclidean distance from p to the nearest point
// of r. It is zero when p is inside r.
func DistanceToRect(p Point, r Rectangle) float64 {
	dx := math.Max(0, math.Max(r.MinX-p.X, p.X-r.MaxX))
	dy := math.Max(0, math.Max(r.MinY-p.Y, p.Y-r.MaxY))
	return math.Sqrt(dx*dx + dy*dy)
}

// Area is the rectangle's area.
func Area(r Rectangle) float64 {
	return (r.MaxX - r.MinX) * (r.MaxY - r.MinY)
}

// Combine returns the smallest rectangle enclosing both operands.
func Combine(a, b Rectangle) Rectangle {
	return Rectangle{
		MinX: math.Min(a.MinX, b.MinX),
		MinY: math.Min(a.MinY, b.MinY),
		MaxX: math.Max(a.MaxX, b.MaxX),
		MaxY: math.Max(a.MaxY, b.MaxY),
	}
}

// CombinePoint returns the smallest rectangle enclosing r and p.
func CombinePoint(r Rectangle, p Point) Rectangle {
	return Rectangle{
		MinX: math.Min(r.MinX, p.X),
		MinY: math.Min(r.MinY, p.Y),
		MaxX: math.Max(r.MaxX, p.X),
		MaxY: math.Max(r.MaxY, p.Y),
	}
}

// Enlargement returns how much additional area existing would need to
// gain in order to accommodate additional.
func Enlargement(existing, additional Rectangle) float64 {
	return Area(Combine(existing, additional)) - Area(existing)
}

// Contains reports whether outer fully contains inner.
func Contains(outer, inner Rectangle) bool {
	return outer.MinX <= inner.MinX && outer.MaxX >= inner.MaxX &&
		outer.MinY <= inner.MinY && outer.MaxY >= inner.MaxY
}

// ContainsPoint reports whether rect contains p.
func ContainsPoint(rect Rectangle, p Point) bool {
	return rect.MinX <= p.X && rect.MaxX >= p.X && rect.MinY <= p.Y && rect.MaxY >= p.Y
}

// Overlap reports whether two rectangles intersect.
func Overlap(a, b Rectangle) bool {
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX && a.MinY <= b.MaxY && a.MaxY >= b.MinY
}

// PointRect returns the degenerate rectangle containing only p.
func PointRect(p Point) Rectangle {
	return Rectangle{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
}
