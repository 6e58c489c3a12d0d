package zgrid

import (
	"math/rand"
	"testing"

	"github.com/gprender/nearest-neighbour/geom"
	"github.com/stretchr/testify/require"
)

type point [2]float64

func (p point) At(i int) float64 { return p[i] }

func TestNewRejectsInvertedBounds(t *testing.T) {
	_, err := New[point](1, 0, 0, 1)
	require.Error(t, err)
}

// A Zgrid of resolution r over a domain that exactly tiles into 4^r
// cells has size() == 4^r regardless of how many points land in each
// cell.
func TestSizeEqualsFourToTheR(t *testing.T) {
	const r = 4
	g, err := New[point](0, 16, 0, 16)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(9))
	var pts []point
	for cx := 0; cx < 16; cx++ {
		for cy := 0; cy < 16; cy++ {
			for i := 0; i < 8; i++ {
				pts = append(pts, point{float64(cx) + rnd.Float64(), float64(cy) + rnd.Float64()})
			}
		}
	}
	require.NoError(t, g.Build(pts, r))
	require.Equal(t, 1<<(2*r), g.Size())
}

// Every datum binned into cell c must hash back to c.
func TestEveryCellDatumHashesToItsCell(t *testing.T) {
	const r = 5
	g, err := New[point](0, 100, 0, 100)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(10))
	var pts []point
	for i := 0; i < 5000; i++ {
		pts = append(pts, point{rnd.Float64() * 100, rnd.Float64() * 100})
	}
	require.NoError(t, g.Build(pts, r))

	for code, bucket := range g.cells {
		for _, d := range bucket {
			require.Equal(t, uint64(code), geom.ZOrderHash(d.Point, g.nudged, r))
		}
	}
}

func TestLeafDetectionIsByChildAbsence(t *testing.T) {
	g, err := New[point](0, 10, 0, 10)
	require.NoError(t, err)
	require.NoError(t, g.Build([]point{{1, 1}}, 2))

	require.False(t, g.root.IsLeaf())
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if depth == 2 {
			require.True(t, n.IsLeaf())
			return
		}
		require.False(t, n.IsLeaf())
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(g.root, 0)
}

func TestQueryKNNOrderedFarthestFirst(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	g, err := New[point](0, 500, 0, 500)
	require.NoError(t, err)

	var pts []point
	for i := 0; i < 2000; i++ {
		pts = append(pts, point{rnd.Float64() * 500, rnd.Float64() * 500})
	}
	require.NoError(t, g.Build(pts, 6))

	got, err := g.QueryKNN(32, 250, 250)
	require.NoError(t, err)
	require.Len(t, got, 32)

	prev := -1.0
	for _, p := range got {
		dx, dy := p.At(0)-250, p.At(1)-250
		d := dx*dx + dy*dy
		if prev >= 0 {
			require.LessOrEqual(t, d, prev)
		}
		prev = d
	}
}

func TestOutOfDomainPointClampsRatherThanRejects(t *testing.T) {
	g, err := New[point](0, 10, 0, 10)
	require.NoError(t, err)
	// y=20 is well outside the domain; Build must not error, and the
	// point should be binned into an edge cell rather than dropped.
	require.NoError(t, g.Build([]point{{5, 20}}, 2))
	require.Equal(t, 1, countAll(g))
}

func countAll[T geom.Coords](g *Grid[T]) int {
	n := 0
	for _, bucket := range g.cells {
		n += len(bucket)
	}
	return n
}

func TestSmallDatasetLargeK(t *testing.T) {
	g, err := New[point](0, 100, 0, 100)
	require.NoError(t, err)
	pts := []point{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}
	require.NoError(t, g.Build(pts, 3))

	got, err := g.QueryKNN(10, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
}
