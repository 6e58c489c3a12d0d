package quadtree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// point is a minimal geom.Coords implementation for tests.
type point [2]float64

func (p point) At(i int) float64 { return p[i] }

func TestNewRejectsInvertedBounds(t *testing.T) {
	_, err := New[point](1, 0, 0, 1)
	require.Error(t, err)
}

func TestBuildRejectsOutOfDomainPoint(t *testing.T) {
	tr, err := New[point](0, 10, 0, 10)
	require.NoError(t, err)
	err = tr.Build([]point{{5, 5}, {20, 20}})
	require.Error(t, err)
}

func TestEmptyBuildQueryReturnsEmpty(t *testing.T) {
	tr, err := New[point](0, 10, 0, 10)
	require.NoError(t, err)
	require.NoError(t, tr.Build(nil))

	got, err := tr.QueryKNN(5, 1, 1)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestQueryKNNRejectsZeroK(t *testing.T) {
	tr, err := New[point](0, 10, 0, 10)
	require.NoError(t, err)
	require.NoError(t, tr.Build([]point{{1, 1}}))
	_, err = tr.QueryKNN(0, 0, 0)
	require.Error(t, err)
}

// A 16x16 grid over [0,16)x[0,16) with 8 uniformly random points per
// 1x1 cell (2048 total): every record is stored, no leaf bucket holds
// more than LeafCapacity records, and the buckets together hold the
// whole input.
func TestRegularGridPartitionsEvenly(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	const gridN = 16
	const perCell = 8

	tr, err := New[point](0, gridN, 0, gridN)
	require.NoError(t, err)

	var pts []point
	for cx := 0; cx < gridN; cx++ {
		for cy := 0; cy < gridN; cy++ {
			for i := 0; i < perCell; i++ {
				pts = append(pts, point{
					float64(cx) + rnd.Float64(),
					float64(cy) + rnd.Float64(),
				})
			}
		}
	}
	require.NoError(t, tr.Build(pts))
	require.Equal(t, gridN*gridN*perCell, tr.Size())

	// Every leaf bucket should hold LeafCapacity or fewer records, and
	// the union of all buckets should equal the input multiset size.
	total := 0
	for _, bucket := range tr.leaves {
		require.LessOrEqual(t, len(bucket), LeafCapacity)
		total += len(bucket)
	}
	require.Equal(t, len(pts), total)
}

func TestLeafRangeContiguityInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	tr, err := New[point](0, 500, 0, 500)
	require.NoError(t, err)

	var pts []point
	for i := 0; i < 5000; i++ {
		pts = append(pts, point{rnd.Float64() * 500, rnd.Float64() * 500})
	}
	require.NoError(t, tr.Build(pts))

	var check func(n *Node)
	check = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		require.Equal(t, n.Children[0].LeafRange.Start, n.LeafRange.Start)
		require.Equal(t, n.Children[3].LeafRange.End, n.LeafRange.End)
		for i := 0; i < 3; i++ {
			require.Equal(t, n.Children[i].LeafRange.End+1, n.Children[i+1].LeafRange.Start)
		}
		for _, c := range n.Children {
			check(c)
		}
	}
	check(tr.root)
}

func TestQueryKNNOrderedFarthestFirst(t *testing.T) {
	rnd := rand.New(rand.NewSource(2)) //nolint:gosec
	tr, err := New[point](0, 500, 0, 500)
	require.NoError(t, err)

	var pts []point
	for i := 0; i < 2000; i++ {
		pts = append(pts, point{rnd.Float64() * 500, rnd.Float64() * 500})
	}
	require.NoError(t, tr.Build(pts))

	got, err := tr.QueryKNN(32, 250, 250)
	require.NoError(t, err)
	require.Len(t, got, 32)

	dists := make([]float64, len(got))
	for i, p := range got {
		dx, dy := p.At(0)-250, p.At(1)-250
		dists[i] = dx*dx + dy*dy
	}
	for i := 1; i < len(dists); i++ {
		require.LessOrEqual(t, dists[i], dists[i-1])
	}
}

// Brute-force cross-check: the result of QueryKNN must contain exactly
// the k closest records, modulo ties at the k-th distance.
func TestQueryKNNMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	tr, err := New[point](0, 500, 0, 500)
	require.NoError(t, err)

	var pts []point
	for i := 0; i < 3000; i++ {
		pts = append(pts, point{rnd.Float64() * 500, rnd.Float64() * 500})
	}
	require.NoError(t, tr.Build(pts))

	const k = 10
	qx, qy := 100.0, 150.0
	got, err := tr.QueryKNN(k, qx, qy)
	require.NoError(t, err)
	require.Len(t, got, k)

	maxGotDist := sqDist(got[0], qx, qy)

	bruteDists := make([]float64, len(pts))
	for i, p := range pts {
		bruteDists[i] = sqDist(p, qx, qy)
	}
	sort.Float64s(bruteDists)
	kth := bruteDists[k-1]
	require.LessOrEqual(t, maxGotDist, kth+1e-9)

	for _, p := range pts {
		d := sqDist(p, qx, qy)
		require.False(t, d < kth-1e-9 && !contains(got, p),
			"point closer than the k-th result was excluded")
	}
}

func sqDist(p point, x, y float64) float64 {
	dx, dy := p.At(0)-x, p.At(1)-y
	return dx*dx + dy*dy
}

func contains(haystack []point, needle point) bool {
	for _, p := range haystack {
		if p == needle {
			return true
		}
	}
	return false
}

// A tiny dataset with k larger than the dataset size must terminate via
// the node-queue-empty guard and return all available records.
func TestSmallDatasetLargeK(t *testing.T) {
	tr, err := New[point](0, 100, 0, 100)
	require.NoError(t, err)
	pts := []point{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}
	require.NoError(t, tr.Build(pts))

	got, err := tr.QueryKNN(10, 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
}

// A query point outside the domain must still terminate and return the
// closest k records in the dataset.
func TestQueryOutsideDomainTerminates(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	tr, err := New[point](0, 500, 0, 500)
	require.NoError(t, err)

	var pts []point
	for i := 0; i < 1000; i++ {
		pts = append(pts, point{rnd.Float64() * 500, rnd.Float64() * 500})
	}
	require.NoError(t, tr.Build(pts))

	got, err := tr.QueryKNN(16, 250, 750)
	require.NoError(t, err)
	require.Len(t, got, 16)
}
