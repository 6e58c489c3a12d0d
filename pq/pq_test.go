package pq

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeQueuePopsAscendingByDistance(t *testing.T) {
	q := NewNodeQueue[string]()
	q.Push("far", 10)
	q.Push("near", 1)
	q.Push("mid", 5)

	require.Equal(t, "near", q.Peek().Value)
	require.Equal(t, "near", q.Pop().Value)
	require.Equal(t, "mid", q.Pop().Value)
	require.Equal(t, "far", q.Pop().Value)
	require.True(t, q.Empty())
}

func TestDatumQueueBoundedChooseKeepsKClosest(t *testing.T) {
	q := NewDatumQueue[int](3)
	dists := []float64{5, 1, 9, 3, 7, 2}
	for i, d := range dists {
		if !q.Full() {
			q.Push(i, d)
		} else {
			q.Choose(i, d)
		}
	}
	require.True(t, q.Full())

	got := q.Drain()
	require.Len(t, got, 3)
	// Pop order is farthest-to-closest; the three closest distances
	// among the input are 1, 2, 3, at indices 1, 5, 3.
	wantDists := map[int]float64{1: 1, 5: 2, 3: 3}
	for _, v := range got {
		_, ok := wantDists[v]
		require.True(t, ok, "unexpected value %d in result", v)
	}
}

func TestDatumQueueDrainOrderIsNonIncreasing(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	const k = 16
	q := NewDatumQueue[int](k)
	for i := 0; i < 500; i++ {
		d := rnd.Float64() * 1000
		if !q.Full() {
			q.Push(i, d)
		} else {
			q.Choose(i, d)
		}
	}
	got := drainDists(q)
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i-1], got[i])
	}
}

// drainDists is a small test helper that empties q and returns the
// distances of its items in pop order, reading each one via Peek before
// popping it.
func drainDists(q *DatumQueue[int]) []float64 {
	out := make([]float64, 0, q.Len())
	for !q.Empty() {
		out = append(out, q.Peek().Dist)
		q.Pop()
	}
	return out
}
