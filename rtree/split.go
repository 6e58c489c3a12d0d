package rtree

import "github.com/gprender/nearest-neighbour/geom"

// split handles a node whose child at index `full` has overflowed past
// M entries: it partitions that child's entries into two groups via
// Guttman's quadratic-cost algorithm, keeps one group in place and
// appends the other as a new sibling entry of n. If n itself now holds
// more than M entries, that is reported to n's caller through insert's
// return value.
func (n *node[T]) split(full int) {
	child := n.entries[full].child
	groupA, groupB := quadraticSplit(child.entries)

	child.entries = groupA
	child.load = countLoad(groupA)
	n.entries[full].mbr = combineAll(groupA)

	siblingNode := &node[T]{entries: groupB, load: countLoad(groupB)}
	n.entries = append(n.entries, entry[T]{mbr: combineAll(groupB), child: siblingNode})
}

// quadraticSplit partitions entries into two non-empty groups following
// Guttman's quadratic algorithm: pick the worst-wasting seed pair, then
// repeatedly assign whichever remaining entry has the strongest
// preference for one group over the other to that group, until every
// entry is placed. There is no enforced minimum fill, so the only
// force-assignment case is one group sitting empty with entries still
// unplaced -- every remaining entry goes there until it's non-empty.
func quadraticSplit[T geom.Coords](entries []entry[T]) ([]entry[T], []entry[T]) {
	seedA, seedB := pickSeeds(entries)

	groupA := []entry[T]{entries[seedA]}
	groupB := []entry[T]{entries[seedB]}
	mbrA := entries[seedA].mbr
	mbrB := entries[seedB].mbr

	remaining := make([]entry[T], 0, len(entries)-2)
	for i, e := range entries {
		if i != seedA && i != seedB {
			remaining = append(remaining, e)
		}
	}

	for len(remaining) > 0 {
		if len(groupA) == 0 {
			groupA = append(groupA, remaining[0])
			mbrA = geom.Combine(mbrA, remaining[0].mbr)
			remaining = remaining[1:]
			continue
		}
		if len(groupB) == 0 {
			groupB = append(groupB, remaining[0])
			mbrB = geom.Combine(mbrB, remaining[0].mbr)
			remaining = remaining[1:]
			continue
		}

		idx, preferA := pickNext(remaining, mbrA, mbrB)
		next := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)

		if preferA {
			groupA = append(groupA, next)
			mbrA = geom.Combine(mbrA, next.mbr)
		} else {
			groupB = append(groupB, next)
			mbrB = geom.Combine(mbrB, next.mbr)
		}
	}

	return groupA, groupB
}

// pickSeeds chooses the pair of entries whose combined MBR wastes the
// most area -- Area(combine(a,b)) - Area(a) - Area(b) -- as the two
// group seeds. This is Guttman's quadratic-cost seed selection (as
// opposed to his cheaper linear variant).
func pickSeeds[T geom.Coords](entries []entry[T]) (int, int) {
	bestA, bestB := 0, 1
	bestWaste := -1.0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			combined := geom.Combine(entries[i].mbr, entries[j].mbr)
			waste := geom.Area(combined) - geom.Area(entries[i].mbr) - geom.Area(entries[j].mbr)
			if waste > bestWaste {
				bestWaste = waste
				bestA, bestB = i, j
			}
		}
	}
	return bestA, bestB
}

// pickNext selects, among the remaining entries, the one with the
// strongest preference for one group over the other -- i.e. the
// largest difference in enlargement cost -- and reports which group it
// prefers. Ties on preference magnitude keep the earliest such entry.
// An entry that enlarges both groups equally prefers the group with the
// smaller current area, then group A.
func pickNext[T geom.Coords](remaining []entry[T], mbrA, mbrB geom.Rectangle) (int, bool) {
	bestIdx := 0
	bestDiff := -1.0
	bestPreferA := true
	for i, e := range remaining {
		dA := geom.Enlargement(mbrA, e.mbr)
		dB := geom.Enlargement(mbrB, e.mbr)
		diff := dA - dB
		if diff < 0 {
			diff = -diff
		}
		if diff > bestDiff {
			bestDiff = diff
			bestIdx = i
			bestPreferA = dA < dB || (dA == dB && geom.Area(mbrA) <= geom.Area(mbrB))
		}
	}
	return bestIdx, bestPreferA
}

func combineAll[T geom.Coords](entries []entry[T]) geom.Rectangle {
	mbr := entries[0].mbr
	for _, e := range entries[1:] {
		mbr = geom.Combine(mbr, e.mbr)
	}
	return mbr
}

func countLoad[T geom.Coords](entries []entry[T]) int {
	n := 0
	for _, e := range entries {
		if e.isLeafEntry() {
			n++
		} else {
			n += e.child.load
		}
	}
	return n
}
