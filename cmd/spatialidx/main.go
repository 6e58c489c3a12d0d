// Command spatialidx reads a point file, builds one of the three index
// types over it, and either answers a single k-NN query or runs a
// timing/memory benchmark harness across all three.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/gprender/nearest-neighbour/geom"
	"github.com/gprender/nearest-neighbour/quadtree"
	"github.com/gprender/nearest-neighbour/reader"
	"github.com/gprender/nearest-neighbour/rtree"
	"github.com/gprender/nearest-neighbour/zgrid"
)

var (
	buildCmd     = kingpin.Command("build", "build an index over a point file and report its size")
	buildKind    = buildCmd.Flag("index", "index type: quadtree, zgrid, rtree").Default("rtree").Enum("quadtree", "zgrid", "rtree")
	buildRes     = buildCmd.Flag("resolution", "zgrid resolution r (ignored for other index types)").Default("8").Int()
	buildPath    = buildCmd.Arg("points", "path to a point file").Required().String()

	queryCmd  = kingpin.Command("query", "build an index and answer a single k-NN query")
	queryKind = queryCmd.Flag("index", "index type: quadtree, zgrid, rtree").Default("rtree").Enum("quadtree", "zgrid", "rtree")
	queryRes  = queryCmd.Flag("resolution", "zgrid resolution r (ignored for other index types)").Default("8").Int()
	queryK    = queryCmd.Flag("k", "number of neighbours to return").Default("8").Int()
	queryX    = queryCmd.Flag("x", "query point x coordinate").Required().Float64()
	queryY    = queryCmd.Flag("y", "query point y coordinate").Required().Float64()
	queryPath = queryCmd.Arg("points", "path to a point file").Required().String()

	benchCmd  = kingpin.Command("bench", "time Build and repeated QueryKNN calls across all three index types")
	benchRes  = benchCmd.Flag("resolution", "zgrid resolution r").Default("8").Int()
	benchPath = benchCmd.Arg("points", "path to a point file").Required().String()
)

func main() {
	kingpin.CommandLine.HelpFlag.Short('h')
	kingpin.CommandLine.Help = "spatialidx builds and queries in-memory 2D point indexes (quadtree, zgrid, rtree)."

	switch kingpin.Parse() {
	case "build":
		exitOnErr(runBuild(*buildKind, *buildPath, *buildRes))
	case "query":
		exitOnErr(runQuery(*queryKind, *queryPath, *queryRes, *queryK, *queryX, *queryY))
	case "bench":
		exitOnErr(runBench(*benchPath, *benchRes))
	}
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "spatialidx:", err)
		os.Exit(1)
	}
}

// indexer is satisfied by all three concrete index types, letting
// build/query/bench share one code path regardless of which structure
// was requested.
type indexer interface {
	QueryKNN(k int, x, y float64) ([]reader.Record, error)
	Size() int
}

func buildIndex(kind string, records []reader.Record, bounds geom.Rectangle, resolution int) (indexer, error) {
	switch kind {
	case "quadtree":
		tr, err := quadtree.New[reader.Record](bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)
		if err != nil {
			return nil, errors.Wrap(err, "spatialidx: constructing quadtree")
		}
		if err := tr.Build(records); err != nil {
			return nil, errors.Wrap(err, "spatialidx: building quadtree")
		}
		return tr, nil
	case "zgrid":
		g, err := zgrid.New[reader.Record](bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)
		if err != nil {
			return nil, errors.Wrap(err, "spatialidx: constructing zgrid")
		}
		if err := g.Build(records, resolution); err != nil {
			return nil, errors.Wrap(err, "spatialidx: building zgrid")
		}
		return g, nil
	case "rtree":
		tr, err := rtree.New[reader.Record](bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)
		if err != nil {
			return nil, errors.Wrap(err, "spatialidx: constructing rtree")
		}
		if err := tr.Build(records); err != nil {
			return nil, errors.Wrap(err, "spatialidx: building rtree")
		}
		return tr, nil
	default:
		return nil, errors.Errorf("spatialidx: unknown index type %q", kind)
	}
}

func runBuild(kind, path string, resolution int) error {
	records, bounds, err := reader.ReadPoints(path)
	if err != nil {
		return errors.Wrap(err, "spatialidx build")
	}
	idx, err := buildIndex(kind, records, bounds, resolution)
	if err != nil {
		return err
	}
	// idx.Size() reports the index's own notion of size (record count
	// for quadtree/rtree, cell count 4^r for zgrid), not necessarily
	// len(records) -- printed alongside it rather than in place of it.
	fmt.Printf("built %s: %d records, index size()=%d\n", kind, len(records), idx.Size())
	return nil
}

func runQuery(kind, path string, resolution, k int, x, y float64) error {
	records, bounds, err := reader.ReadPoints(path)
	if err != nil {
		return errors.Wrap(err, "spatialidx query")
	}
	idx, err := buildIndex(kind, records, bounds, resolution)
	if err != nil {
		return err
	}
	got, err := idx.QueryKNN(k, x, y)
	if err != nil {
		return errors.Wrap(err, "spatialidx query")
	}
	for i := len(got) - 1; i >= 0; i-- {
		fmt.Printf("%v\n", []float64(got[i]))
	}
	return nil
}

// runBench times Build and repeated QueryKNN calls (k in {1,8,16,32})
// across all three index kinds and reports heap deltas via
// runtime.MemStats alongside a system-memory and CPU baseline.
func runBench(path string, resolution int) error {
	records, bounds, err := reader.ReadPoints(path)
	if err != nil {
		return errors.Wrap(err, "spatialidx bench")
	}

	fmt.Printf("cpu: %s (%d physical cores, %d logical cores)\n", cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)
	fmt.Printf("system memory: %d MiB\n", memory.TotalMemory()/1024/1024)
	fmt.Printf("records: %d\n", len(records))

	for _, kind := range []string{"quadtree", "zgrid", "rtree"} {
		var before runtime.MemStats
		runtime.ReadMemStats(&before)

		start := time.Now()
		idx, err := buildIndex(kind, records, bounds, resolution)
		if err != nil {
			return err
		}
		buildElapsed := time.Since(start)

		var after runtime.MemStats
		runtime.ReadMemStats(&after)

		fmt.Printf("%s: build=%s heap_delta=%d bytes\n", kind, buildElapsed, after.HeapAlloc-before.HeapAlloc)

		for _, k := range []int{1, 8, 16, 32} {
			start := time.Now()
			_, err := idx.QueryKNN(k, bounds.MinX, bounds.MinY)
			if err != nil {
				return err
			}
			fmt.Printf("%s: query_knn(k=%d)=%s\n", kind, k, time.Since(start))
		}
	}
	return nil
}
