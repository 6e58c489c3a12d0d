// Package reader parses the external point-cloud text format: a
// "% min x y z ..." / "% max x y z ..." header pair establishing the
// domain's bounding box, followed by one whitespace-delimited
// coordinate record per line.
package reader

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/gprender/nearest-neighbour/geom"
)

// Record is a single point-cloud record. Only the first two fields
// (x, y) are consulted by the index packages via geom.Coords; any
// trailing fields (z, intensity, classification, ...) ride along
// unused.
type Record []float64

// At implements geom.Coords.
func (r Record) At(i int) float64 { return r[i] }

// ReadPoints parses path and returns its records along with the domain
// bounding box declared by the file's header lines. Header lines begin
// with "%" and carry either "min x y z ..." or "max x y z ...";
// ReadPoints requires at least one of each; header lines may appear
// anywhere in the file, and a later header of the same kind overrides
// an earlier one.
func ReadPoints(path string) ([]Record, geom.Rectangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, geom.Rectangle{}, errors.Wrapf(err, "reader: opening %s", path)
	}
	defer f.Close()
	return parse(f, path)
}

func parse(r io.Reader, path string) ([]Record, geom.Rectangle, error) {
	var (
		haveMin, haveMax bool
		x0, x1, y0, y1   float64
		records          []Record
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "%") {
			fields := strings.Fields(strings.TrimPrefix(line, "%"))
			if len(fields) < 3 {
				continue
			}
			switch fields[0] {
			case "min":
				x, y, err := parseXY(fields[1:])
				if err != nil {
					return nil, geom.Rectangle{}, errors.Wrapf(err, "reader: %s:%d: parsing min header", path, lineNo)
				}
				x0, y0 = x, y
				haveMin = true
			case "max":
				x, y, err := parseXY(fields[1:])
				if err != nil {
					return nil, geom.Rectangle{}, errors.Wrapf(err, "reader: %s:%d: parsing max header", path, lineNo)
				}
				x1, y1 = x, y
				haveMax = true
			}
			continue
		}

		fields := strings.Fields(line)
		rec := make(Record, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, geom.Rectangle{}, errors.Wrapf(err, "reader: %s:%d: parsing record field %q", path, lineNo, f)
			}
			rec = append(rec, v)
		}
		if len(rec) < 2 {
			return nil, geom.Rectangle{}, errors.Errorf("reader: %s:%d: record has fewer than 2 coordinates", path, lineNo)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, geom.Rectangle{}, errors.Wrapf(err, "reader: scanning %s", path)
	}

	if !haveMin || !haveMax {
		return nil, geom.Rectangle{}, errors.Errorf("reader: %s: missing min/max header", path)
	}

	bounds, err := geom.NewRectangle(x0, x1, y0, y1)
	if err != nil {
		return nil, geom.Rectangle{}, errors.Wrapf(err, "reader: %s: invalid header bounds", path)
	}
	return records, bounds, nil
}

func parseXY(fields []string) (float64, float64, error) {
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "x")
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "y")
	}
	return x, y, nil
}
