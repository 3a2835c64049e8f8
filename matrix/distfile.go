package matrix

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/proteorank/proteorank/neighbor"
)

// WriteDistances persists a fully computed neighbor index as an N×N
// tab-separated matrix, one line per compound in ordinal order. The
// diagonal gets the scale's self-value placeholder (0.0 for distances,
// 1.0 for similarities); in similarity mode stored distances d are written
// as 1-d. Missing neighbors (filtered compounds) are written as NaN.
func WriteDistances(idx *neighbor.Index, path string, similarity bool) error {
	w, err := openWriter(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	n := idx.Size()
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := range row {
			row[j] = math.NaN()
		}
		if similarity {
			row[i] = 1.0
		} else {
			row[i] = 0.0
		}
		for _, e := range idx.List(i).Entries() {
			v := e.Distance
			if similarity {
				v = 1 - v
			}
			row[e.Index] = v
		}

		for j, v := range row {
			if j > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ReadDistances loads a persisted N×N matrix into a fresh neighbor index,
// bypassing distance computation. Diagonal placeholders are skipped; in
// similarity mode values s are stored as 1-s. Lists come back unsorted.
func ReadDistances(path string, n int, similarity bool) (*neighbor.Index, error) {
	idx := neighbor.NewIndex(n)

	err := scanLines(path, func(line int, text string) error {
		i := line - 1
		if i >= n {
			return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("more than %d rows", n)}
		}
		fields := strings.Split(strings.TrimRight(text, "\t\r"), "\t")
		if len(fields) != n {
			return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("expected %d values, got %d", n, len(fields))}
		}
		for j, f := range fields {
			if j == i {
				continue
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return &FormatError{Path: path, Line: line, Reason: fmt.Sprintf("bad value %q", f)}
			}
			if similarity {
				v = 1 - v
			}
			idx.AppendEntry(i, neighbor.Entry{Index: j, Distance: v})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}
