// Package neighbor maintains the per-compound similarity index: one list of
// (other compound, distance) entries per compound, populated lazily and
// sorted on demand. Lists never reference their own compound and hold at
// most one entry per other compound.
package neighbor

import (
	"context"
	"math"
	"sort"

	"github.com/proteorank/proteorank/distance"
)

// Entry is a single neighbor: another compound's dense ordinal index and
// its distance to the list owner.
type Entry struct {
	Index    int
	Distance float64
}

// List is one compound's neighbor list.
// Insertion order is ordinal order until sorted; sorting is stable, so
// equal-distance neighbors keep insertion order. Tie semantics relative to
// a specific match are the ranking engine's concern, not the list's.
type List struct {
	entries  []Entry
	computed bool
	sorted   bool
}

// Entries returns the backing entries. The slice must be treated as
// read-only by callers.
func (l *List) Entries() []Entry { return l.entries }

// Len returns the number of neighbors.
func (l *List) Len() int { return len(l.entries) }

// Computed reports whether distances have been populated.
func (l *List) Computed() bool { return l.computed }

// Sorted reports whether the list is in sorted order.
func (l *List) Sorted() bool { return l.sorted }

// At returns the k-th nearest distinct compound (0-based).
// The second return is false when k is out of range.
func (l *List) At(k int) (Entry, bool) {
	if k < 0 || k >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[k], true
}

// Sort orders the list ascending by distance, NaN after every finite
// value. Sorting an already-sorted list is a no-op with identical order.
func (l *List) Sort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return distance.Less(l.entries[i].Distance, l.entries[j].Distance)
	})
	l.sorted = true
}

// SortDescending orders the list descending by distance for bottom-control
// scoring. NaN still sorts last: it is larger than every finite value, but
// it never outranks a real distance.
func (l *List) SortDescending() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		di, dj := l.entries[i].Distance, l.entries[j].Distance
		if math.IsNaN(di) {
			return false
		}
		if math.IsNaN(dj) {
			return true
		}
		return di > dj
	})
	l.sorted = true
}

// Index owns the neighbor lists for a compound catalog, addressed by dense
// ordinal index.
type Index struct {
	lists []*List
}

// NewIndex creates an index for n compounds with empty lists.
func NewIndex(n int) *Index {
	idx := &Index{lists: make([]*List, n)}
	for i := range idx.lists {
		idx.lists[i] = &List{}
	}
	return idx
}

// Size returns the number of compounds in the index.
func (x *Index) Size() int { return len(x.lists) }

// List returns the neighbor list of compound i.
func (x *Index) List(i int) *List { return x.lists[i] }

// BuildFromCondensed populates every list from an all-pairs condensed
// distance vector. Entries land in ordinal order, self excluded.
func (x *Index) BuildFromCondensed(c *distance.Condensed) {
	for i := 0; i < c.N; i++ {
		l := x.lists[i]
		l.entries = l.entries[:0]
		for j := 0; j < c.N; j++ {
			if i == j {
				continue
			}
			l.entries = append(l.entries, Entry{Index: j, Distance: c.At(i, j)})
		}
		l.computed = true
		l.sorted = false
	}
}

// SetRow replaces compound i's list with one-vs-all distances against the
// full compound set (dists[j] is the distance to compound j; the self slot
// is skipped).
func (x *Index) SetRow(i int, dists []float64) {
	l := x.lists[i]
	l.entries = l.entries[:0]
	for j, d := range dists {
		if j == i {
			continue
		}
		l.entries = append(l.entries, Entry{Index: j, Distance: d})
	}
	l.computed = true
	l.sorted = false
}

// AppendEntry adds a single neighbor to compound i's list, marking it
// unsorted. Used when loading a persisted distance matrix.
func (x *Index) AppendEntry(i int, e Entry) {
	l := x.lists[i]
	l.entries = append(l.entries, e)
	l.computed = true
	l.sorted = false
}

// Grow extends the index to n compounds, appending empty lists. Shrinking
// is not supported; a smaller n is a no-op.
func (x *Index) Grow(n int) {
	for len(x.lists) < n {
		x.lists = append(x.lists, &List{})
	}
}

// Scale multiplies every stored distance by f, preserving order.
func (x *Index) Scale(f float64) {
	for _, l := range x.lists {
		for i := range l.entries {
			l.entries[i].Distance *= f
		}
	}
}

// SortAll sorts every list ascending.
func (x *Index) SortAll() {
	for _, l := range x.lists {
		l.Sort()
	}
}

// SortAllDescending sorts every list descending.
func (x *Index) SortAllDescending() {
	for _, l := range x.lists {
		l.SortDescending()
	}
}

// Rebuild recomputes the neighbor lists of the given compounds only,
// against the supplied signature view (one vector per compound ordinal),
// leaving every other list untouched. Rebuilt lists are sorted, descending
// when requested.
func (x *Index) Rebuild(ctx context.Context, members []int, vectors [][]float64, m distance.Metric, workers int, descending bool) error {
	queries := make([][]float64, len(members))
	for i, ci := range members {
		queries[i] = vectors[ci]
	}

	rows, err := distance.Rows(ctx, queries, vectors, m, workers)
	if err != nil {
		return err
	}

	for i, ci := range members {
		x.SetRow(ci, rows[i])
		if descending {
			x.lists[ci].SortDescending()
		} else {
			x.lists[ci].Sort()
		}
	}

	return nil
}

// Filter removes entries whose compound the predicate reports as removed.
// Relative order of surviving entries is preserved.
func (x *Index) Filter(removed func(int) bool) {
	for _, l := range x.lists {
		kept := l.entries[:0]
		for _, e := range l.entries {
			if !removed(e.Index) {
				kept = append(kept, e)
			}
		}
		l.entries = kept
	}
}
