package distance

import (
	"context"
	"sync"
)

// Condensed holds the upper-triangular (no diagonal) all-pairs distances
// for N signatures: one value per unordered pair, row-major, i < j.
type Condensed struct {
	N      int
	Values []float64
}

// offset returns the condensed index for the pair (i, j), i < j.
func (c *Condensed) offset(i, j int) int {
	return i*(2*c.N-i-1)/2 + (j - i - 1)
}

// At returns the distance between signatures i and j (i != j).
// Pair identity, not position, is the join key: At(i, j) == At(j, i).
func (c *Condensed) At(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	return c.Values[c.offset(i, j)]
}

// AllPairs computes distances between every unordered pair of signatures
// under the given metric, fanning row batches out over a fixed worker pool.
// Workers write disjoint slices of the condensed output; worker count 1 is
// semantically identical to sequential evaluation.
//
// An unknown metric is rejected before any computation begins.
func AllPairs(ctx context.Context, vectors [][]float64, m Metric, workers int) (*Condensed, error) {
	fn, err := Provider(m)
	if err != nil {
		return nil, err
	}

	n := len(vectors)
	c := &Condensed{
		N:      n,
		Values: make([]float64, n*(n-1)/2),
	}
	if n < 2 {
		return c, nil
	}

	pool := newWorkerPool(workers)
	defer pool.close()

	var wg sync.WaitGroup
	for row := 0; row < n-1; row++ {
		i := row
		wg.Add(1)
		task := func() {
			defer wg.Done()
			base := c.offset(i, i+1)
			for j := i + 1; j < n; j++ {
				c.Values[base+(j-i-1)] = fn(vectors[i], vectors[j])
			}
		}
		if err := pool.submit(ctx, task); err != nil {
			wg.Done()
			pool.close()
			return nil, err
		}
	}
	wg.Wait()

	return c, nil
}

// Rows computes one-vs-all distances for each query signature against the
// candidate set, returning one row of len(candidates) values per query.
// Batching and validation follow AllPairs.
func Rows(ctx context.Context, queries, candidates [][]float64, m Metric, workers int) ([][]float64, error) {
	fn, err := Provider(m)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(queries))
	if len(queries) == 0 {
		return out, nil
	}

	pool := newWorkerPool(workers)
	defer pool.close()

	var wg sync.WaitGroup
	for qi := range queries {
		i := qi
		out[i] = make([]float64, len(candidates))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			for j := range candidates {
				out[i][j] = fn(queries[i], candidates[j])
			}
		}
		if err := pool.submit(ctx, task); err != nil {
			wg.Done()
			pool.close()
			return nil, err
		}
	}
	wg.Wait()

	return out, nil
}

// OneVsAll computes the distance of a single query signature to every
// candidate signature.
func OneVsAll(ctx context.Context, query []float64, candidates [][]float64, m Metric, workers int) ([]float64, error) {
	rows, err := Rows(ctx, [][]float64{query}, candidates, m, workers)
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}
