package matrix

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proteorank/proteorank/neighbor"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead(t *testing.T) {
	content := "P1\t0.1\t0.2\t0.3\nP2\t0.4\t0.5\t0.6\n"

	t.Run("CompoundMajor", func(t *testing.T) {
		s, err := Read(writeFile(t, "matrix.tsv", content))
		require.NoError(t, err)

		assert.Equal(t, 3, s.Compounds())
		assert.Equal(t, 2, s.ProteinCount())
		assert.Equal(t, []string{"P1", "P2"}, s.ProteinIDs)
		assert.Equal(t, []float64{0.1, 0.4}, s.Signature(0))
		assert.Equal(t, []float64{0.3, 0.6}, s.Signature(2))
	})

	t.Run("RejectsFixedWidthExtension", func(t *testing.T) {
		_, err := Read(writeFile(t, "matrix.fpt", content))
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe.Error(), "ConvertFixedWidth")
	})

	t.Run("RejectsSingleField", func(t *testing.T) {
		_, err := Read(writeFile(t, "matrix.tsv", "P1 0.1 0.2\n"))
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 1, fe.Line)
		assert.Contains(t, fe.Error(), "ConvertFixedWidth")
	})

	t.Run("RejectsRaggedRows", func(t *testing.T) {
		_, err := Read(writeFile(t, "matrix.tsv", "P1\t0.1\t0.2\nP2\t0.4\n"))
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 2, fe.Line)
	})

	t.Run("RejectsBadScore", func(t *testing.T) {
		_, err := Read(writeFile(t, "matrix.tsv", "P1\tabc\n"))
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("ProteinSet", func(t *testing.T) {
		s, err := Read(writeFile(t, "matrix.tsv", content), WithProteinSet([]string{"P2"}))
		require.NoError(t, err)

		assert.Equal(t, []string{"P2"}, s.ProteinIDs)
		assert.Equal(t, []float64{0.4}, s.Signature(0))
	})

	t.Run("ProteinSetWithRemap", func(t *testing.T) {
		remap := writeFile(t, "remap.csv", "part1,part2,alt\nP,1,ALT1\nP,2,ALT2\n")
		s, err := Read(writeFile(t, "matrix.tsv", content),
			WithProteinSet([]string{"ALT1"}), WithRemap(remap))
		require.NoError(t, err)

		assert.Equal(t, []string{"P1"}, s.ProteinIDs)
		assert.Equal(t, []string{"ALT1"}, s.AltIDs)
	})
}

func TestReadCompressed(t *testing.T) {
	s := &Store{
		ProteinIDs: []string{"P1", "P2"},
		AltIDs:     []string{"", ""},
		signatures: [][]float64{{0.1, 0.4}, {0.2, 0.5}},
	}

	for _, ext := range []string{".tsv", ".tsv.gz", ".tsv.lz4"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "matrix"+ext)
			require.NoError(t, s.Write(path))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, s.ProteinIDs, got.ProteinIDs)
			assert.Equal(t, s.signatures, got.signatures)
		})
	}
}

func TestStoreAppend(t *testing.T) {
	s := &Store{
		ProteinIDs: []string{"P1", "P2"},
		signatures: [][]float64{{0.1, 0.4}},
	}

	require.NoError(t, s.Append([]float64{0.7, 0.8}))
	assert.Equal(t, 2, s.Compounds())

	assert.Error(t, s.Append([]float64{0.7}))
}

func TestStoreProject(t *testing.T) {
	s := &Store{signatures: [][]float64{{1, 2, 3}, {4, 5, 6}}}

	got := s.Project([]int{2, 0})
	assert.Equal(t, [][]float64{{3, 1}, {6, 4}}, got)

	// Fresh vectors, not views.
	got[0][0] = 99
	assert.Equal(t, 3.0, s.Signature(0)[2])
}

func TestConvertFixedWidth(t *testing.T) {
	// Protein name to the first space, scores at byte 24, stride 8, width 5.
	line := "PROT1 extra padding" + strings.Repeat(" ", 5) + "0.12    0.34    0.56 "
	require.Equal(t, "0.12 ", line[24:29])
	require.Equal(t, "0.34 ", line[32:37])
	require.Equal(t, "0.56 ", line[40:45])

	t.Run("Converts", func(t *testing.T) {
		in := writeFile(t, "matrix.fpt", line+"\n")
		out, err := ConvertFixedWidth(in, "")
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSuffix(in, ".fpt")+".tsv", out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		fields := strings.Split(strings.TrimRight(string(data), "\n"), "\t")
		require.Len(t, fields, 4)
		assert.Equal(t, "PROT1", fields[0])
		assert.Equal(t, "0.12", fields[1])
		assert.Equal(t, "0.56", fields[3])
	})

	t.Run("RoundTripsThroughRead", func(t *testing.T) {
		in := writeFile(t, "matrix.fpt", line+"\n")
		out, err := ConvertFixedWidth(in, "")
		require.NoError(t, err)

		s, err := Read(out)
		require.NoError(t, err)
		assert.Equal(t, 3, s.Compounds())
		assert.InDelta(t, 0.34, s.Signature(1)[0], 1e-12)
	})

	t.Run("NoSpaceAfterName", func(t *testing.T) {
		in := writeFile(t, "matrix.fpt", "PROT1NOSPACE\n")
		_, err := ConvertFixedWidth(in, "")
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})
}

func TestConvertScale(t *testing.T) {
	t.Run("DistanceToSimilarity", func(t *testing.T) {
		in := writeFile(t, "dist.tsv", "0\t1\n1\t0\n")
		out := filepath.Join(t.TempDir(), "sim.tsv")
		require.NoError(t, ConvertScale(in, out))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "1\t0.5\n0.5\t1\n", string(data))
	})

	t.Run("SimilarityToDistance", func(t *testing.T) {
		in := writeFile(t, "sim.tsv", "1\t0.25\n0.25\t1\n")
		out := filepath.Join(t.TempDir(), "dist.tsv")
		require.NoError(t, ConvertScale(in, out))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "0\t0.75\n0.75\t0\n", string(data))
	})

	t.Run("AmbiguousFirstValue", func(t *testing.T) {
		in := writeFile(t, "odd.tsv", "0.5\t1\n")
		err := ConvertScale(in, filepath.Join(t.TempDir(), "out.tsv"))
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Avg", func(t *testing.T) {
		s := &Store{signatures: [][]float64{{1, 3}, {0, 0}}}
		s.Normalize(NormAvg)
		assert.Equal(t, []float64{0.5, 1.5}, s.Signature(0))
		// All-zero stays all zero.
		assert.Equal(t, []float64{0, 0}, s.Signature(1))
	})

	t.Run("Max", func(t *testing.T) {
		s := &Store{signatures: [][]float64{{1, 4}}}
		s.Normalize(NormMax)
		assert.Equal(t, []float64{0.25, 1}, s.Signature(0))
	})
}

func TestParseNormMethod(t *testing.T) {
	m, err := ParseNormMethod("avg")
	require.NoError(t, err)
	assert.Equal(t, NormAvg, m)

	m, err = ParseNormMethod("max")
	require.NoError(t, err)
	assert.Equal(t, NormMax, m)

	_, err = ParseNormMethod("median")
	assert.Error(t, err)
}

func TestDistanceFileRoundTrip(t *testing.T) {
	idx := neighbor.NewIndex(3)
	idx.SetRow(0, []float64{0, 0.5, 0.9})
	idx.SetRow(1, []float64{0.5, 0, 0.2})
	idx.SetRow(2, []float64{0.9, 0.2, 0})

	for _, similarity := range []bool{false, true} {
		name := "distance"
		if similarity {
			name = "similarity"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dists.tsv")
			require.NoError(t, WriteDistances(idx, path, similarity))

			got, err := ReadDistances(path, 3, similarity)
			require.NoError(t, err)

			got.SortAll()
			want := neighbor.NewIndex(3)
			want.SetRow(0, []float64{0, 0.5, 0.9})
			want.SetRow(1, []float64{0.5, 0, 0.2})
			want.SetRow(2, []float64{0.9, 0.2, 0})
			want.SortAll()

			for i := 0; i < 3; i++ {
				we := want.List(i).Entries()
				ge := got.List(i).Entries()
				require.Equal(t, len(we), len(ge))
				for k := range we {
					assert.Equal(t, we[k].Index, ge[k].Index)
					assert.InDelta(t, we[k].Distance, ge[k].Distance, 1e-12)
				}
			}
		})
	}

	t.Run("DiagonalPlaceholder", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dists.tsv")
		require.NoError(t, WriteDistances(idx, path, false))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		rows := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, rows, 3)
		assert.Equal(t, "0", strings.Split(rows[0], "\t")[0])
		assert.Equal(t, "0", strings.Split(rows[1], "\t")[1])
	})

	t.Run("MissingNeighborIsNaN", func(t *testing.T) {
		sparse := neighbor.NewIndex(2)
		sparse.AppendEntry(0, neighbor.Entry{Index: 1, Distance: 0.5})
		// Compound 1's list is empty: its row has a NaN for compound 0.

		path := filepath.Join(t.TempDir(), "dists.tsv")
		require.NoError(t, WriteDistances(sparse, path, false))

		got, err := ReadDistances(path, 2, false)
		require.NoError(t, err)
		e, ok := got.List(1).At(0)
		require.True(t, ok)
		assert.True(t, math.IsNaN(e.Distance))
	})

	t.Run("RowCountMismatch", func(t *testing.T) {
		path := writeFile(t, "short.tsv", "0\t1\n1\t0\n")
		_, err := ReadDistances(path, 3, false)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})
}
