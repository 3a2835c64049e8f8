// Package matrix reads and writes compound-protein interaction matrices
// and derived distance matrices. The on-disk layout is row-per-protein,
// tab-separated (`proteinID \t score...`); in memory the store is
// compound-major so a compound signature is a contiguous slice.
//
// Files ending in .gz or .lz4 are compressed transparently on both read
// and write.
package matrix

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FormatError reports a structurally invalid matrix file. The message
// carries a corrective instruction when the cause is the legacy
// fixed-width layout.
type FormatError struct {
	Path   string
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("matrix %s: line %d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("matrix %s: %s", e.Path, e.Reason)
}

// fixedWidthHint is the instruction attached to rejections of the legacy
// fixed-width format.
const fixedWidthHint = "legacy fixed-width format; convert it first with matrix.ConvertFixedWidth"

// Store holds interaction signatures, compound-major. Row i of the source
// file is protein i after allow-list filtering; column j is compound j.
type Store struct {
	// ProteinIDs are the kept row identifiers, in row order.
	ProteinIDs []string
	// AltIDs are the secondary identifiers resolved through the remap
	// table, empty strings when no remap was used.
	AltIDs []string

	signatures [][]float64
}

type readOptions struct {
	proteinSet []string
	remapPath  string
}

// ReadOption configures Read.
type ReadOption func(*readOptions)

// WithProteinSet restricts ingestion to matrix rows whose identifier is in
// the allow-list, directly or through the remap table.
func WithProteinSet(ids []string) ReadOption {
	return func(o *readOptions) {
		o.proteinSet = ids
	}
}

// WithRemap supplies a secondary-identifier table (CSV with header; each
// row is idPart1,idPart2,altID where idPart1+idPart2 is the matrix row
// identifier). The allow-list is then matched against alt identifiers.
func WithRemap(path string) ReadOption {
	return func(o *readOptions) {
		o.remapPath = path
	}
}

// Read ingests a matrix file. Rows are rectangular; a .fpt path or a row
// with fewer than two tab-separated fields is rejected with a FormatError
// naming the fixed-width conversion.
func Read(path string, opts ...ReadOption) (*Store, error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}

	if strings.HasSuffix(path, ".fpt") {
		return nil, &FormatError{Path: path, Reason: fixedWidthHint}
	}

	var allow map[string]string // row id -> alt id; nil means keep all
	if len(o.proteinSet) > 0 {
		var err error
		allow, err = buildAllowList(o.proteinSet, o.remapPath)
		if err != nil {
			return nil, err
		}
	}

	s := &Store{}
	err := scanLines(path, func(n int, line string) error {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 2 {
			return &FormatError{Path: path, Line: n, Reason: fixedWidthHint}
		}

		id := fields[0]
		alt := ""
		if allow != nil {
			var ok bool
			alt, ok = allow[id]
			if !ok {
				return nil
			}
		}

		scores := fields[1:]
		if len(s.signatures) == 0 {
			s.signatures = make([][]float64, len(scores))
		} else if len(scores) != len(s.signatures) {
			return &FormatError{
				Path: path, Line: n,
				Reason: fmt.Sprintf("expected %d scores, got %d", len(s.signatures), len(scores)),
			}
		}

		for i, f := range scores {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return &FormatError{Path: path, Line: n, Reason: fmt.Sprintf("bad score %q", f)}
			}
			s.signatures[i] = append(s.signatures[i], v)
		}
		s.ProteinIDs = append(s.ProteinIDs, id)
		s.AltIDs = append(s.AltIDs, alt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// buildAllowList resolves the protein allow-list into a row-id keyed map.
// Without a remap table each allow-list entry is itself a row id.
func buildAllowList(proteinSet []string, remapPath string) (map[string]string, error) {
	allow := make(map[string]string, len(proteinSet))
	if remapPath == "" {
		for _, id := range proteinSet {
			allow[id] = ""
		}
		return allow, nil
	}

	wanted := make(map[string]bool, len(proteinSet))
	for _, id := range proteinSet {
		wanted[id] = true
	}

	f, err := os.Open(remapPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("remap table %s: %w", remapPath, err)
	}
	for i, rec := range records {
		if i == 0 || len(rec) < 3 {
			continue
		}
		rowID := rec[0] + rec[1]
		if wanted[rec[2]] {
			allow[rowID] = rec[2]
		}
	}
	return allow, nil
}

// Compounds returns the number of compound columns.
func (s *Store) Compounds() int { return len(s.signatures) }

// ProteinCount returns the number of kept protein rows.
func (s *Store) ProteinCount() int { return len(s.ProteinIDs) }

// Signature returns compound i's interaction vector. The slice is backing
// storage, not a copy.
func (s *Store) Signature(i int) []float64 { return s.signatures[i] }

// Signatures returns all compound signatures, ordinal order.
func (s *Store) Signatures() [][]float64 { return s.signatures }

// Append adds a compound column. The signature length must equal the
// protein count.
func (s *Store) Append(sig []float64) error {
	if len(sig) != len(s.ProteinIDs) {
		return fmt.Errorf("signature length %d, want %d", len(sig), len(s.ProteinIDs))
	}
	s.signatures = append(s.signatures, sig)
	return nil
}

// Project returns fresh signature vectors restricted to the given protein
// row indexes, in the given order.
func (s *Store) Project(proteinIdx []int) [][]float64 {
	out := make([][]float64, len(s.signatures))
	for c, sig := range s.signatures {
		sub := make([]float64, len(proteinIdx))
		for k, p := range proteinIdx {
			sub[k] = sig[p]
		}
		out[c] = sub
	}
	return out
}

// Write stores the matrix in row-per-protein layout.
func (s *Store) Write(path string) error {
	w, err := openWriter(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for p, id := range s.ProteinIDs {
		bw.WriteString(id)
		for _, sig := range s.signatures {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(sig[p], 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
