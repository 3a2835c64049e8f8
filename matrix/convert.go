package matrix

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Fixed-width layout constants of the legacy format: the protein name runs
// to the first space, scores start at byte 24 with a stride of 8 and a
// field width of 5.
const (
	fixedScoreOffset = 24
	fixedScoreStride = 8
	fixedScoreWidth  = 5
)

// ConvertFixedWidth rewrites a legacy fixed-width matrix file as
// tab-separated. An empty outPath derives the output name from inPath
// (.fpt swapped for .tsv, otherwise .tsv appended). It returns the output
// path written.
func ConvertFixedWidth(inPath, outPath string) (string, error) {
	if outPath == "" {
		if strings.HasSuffix(inPath, ".fpt") {
			outPath = strings.TrimSuffix(inPath, ".fpt") + ".tsv"
		} else {
			outPath = inPath + ".tsv"
		}
	}

	w, err := openWriter(outPath)
	if err != nil {
		return "", err
	}
	bw := bufio.NewWriter(w)

	err = scanLines(inPath, func(n int, line string) error {
		name, _, found := strings.Cut(line, " ")
		if !found {
			return &FormatError{Path: inPath, Line: n, Reason: "no space after protein name"}
		}

		bw.WriteString(name)
		for i := fixedScoreOffset; i+fixedScoreWidth <= len(line); i += fixedScoreStride {
			field := strings.TrimSpace(line[i : i+fixedScoreWidth])
			if _, err := strconv.ParseFloat(field, 64); err != nil {
				return &FormatError{Path: inPath, Line: n, Reason: fmt.Sprintf("bad score field %q", field)}
			}
			bw.WriteByte('\t')
			bw.WriteString(field)
		}
		bw.WriteByte('\n')
		return nil
	})
	if err != nil {
		w.Close()
		return "", err
	}

	if err := bw.Flush(); err != nil {
		w.Close()
		return "", err
	}
	return outPath, w.Close()
}

// ConvertScale rewrites a whole distance file as a similarity file or vice
// versa. The direction is keyed on the first value: 0.0 means a distance
// matrix (converted via 1/(1+d)), 1.0 a similarity matrix (converted via
// 1-s). Any other first value is rejected.
func ConvertScale(inPath, outPath string) error {
	w, err := openWriter(outPath)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	toSimilarity := false
	err = scanLines(inPath, func(n int, line string) error {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return &FormatError{Path: inPath, Line: n, Reason: fmt.Sprintf("bad value %q", f)}
			}
			if n == 1 && i == 0 {
				switch v {
				case 0.0:
					toSimilarity = true
				case 1.0:
					toSimilarity = false
				default:
					return &FormatError{Path: inPath, Reason: fmt.Sprintf("first value %v is neither 0.0 (distance) nor 1.0 (similarity)", v)}
				}
			}
			if toSimilarity {
				v = 1 / (1 + v)
			} else {
				v = 1 - v
			}
			if i > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
		return nil
	})
	if err != nil {
		w.Close()
		return err
	}

	if err := bw.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// NormMethod selects the per-compound interaction score normalization.
type NormMethod int

const (
	// NormAvg divides each compound signature by its mean score.
	NormAvg NormMethod = iota
	// NormMax divides each compound signature by its maximum score.
	NormMax
)

// ParseNormMethod resolves a normalization method by name.
func ParseNormMethod(name string) (NormMethod, error) {
	switch name {
	case "avg":
		return NormAvg, nil
	case "max":
		return NormMax, nil
	default:
		return 0, fmt.Errorf("unknown normalization method: %q", name)
	}
}

// Normalize scales every compound signature in place by its average or
// maximum score. An all-zero signature stays all zero.
func (s *Store) Normalize(method NormMethod) {
	for _, sig := range s.signatures {
		var norm float64
		switch method {
		case NormMax:
			for _, v := range sig {
				if v > norm {
					norm = v
				}
			}
		default:
			var sum float64
			for _, v := range sig {
				sum += v
			}
			if len(sig) > 0 {
				norm = sum / float64(len(sig))
			}
		}
		if norm == 0 {
			continue
		}
		for i := range sig {
			sig[i] /= norm
		}
	}
}
