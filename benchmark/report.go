package benchmark

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/proteorank/proteorank/catalog"
)

// Observation is one scored (compound, effect) pair: the rank or raw
// distance of the first co-member hit and its per-cutoff outcomes.
type Observation struct {
	CompoundIndex int
	EffectID      string
	Value         float64
	Hits          []bool
}

// EffectResult aggregates one effect's per-cutoff hit counts.
type EffectResult struct {
	Effect      *catalog.Effect
	MemberCount int
	Hits        []int
}

// Accuracy returns the effect's hit rate at cutoff k as a percentage.
func (e EffectResult) Accuracy(k int) float64 {
	return float64(e.Hits[k]) / float64(e.MemberCount) * 100
}

// Results is a benchmark's explicit outcome value. Aggregates are derived
// on demand; nothing is shared with the runner.
type Results struct {
	Cutoffs      []Cutoff
	Effects      []EffectResult
	Observations []Observation
	Kind         catalog.EffectKind
	Continuous   bool
}

// AIA returns the average indication accuracy per cutoff: the mean of
// per-effect accuracies, in percent.
func (r *Results) AIA() []float64 {
	out := make([]float64, len(r.Cutoffs))
	if len(r.Effects) == 0 {
		return out
	}
	for _, er := range r.Effects {
		for k := range out {
			out[k] += er.Accuracy(k) / float64(len(r.Effects))
		}
	}
	return out
}

// APA returns the average pairwise accuracy per cutoff: total hits over
// total observations, in percent.
func (r *Results) APA() []float64 {
	out := make([]float64, len(r.Cutoffs))
	if len(r.Observations) == 0 {
		return out
	}
	for _, obs := range r.Observations {
		for k, hit := range obs.Hits {
			if hit {
				out[k] += 100 / float64(len(r.Observations))
			}
		}
	}
	return out
}

// IC returns the indication coverage per cutoff: the number of effects
// with at least one hit.
func (r *Results) IC() []int {
	out := make([]int, len(r.Cutoffs))
	for _, er := range r.Effects {
		for k, h := range er.Hits {
			if h > 0 {
				out[k]++
			}
		}
	}
	return out
}

// WriteSummary writes the three-row aggregate table: aia, apa and ic per
// cutoff. Parent directories are created on demand.
func (r *Results) WriteSummary(path string) error {
	return writeReport(path, func(bw *bufio.Writer) {
		for _, c := range r.Cutoffs {
			bw.WriteByte('\t')
			bw.WriteString(c.Label)
		}
		bw.WriteByte('\n')

		bw.WriteString("aia")
		for _, v := range r.AIA() {
			fmt.Fprintf(bw, "\t%.3f", v)
		}
		bw.WriteString("\napa")
		for _, v := range r.APA() {
			fmt.Fprintf(bw, "\t%.3f", v)
		}
		bw.WriteString("\nic")
		for _, v := range r.IC() {
			fmt.Fprintf(bw, "\t%d", v)
		}
		bw.WriteByte('\n')
	})
}

// WriteDetail writes the per-effect table: id, member count, per-cutoff
// hit percentage and name, largest effects first.
func (r *Results) WriteDetail(path string) error {
	kind := r.Kind.String()

	sorted := make([]EffectResult, len(r.Effects))
	copy(sorted, r.Effects)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MemberCount != sorted[j].MemberCount {
			return sorted[i].MemberCount > sorted[j].MemberCount
		}
		return sorted[i].Effect.ID > sorted[j].Effect.ID
	})

	return writeReport(path, func(bw *bufio.Writer) {
		fmt.Fprintf(bw, "%s_id\tcmpds_per_%s", kind, kind)
		for _, c := range r.Cutoffs {
			bw.WriteByte('\t')
			bw.WriteString(c.Label)
		}
		fmt.Fprintf(bw, "\t%s_name\n", kind)

		for _, er := range sorted {
			fmt.Fprintf(bw, "%s\t%d", er.Effect.ID, er.MemberCount)
			for k := range r.Cutoffs {
				fmt.Fprintf(bw, "\t%.1f", er.Accuracy(k))
			}
			fmt.Fprintf(bw, "\t%s\n", er.Effect.Name)
		}
	})
}

// WriteRaw writes the per-observation CSV: compound index, effect id, a
// 0/1 column per cutoff and the trailing rank (or raw distance in
// continuous mode). Observations are already in compound order.
func (r *Results) WriteRaw(path string) error {
	kind := r.Kind.String()

	return writeReport(path, func(bw *bufio.Writer) {
		fmt.Fprintf(bw, "compound_id,%s_id", kind)
		for _, c := range r.Cutoffs {
			if r.Continuous {
				fmt.Fprintf(bw, ",%s(%.3f)", c.Label, c.Value)
			} else {
				bw.WriteByte(',')
				bw.WriteString(c.Label)
			}
		}
		if r.Continuous {
			bw.WriteString(",value\n")
		} else {
			bw.WriteString(",rank\n")
		}

		for _, obs := range r.Observations {
			fmt.Fprintf(bw, "%d,%s", obs.CompoundIndex, obs.EffectID)
			for _, hit := range obs.Hits {
				if hit {
					bw.WriteString(",1")
				} else {
					bw.WriteString(",0")
				}
			}
			if r.Continuous {
				bw.WriteString("," + strconv.FormatFloat(obs.Value, 'g', -1, 64) + "\n")
			} else {
				fmt.Fprintf(bw, ",%d\n", int(obs.Value))
			}
		}
	})
}

// writeReport creates path's parent directories, streams the body through
// a buffered writer, and closes the file.
func writeReport(path string, body func(*bufio.Writer)) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	body(bw)
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
