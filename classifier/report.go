package classifier

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteSummary writes the single-row aggregate table.
func (r *Results) WriteSummary(path string) error {
	return writeReport(path, func(bw *bufio.Writer) {
		bw.WriteString("\taccuracy\n")
		fmt.Fprintf(bw, "aia\t%.3f\n", r.AIA()*100)
		fmt.Fprintf(bw, "apa\t%.3f\n", r.APA()*100)
		fmt.Fprintf(bw, "ic\t%d\n", r.IC())
	})
}

// WriteDetail writes the per-effect confusion table, largest effects
// first.
func (r *Results) WriteDetail(path string) error {
	sorted := make([]EffectScore, len(r.Scores))
	copy(sorted, r.Scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MemberCount != sorted[j].MemberCount {
			return sorted[i].MemberCount > sorted[j].MemberCount
		}
		return sorted[i].Effect.ID > sorted[j].Effect.ID
	})

	return writeReport(path, func(bw *bufio.Writer) {
		bw.WriteString("effect_id\tcmpds_per_effect\ttp\tfp\tfn\ttn\taccuracy\teffect_name\n")
		for _, s := range sorted {
			fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%d\t%d\t%.3f\t%s\n",
				s.Effect.ID, s.MemberCount, s.TP, s.FP, s.FN, s.TN, s.Accuracy()*100, s.Effect.Name)
		}
	})
}

// WriteRaw writes the per-fold prediction CSV.
func (r *Results) WriteRaw(path string) error {
	return writeReport(path, func(bw *bufio.Writer) {
		bw.WriteString("Compound,Effect,Prob,Neg,Neg_prob\n")
		for _, p := range r.Predictions {
			fmt.Fprintf(bw, "%d,%s,%g,%d,%g\n",
				p.CompoundID, p.EffectID, p.Prob, p.NegCompoundID, p.NegProb)
		}
	})
}

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
