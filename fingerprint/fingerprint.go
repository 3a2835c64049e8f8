// Package fingerprint scores chemical fingerprints against reference
// ligand fingerprints with Tanimoto similarity. Fingerprint generation
// itself (RDKit-style ECFP, Daylight and friends) is a black-box
// collaborator behind the Generator interface.
package fingerprint

import "context"

// Generator computes a fixed-length bitstring fingerprint ("0"/"1" runes)
// from a compound structure file.
type Generator interface {
	Generate(ctx context.Context, structureFile string) (string, error)
}

// TanimotoSparse computes the Tanimoto coefficient of two equal-length
// bitstrings of '0' and '1'. Two empty fingerprints score 0.
func TanimotoSparse(a, b string) float64 {
	var na, nb, nc float64
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == '1' {
			na++
			if b[i] == '1' {
				nc++
			}
		}
		if b[i] == '1' {
			nb++
		}
	}
	if na+nb == 0 {
		return 0
	}
	return nc / (na + nb - nc)
}

// TanimotoDense computes the Tanimoto coefficient of two fingerprints
// given as set-bit position lists.
func TanimotoDense(a, b []int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[int]bool, len(a))
	for _, i := range a {
		set[i] = true
	}
	common := 0
	for _, i := range b {
		if set[i] {
			common++
		}
	}
	return float64(common) / float64(len(a)+len(b)-common)
}

// SignatureFromLigands builds an interaction signature for a compound
// fingerprint: one score per protein, the best Tanimoto similarity against
// that protein's binding-site ligand fingerprints. Proteins without
// ligands score 0.
func SignatureFromLigands(fp string, ligandSets [][]string) []float64 {
	sig := make([]float64, len(ligandSets))
	for p, ligands := range ligandSets {
		best := 0.0
		for _, lig := range ligands {
			if lig == "" {
				continue
			}
			if s := TanimotoSparse(fp, lig); s > best {
				best = s
			}
		}
		sig[p] = best
	}
	return sig
}
