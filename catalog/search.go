package catalog

import (
	"sort"
	"strings"
)

// Match is a fuzzy search hit.
type Match struct {
	Compound *Compound
	Score    float64
}

// SearchCompounds returns up to n catalog compounds whose names are closest
// to the query under bigram Dice similarity, best first. Hits below 0.5
// similarity are dropped.
func (c *Catalog) SearchCompounds(name string, n int) []Match {
	query := bigrams(strings.ToLower(strings.TrimSpace(name)))

	var out []Match
	for _, cm := range c.Compounds {
		s := diceSimilarity(query, bigrams(strings.ToLower(cm.Name)))
		if s >= 0.5 {
			out = append(out, Match{Compound: cm, Score: s})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func bigrams(s string) map[string]int {
	grams := make(map[string]int)
	r := []rune(s)
	if len(r) == 1 {
		grams[string(r)] = 1
		return grams
	}
	for i := 0; i+1 < len(r); i++ {
		grams[string(r[i:i+2])]++
	}
	return grams
}

func diceSimilarity(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	total := 0
	shared := 0
	for g, na := range a {
		total += na
		if nb, ok := b[g]; ok {
			if na < nb {
				shared += na
			} else {
				shared += nb
			}
		}
	}
	for _, nb := range b {
		total += nb
	}
	return 2 * float64(shared) / float64(total)
}
