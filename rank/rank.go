// Package rank converts a sorted neighbor list and a known match distance
// into an integer rank under a tie-break policy. This is the tie-sensitive
// core: identical inputs with duplicate distances yield different ranks
// across policies.
package rank

import (
	"fmt"

	"github.com/proteorank/proteorank/neighbor"
)

// Policy selects the tie-break semantics for competitive ranking.
type Policy int

const (
	// PolicyStandard counts neighbors strictly closer than the match
	// distance: optimistic, the match sits at the start of its tie block.
	PolicyStandard Policy = iota
	// PolicyModified counts neighbors at or closer than the match
	// distance: pessimistic, end of the tie block.
	PolicyModified
	// PolicyOrdinal is the literal list position of the matched neighbor;
	// ties break by stored order.
	PolicyOrdinal
)

func (p Policy) String() string {
	switch p {
	case PolicyStandard:
		return "standard"
	case PolicyModified:
		return "modified"
	case PolicyOrdinal:
		return "ordinal"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ErrUnknownPolicy indicates a ranking policy name outside the supported
// set. It is a configuration error raised before any scoring begins.
type ErrUnknownPolicy struct {
	Name string
}

func (e *ErrUnknownPolicy) Error() string {
	return fmt.Sprintf("unknown ranking policy: %q", e.Name)
}

// ParsePolicy resolves a policy by name.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "standard":
		return PolicyStandard, nil
	case "modified":
		return PolicyModified, nil
	case "ordinal":
		return PolicyOrdinal, nil
	default:
		return 0, &ErrUnknownPolicy{Name: name}
	}
}

// Rank returns the rank of a match with distance r within the sorted
// entries. matchPos is the literal position of the matched entry, consumed
// only by the ordinal policy. bottom reverses the comparisons for
// negative-control scoring against descending (least-similar first) lists.
//
// The result is in [0, len(entries)]; len(entries) means no neighbor
// satisfied the comparison.
func Rank(entries []neighbor.Entry, r float64, matchPos int, policy Policy, bottom bool) int {
	if policy == PolicyOrdinal {
		return matchPos
	}

	rank := 0
	for _, e := range entries {
		if satisfies(e.Distance, r, policy, bottom) {
			rank++
		} else {
			return rank
		}
	}
	return len(entries)
}

// satisfies applies the policy comparison. NaN never satisfies any
// comparison, so a NaN block terminates the scan.
func satisfies(d, r float64, policy Policy, bottom bool) bool {
	if bottom {
		if policy == PolicyModified {
			return d >= r
		}
		return d > r
	}
	if policy == PolicyModified {
		return d <= r
	}
	return d < r
}
