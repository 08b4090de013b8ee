package analyze

import (
	"errors"
	"sort"
)

// ErrNoCandidates is returned when no heuristic proposed a k.
var ErrNoCandidates = errors.New("no heuristic produced a candidate")

// Votes counts how many heuristics proposed each k.
func Votes(c CandidateSet) map[int]int {
	votes := make(map[int]int, len(c))
	for _, k := range c {
		votes[k]++
	}
	return votes
}

// SelectConsensus returns the k with the most votes. Among equally
// supported values the largest k wins.
func SelectConsensus(c CandidateSet) (int, error) {
	if len(c) == 0 {
		return 0, ErrNoCandidates
	}
	votes := Votes(c)
	ks := make([]int, 0, len(votes))
	for k := range votes {
		ks = append(ks, k)
	}
	sort.Ints(ks)

	best, bestCount := 0, 0
	for _, k := range ks {
		if votes[k] >= bestCount {
			best, bestCount = k, votes[k]
		}
	}
	return best, nil
}
