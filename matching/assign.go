package matching

import (
	"sort"

	"duomatch_server/models"
)

// DefaultMinScore is the lowest score a pair may have and still be matched
const DefaultMinScore = 60

// Candidate is one group A duo considered against one group B duo
type Candidate struct {
	A                 models.Duo `json:"a"`
	B                 models.Duo `json:"b"`
	AIndex            int        `json:"aIndex"` // position in group A
	BIndex            int        `json:"bIndex"` // position in group B
	Feasible          bool       `json:"feasible"`
	PreviouslyMatched bool       `json:"previouslyMatched"`
	Score             Score      `json:"score"`
}

// EvaluatePairs enumerates group A x group B in discovery order and marks feasibility
func EvaluatePairs(groupA, groupB []models.Duo) []Candidate {
	out := make([]Candidate, 0, len(groupA)*len(groupB))
	for i, a := range groupA {
		for j, b := range groupB {
			out = append(out, Candidate{A: a, B: b, AIndex: i, BIndex: j, Feasible: IsPairFeasible(a, b)})
		}
	}
	return out
}

// FeasibleOnly keeps the candidates that passed the hard filters
func FeasibleOnly(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Feasible {
			out = append(out, c)
		}
	}
	return out
}

// ScoreCandidates fills in each candidate's score
func ScoreCandidates(candidates []Candidate) {
	for i := range candidates {
		candidates[i].Score = ScorePair(candidates[i].A, candidates[i].B)
	}
}

// MarkRepeats flags candidates matched in an earlier week and returns how many were flagged
func MarkRepeats(candidates []Candidate, previous HistoryKeys) int {
	n := 0
	for i := range candidates {
		if previous.WasMatchedBefore(candidates[i].A, candidates[i].B) {
			candidates[i].PreviouslyMatched = true
			n++
		}
	}
	return n
}

// Greedy walks non-repeated candidates from highest score down and accepts a pair
// when it clears minScore and neither duo is taken yet. Ties keep discovery order.
// This is not an optimal assignment: a duo can be stranded behind two better pairings.
func Greedy(candidates []Candidate, minScore int) (accepted []Candidate, belowThreshold int) {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.PreviouslyMatched {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Value > ranked[j].Score.Value
	})

	usedA := map[int]bool{}
	usedB := map[int]bool{}
	for _, c := range ranked {
		if c.Score.Value < minScore {
			belowThreshold++
			continue
		}
		if usedA[c.AIndex] || usedB[c.BIndex] {
			continue
		}
		usedA[c.AIndex] = true
		usedB[c.BIndex] = true
		accepted = append(accepted, c)
	}
	return accepted, belowThreshold
}

// Assign runs filter, history exclusion, scoring and the greedy walk in one call
func Assign(groupA, groupB []models.Duo, previous HistoryKeys, minScore int) []Candidate {
	candidates := FeasibleOnly(EvaluatePairs(groupA, groupB))
	MarkRepeats(candidates, previous)
	ScoreCandidates(candidates)
	accepted, _ := Greedy(candidates, minScore)
	return accepted
}
