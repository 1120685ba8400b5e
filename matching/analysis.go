package matching

import "duomatch_server/models"

// PairAnalysis is one group A x group B pair that failed the hard filters
type PairAnalysis struct {
	DuoA   [2]string         `json:"duoA"`
	DuoB   [2]string         `json:"duoB"`
	Report FeasibilityReport `json:"report"`
}

// Analysis is a dry run of partitioning and filtering. It never writes.
type Analysis struct {
	Duos       int            `json:"duos"`
	GroupA     int            `json:"groupA"`
	GroupB     int            `json:"groupB"`
	Excluded   []string       `json:"excluded"` // "id1,id2" per mixed or unknown-gender duo
	Pairs      int            `json:"pairs"`
	Feasible   int            `json:"feasible"`
	Failures   FailureCounts  `json:"failures"`
	Infeasible []PairAnalysis `json:"infeasible"`
}

// FailureCounts counts directed person checks that failed each predicate
type FailureCounts struct {
	Year     int `json:"year"`
	Religion int `json:"religion"`
	Race     int `json:"race"`
}

// Analyze explains why duos would or would not be paired this week
func Analyze(duos []models.Duo) Analysis {
	groupA, groupB := Partition(duos)
	out := Analysis{
		Duos:   len(duos),
		GroupA: len(groupA),
		GroupB: len(groupB),
		Pairs:  len(groupA) * len(groupB),
	}
	for _, duo := range duos {
		if ClassifyDuo(duo) == GroupNone {
			ids := duo.IDs()
			out.Excluded = append(out.Excluded, ids[0]+","+ids[1])
		}
	}

	for _, a := range groupA {
		for _, b := range groupB {
			report := ExplainPair(a, b)
			for _, link := range report.Links {
				if !link.Year {
					out.Failures.Year++
				}
				if !link.Religion {
					out.Failures.Religion++
				}
				if !link.Race {
					out.Failures.Race++
				}
			}
			if report.Feasible {
				out.Feasible++
				continue
			}
			out.Infeasible = append(out.Infeasible, PairAnalysis{DuoA: a.IDs(), DuoB: b.IDs(), Report: report})
		}
	}
	return out
}
