package matching

import "duomatch_server/models"

// Group identifies which side of the bipartite match a duo sits on
type Group int

const (
	GroupNone Group = iota
	GroupA          // both members MALE
	GroupB          // both members FEMALE
)

func (g Group) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	default:
		return "none"
	}
}

// ClassifyDuo places a duo in group A or B. Mixed or unknown duos get GroupNone.
func ClassifyDuo(duo models.Duo) Group {
	g1 := models.NormalizeGender(duo.First.Profile.Gender)
	g2 := models.NormalizeGender(duo.Second.Profile.Gender)
	switch {
	case g1 == models.GenderMale && g2 == models.GenderMale:
		return GroupA
	case g1 == models.GenderFemale && g2 == models.GenderFemale:
		return GroupB
	default:
		return GroupNone
	}
}

// Partition splits duos into the two opposing pools, keeping input order.
// Duos that are not single-gender are left out of both.
func Partition(duos []models.Duo) (groupA, groupB []models.Duo) {
	for _, duo := range duos {
		switch ClassifyDuo(duo) {
		case GroupA:
			groupA = append(groupA, duo)
		case GroupB:
			groupB = append(groupB, duo)
		}
	}
	return groupA, groupB
}
