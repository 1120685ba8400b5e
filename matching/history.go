package matching

import (
	"sort"
	"strings"

	"duomatch_server/models"
)

// HistoryKeys is the set of canonical four-person keys already matched in earlier weeks
type HistoryKeys map[string]struct{}

// MatchKey sorts the ids and joins them, so the key ignores duo order and member order
func MatchKey(ids ...string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// PairKey is the MatchKey of two duos
func PairKey(a, b models.Duo) string {
	ia, ib := a.IDs(), b.IDs()
	return MatchKey(ia[0], ia[1], ib[0], ib[1])
}

// KeysFromRecords builds the history set from stored matches
func KeysFromRecords(records []models.WeeklyMatch) HistoryKeys {
	keys := make(HistoryKeys, len(records))
	for _, r := range records {
		ids := r.UserIDs()
		keys[MatchKey(ids[:]...)] = struct{}{}
	}
	return keys
}

// WasMatchedBefore reports whether the same four people were matched in an earlier week
func (k HistoryKeys) WasMatchedBefore(a, b models.Duo) bool {
	_, ok := k[PairKey(a, b)]
	return ok
}
