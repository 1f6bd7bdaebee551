package entities

import (
	"sort"
	"time"

	"ideatracker/pkg/utils"
)

// SortPolicy selects the order of the idea list.
type SortPolicy string

const (
	SortByCreatedAt  SortPolicy = "createdAt"
	SortByImportance SortPolicy = "importance"
)

// ParseSortPolicy maps a query value to a policy. Anything unknown falls back
// to newest first.
func ParseSortPolicy(s string) SortPolicy {
	if SortPolicy(s) == SortByImportance {
		return SortByImportance
	}
	return SortByCreatedAt
}

// SortIdeas returns a sorted copy of ideas. The sort is stable: ideas that
// compare equal keep their fetch order. The input slice is not modified.
func SortIdeas(ideas []*Idea, policy SortPolicy) []*Idea {
	out := make([]*Idea, len(ideas))
	copy(out, ideas)

	switch policy {
	case SortByImportance:
		sort.SliceStable(out, func(a, b int) bool {
			return out[a].Importance > out[b].Importance
		})
	default:
		created := make(map[*Idea]time.Time, len(out))
		for _, i := range out {
			created[i] = parseCreatedAt(i.CreatedAt)
		}
		sort.SliceStable(out, func(a, b int) bool {
			return created[out[a]].After(created[out[b]])
		})
	}
	return out
}

// unparseable timestamps sort as the zero time, i.e. last
func parseCreatedAt(s string) time.Time {
	t, err := utils.ParseISO(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
