package inventory

import (
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

// All is the filter value that does not constrain a field.
const All = "all"

// Filter is the item list's search and category state.
type Filter struct {
	Search    string
	Status    string
	Category  string
	Frequency string
}

// DefaultFilter shows every item.
func DefaultFilter() Filter {
	return Filter{Status: All, Category: All, Frequency: All}
}

// Apply returns the items matching f, in their original order. items is not modified.
func Apply(items []model.Item, f Filter) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if Matches(item, f) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports whether item passes every active predicate of f.
func Matches(item model.Item, f Filter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		inName := strings.Contains(strings.ToLower(item.Name), q)
		inNote := item.Note != "" && strings.Contains(strings.ToLower(item.Note), q)
		if !inName && !inNote {
			return false
		}
	}
	return matchField(item.Status, f.Status) &&
		matchField(item.Category, f.Category) &&
		matchField(item.Frequency, f.Frequency)
}

func matchField(value, want string) bool {
	return want == "" || want == All || value == want
}
