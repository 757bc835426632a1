package schema

import "strings"

// FilterPredicate is a structured package-name filter.
// A name matches when it starts with any Include prefix (or Include is empty)
// and with none of the Exclude prefixes. Prefixes compare case-insensitively.
type FilterPredicate struct {
	Label   PartitionLabel `json:"label,omitempty"`
	Include []string       `json:"include,omitempty"`
	Exclude []string       `json:"exclude,omitempty"`
}

// IsEmpty reports whether the predicate matches everything.
func (p FilterPredicate) IsEmpty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Matches reports whether name satisfies the predicate.
func (p FilterPredicate) Matches(name string) bool {
	upper := strings.ToUpper(name)
	if len(p.Include) > 0 {
		found := false
		for _, prefix := range p.Include {
			if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, prefix := range p.Exclude {
		if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			return false
		}
	}
	return true
}

// Key returns the cache key segment for the predicate.
func (p FilterPredicate) Key() string {
	if p.IsEmpty() || p.Label == "" {
		return AllPartitionsKey
	}
	return string(p.Label)
}
