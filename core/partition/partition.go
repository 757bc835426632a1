// Package partition maps package names to business-unit labels and back to filters.
package partition

import (
	"strings"

	"github.com/huangsam/runlens/schema"
)

// rule binds a name prefix to a label.
type rule struct {
	prefix string
	label  schema.PartitionLabel
}

// rules are evaluated in declared order; the first match wins.
var rules = []rule{
	{"CR", schema.ClientRepoPartition},
	{"CN", schema.ChartNavPartition},
	{"EDS", schema.EDSPartition},
	{"HIM", schema.HIMPartition},
}

// Labels returns every label a name can be classified as, in rule order.
func Labels() []schema.PartitionLabel {
	labels := make([]schema.PartitionLabel, 0, len(rules)+1)
	for _, r := range rules {
		labels = append(labels, r.label)
	}
	return append(labels, schema.UncategorizedPartition)
}

// Classify returns the label of the first rule whose prefix starts name,
// compared case-insensitively, or Uncategorized.
func Classify(name string) schema.PartitionLabel {
	upper := strings.ToUpper(name)
	for _, r := range rules {
		if strings.HasPrefix(upper, r.prefix) {
			return r.label
		}
	}
	return schema.UncategorizedPartition
}

// Normalize resolves a user-supplied label, ignoring case and surrounding space.
// It returns false for blank or unknown input.
func Normalize(raw string) (schema.PartitionLabel, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	for _, label := range Labels() {
		if strings.EqualFold(trimmed, string(label)) {
			return label, true
		}
	}
	return "", false
}

// ToFilterPredicate maps a label to the predicate selecting its packages.
// Uncategorized excludes every known prefix. Blank or unknown labels match everything.
func ToFilterPredicate(raw string) schema.FilterPredicate {
	label, ok := Normalize(raw)
	if !ok {
		return schema.FilterPredicate{}
	}
	if label == schema.UncategorizedPartition {
		exclude := make([]string, 0, len(rules))
		for _, r := range rules {
			exclude = append(exclude, r.prefix)
		}
		return schema.FilterPredicate{Label: label, Exclude: exclude}
	}
	for _, r := range rules {
		if r.label == label {
			return schema.FilterPredicate{Label: label, Include: []string{r.prefix}}
		}
	}
	return schema.FilterPredicate{}
}
