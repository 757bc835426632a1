package partition

import (
	"testing"

	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want schema.PartitionLabel
	}{
		{"CR_Load", schema.ClientRepoPartition},
		{"cr_load", schema.ClientRepoPartition},
		{"CN_Extract", schema.ChartNavPartition},
		{"EDS_Nightly", schema.EDSPartition},
		{"eds", schema.EDSPartition},
		{"HIM_Sync", schema.HIMPartition},
		{"Payroll", schema.UncategorizedPartition},
		{"C", schema.UncategorizedPartition},
		{"", schema.UncategorizedPartition},
		{" CR_Load", schema.UncategorizedPartition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw    string
		want   schema.PartitionLabel
		wantOK bool
	}{
		{"ChartNav", schema.ChartNavPartition, true},
		{"  chartnav ", schema.ChartNavPartition, true},
		{"UNCATEGORIZED", schema.UncategorizedPartition, true},
		{"", "", false},
		{"   ", "", false},
		{"Finance", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFilterPredicate(t *testing.T) {
	assert.True(t, ToFilterPredicate("").IsEmpty())
	assert.True(t, ToFilterPredicate("Finance").IsEmpty())

	p := ToFilterPredicate("clientrepo")
	assert.Equal(t, schema.ClientRepoPartition, p.Label)
	assert.Equal(t, []string{"CR"}, p.Include)
	assert.Empty(t, p.Exclude)

	u := ToFilterPredicate("Uncategorized")
	assert.Equal(t, []string{"CR", "CN", "EDS", "HIM"}, u.Exclude)
	assert.Empty(t, u.Include)
}

// Classify and ToFilterPredicate must select the same names for every label.
func TestClassifyPredicateRoundTrip(t *testing.T) {
	names := []string{
		"CR_Load", "cr", "CRM_Import", "CN_Extract", "cnx", "EDS_Nightly", "EDSX",
		"HIM_Sync", "him_daily", "Payroll", "C", "E", "HI", "", "Ops_CR_Load", "ZZZ",
	}

	for _, label := range Labels() {
		t.Run(string(label), func(t *testing.T) {
			predicate := ToFilterPredicate(string(label))
			for _, name := range names {
				assert.Equal(t, Classify(name) == label, predicate.Matches(name), "name %q", name)
			}
		})
	}
}

func TestEmptyPredicateMatchesAll(t *testing.T) {
	predicate := ToFilterPredicate(" ")
	for _, name := range []string{"CR_Load", "Payroll", ""} {
		assert.True(t, predicate.Matches(name))
	}
	assert.Equal(t, schema.AllPartitionsKey, predicate.Key())
}
