package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCheck(t *testing.T) {
	tests := []struct {
		name       string
		thresholds CheckThresholds
		wantPassed bool
		contains   []string
	}{
		{
			name:       "passes",
			thresholds: CheckThresholds{MinReliability: 50, MinSLA: 85},
			wantPassed: true,
			contains:   []string{"✅ All packages passed", "reliability: ", "(CR_Load)"},
		},
		{
			name:       "reliability below threshold",
			thresholds: CheckThresholds{MinReliability: 80, MinSLA: 85},
			wantPassed: false,
			contains:   []string{"❌ Check failed: 1 violation(s)", "Metric: reliability", "- CR_Load"},
		},
		{
			name:       "gates off",
			thresholds: CheckThresholds{},
			wantPassed: true,
			contains:   []string{"Min Reliability:  off", "Checked 0 packages"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := crLoadStore()
			a, _, _ := newTestAggregator(store)
			var buf bytes.Buffer

			result, err := ExecuteCheck(context.Background(), a, tt.thresholds, &buf)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPassed, result.Passed)
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
			if tt.thresholds == (CheckThresholds{}) {
				assert.Zero(t, store.Calls())
			}
		})
	}
}

func TestExecuteCheck_StoreFailure(t *testing.T) {
	store := crLoadStore()
	store.SetError(errors.New("timeout"))
	a, _, _ := newTestAggregator(store)

	result, err := ExecuteCheck(context.Background(), a, CheckThresholds{MinReliability: 80}, &bytes.Buffer{})
	assert.Nil(t, result)
	assert.True(t, contract.IsDataSourceError(err))
}

func TestPrintCheckResult(t *testing.T) {
	var violations []schema.CheckViolation
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		violations = append(violations, schema.CheckViolation{
			PackageName: name, Metric: schema.MetricSLACompliance, Value: 10, Threshold: 85,
		})
	}
	var buf bytes.Buffer
	printCheckResult(&buf, &schema.CheckResult{MinSLA: 85, CheckedPackages: 7, Violations: violations}, time.Second)

	out := buf.String()
	assert.Contains(t, out, "Min SLA:          85.00")
	assert.Contains(t, out, "Metric: sla_compliance (7 violations)")
	assert.Contains(t, out, "... and 2 more")
	assert.NotContains(t, out, "- F ")
}
