package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{"critical", schema.CriticalTier},
		{"poor", schema.PoorTier},
		{"high", schema.HighTier},
		{"medium", schema.MediumTier},
		{"low", schema.LowTier},
		{"excellent", schema.ExcellentTier},
		{"improving", schema.ImprovingTrend},
		{"unrelated", "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, GetColorLabel(tt.label), tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.json")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, path, f.Name())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 200))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "CR_Lo...", TruncateLabel("CR_LoadClaims", 8))
	assert.Equal(t, "CR_Load", TruncateLabel("CR_Load", 8))
	assert.Equal(t, "CR_LoadClaims", TruncateLabel("CR_LoadClaims", 3))
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"false", false, false},
		{"0", false, false},
		{"", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypedErrors(t *testing.T) {
	base := errors.New("dial tcp: connection refused")

	tests := []struct {
		name          string
		err           error
		configuration bool
		dataSource    bool
		computation   bool
	}{
		{"configuration", NewConfigurationError(""), true, false, false},
		{"data source", NewDataSourceError("reliability", base), false, true, false},
		{"computation", NewComputationError("mtbf", "end before start", nil), false, false, true},
		{"wrapped data source", fmt.Errorf("load dashboard: %w", NewDataSourceError("metrics", base)), false, true, false},
		{"plain", base, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.configuration, IsConfigurationError(tt.err))
			assert.Equal(t, tt.dataSource, IsDataSourceError(tt.err))
			assert.Equal(t, tt.computation, IsComputationError(tt.err))
			assert.Equal(t, tt.configuration || tt.dataSource || tt.computation, IsTyped(tt.err))
		})
	}

	assert.Equal(t, ErrNotConfigured, NewConfigurationError("").Error())
	assert.ErrorIs(t, NewDataSourceError("metrics", base), base)
	assert.Contains(t, NewComputationError("mtbf", "end before start", nil).Error(), "mtbf: end before start")
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := NewLogger("debug", format)
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}

	_, err := NewLogger("loud", "json")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
