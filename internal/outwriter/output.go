package outwriter

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// namedValue pairs a metric with its computed value.
type namedValue struct {
	metric schema.MetricName
	value  any
}

func dashboardValues(snap schema.DashboardSnapshot) []namedValue {
	return []namedValue{
		{schema.MetricSummary, snap.Metrics},
		{schema.MetricTrends, snap.Trends},
		{schema.MetricErrors, snap.RecentErrors},
		{schema.MetricExecutions, snap.RecentExecutions},
		{schema.MetricLastExecuted, snap.LastExecuted},
		{schema.MetricCurrentExecutions, snap.CurrentExecutions},
		{schema.MetricPackagePerformance, snap.PackagePerformance},
		{schema.MetricFailurePatterns, snap.FailurePatterns},
		{schema.MetricTimeline, snap.Timeline},
	}
}

func analyticsValues(snap schema.AdvancedSnapshot) []namedValue {
	return []namedValue{
		{schema.MetricReliability, snap.Reliability},
		{schema.MetricMTBF, snap.MTBF},
		{schema.MetricErrorClusters, snap.ErrorClusters},
		{schema.MetricSLACompliance, snap.SLACompliance},
		{schema.MetricPerformanceTrends, snap.PerformanceTrends},
		{schema.MetricHeatmap, snap.Heatmap},
		{schema.MetricCorrelation, snap.Correlation},
		{schema.MetricResourceUtilization, snap.ResourceUtilization},
	}
}

// WriteDashboard writes a dashboard snapshot to w in the configured format.
func WriteDashboard(w io.Writer, snap schema.DashboardSnapshot, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, snap)
	}
	header := fmt.Sprintf("Dashboard for %s at %s", snap.BusinessUnit, fmtTime(snap.GeneratedAt))
	return writeValues(w, header, dashboardValues(snap), cfg, duration)
}

// WriteAnalytics writes an advanced analytics snapshot to w in the configured format.
func WriteAnalytics(w io.Writer, snap schema.AdvancedSnapshot, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, snap)
	}
	header := "Advanced analytics at " + fmtTime(snap.GeneratedAt)
	return writeValues(w, header, analyticsValues(snap), cfg, duration)
}

// WriteMetric writes one metric value to w in the configured format.
func WriteMetric(w io.Writer, metric schema.MetricName, value any, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, value)
	}
	return writeValues(w, "", []namedValue{{metric, value}}, cfg, duration)
}

func writeValues(w io.Writer, header string, values []namedValue, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	sections := make([]section, 0, len(values))
	for _, nv := range values {
		s, ok := buildSection(nv.metric, nv.value, fmtFloat)
		if !ok {
			return fmt.Errorf("no layout for metric %s (%T)", nv.metric, nv.value)
		}
		sections = append(sections, s)
	}

	if cfg.Output == schema.CSVOut {
		if err := writeCSVSections(w, sections); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
		return nil
	}
	if err := writeTextSections(w, header, sections, cfg, duration); err != nil {
		return fmt.Errorf("error writing table output: %w", err)
	}
	return nil
}

// writeTextSections prints each section as a table using the tablewriter API.
func writeTextSections(w io.Writer, header string, sections []section, cfg *contract.Config, duration time.Duration) error {
	if header != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", header)
	}
	for _, s := range sections {
		_, _ = fmt.Fprintf(w, "%s (%d)\n", s.title, len(s.rows))
		if len(s.rows) == 0 {
			_, _ = fmt.Fprintln(w, "  no data")
			_, _ = fmt.Fprintln(w)
			continue
		}
		if err := renderTable(w, s, cfg); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintf(w, "Loaded in %v\n", duration.Round(time.Millisecond))
	return nil
}

func renderTable(w io.Writer, s section, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header(s.headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	rows, hidden := s.rows, 0
	if cfg.ResultLimit > 0 && len(rows) > cfg.ResultLimit {
		rows, hidden = rows[:cfg.ResultLimit], len(rows)-cfg.ResultLimit
	}

	maxText := getMaxTextWidth(cfg, len(s.headers)-1)
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		row = slices.Clone(row)
		if s.text >= 0 {
			row[s.text] = contract.TruncateLabel(row[s.text], maxText)
		}
		for _, col := range s.labels {
			row[col] = contract.GetColorLabel(row[col])
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if hidden > 0 {
		_, _ = fmt.Fprintf(w, "  ... and %d more (raise --limit to see them)\n", hidden)
	}
	return nil
}
