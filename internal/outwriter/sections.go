package outwriter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/runlens/schema"
)

const timeLayout = "2006-01-02 15:04"

// section is one metric laid out as rows of plain text.
type section struct {
	title   string
	headers []string
	rows    [][]string
	// labels holds the columns carrying tier or trend labels, colored in tables.
	labels []int
	// text holds the free-text column truncated to the terminal width in tables, or -1.
	text int
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmtTime(*t)
}

func itoa[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

// metricTitle is the display name of a metric, e.g. "Last Executed".
func metricTitle(metric schema.MetricName) string {
	if metric == schema.MetricMTBF || metric == schema.MetricSLACompliance {
		return strings.ToUpper(strings.ReplaceAll(string(metric), "_", " "))
	}
	words := strings.Split(string(metric), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// buildSection lays out a metric value. It reports false for values it does not know.
func buildSection(metric schema.MetricName, value any, fmtFloat func(float64) string) (section, bool) {
	s := section{title: metricTitle(metric), text: -1}

	switch v := value.(type) {
	case schema.ExecutionMetrics:
		s.headers = []string{"Total", "Succeeded", "Failed", "Success Rate", "Avg Duration (s)"}
		s.rows = [][]string{{
			itoa(v.TotalExecutions), itoa(v.SuccessfulExecutions), itoa(v.FailedExecutions),
			fmtFloat(v.SuccessRate), fmtFloat(v.AvgDuration),
		}}
	case []schema.ExecutionTrend:
		s.headers = []string{"Date", "Succeeded", "Failed", "Avg Duration (s)"}
		for _, t := range v {
			s.rows = append(s.rows, []string{t.Date, itoa(t.Success), itoa(t.Failed), fmtFloat(t.AvgDuration)})
		}
	case []schema.ErrorLog:
		s.headers = []string{"Execution", "Package", "Time", "Code", "Description"}
		s.text = 4
		for _, e := range v {
			s.rows = append(s.rows, []string{
				itoa(e.ExecutionID), e.PackageName, fmtTime(e.ErrorTime), itoa(e.ErrorCode), e.ErrorDescription,
			})
		}
	case []schema.PackageExecution:
		s.headers = []string{"Execution", "Package", "Status", "Start", "End", "Duration (s)"}
		s.text = 1
		for _, e := range v {
			s.rows = append(s.rows, []string{
				itoa(e.ExecutionID), e.PackageName, e.Status, fmtTime(e.StartTime), fmtTimePtr(e.EndTime), itoa(e.Duration),
			})
		}
	case []schema.CurrentExecution:
		s.headers = []string{"Execution", "Package", "Status", "Started", "Duration (s)", "Executed By", "Long Running"}
		s.text = 1
		for _, e := range v {
			s.rows = append(s.rows, []string{
				itoa(e.ExecutionID), e.PackageName, e.StatusDescription, fmtTime(e.StartTime),
				itoa(e.DurationSeconds), e.ExecutedBy, strconv.FormatBool(e.IsLongRunning),
			})
		}
	case []schema.PackagePerformance:
		s.headers = []string{"Package", "Total", "Succeeded", "Failed", "Success Rate", "Avg (s)", "Min (s)", "Max (s)", "Last Run", "Last Status"}
		s.text = 0
		for _, p := range v {
			s.rows = append(s.rows, []string{
				p.PackageName, itoa(p.TotalExecutions), itoa(p.SuccessfulExecutions), itoa(p.FailedExecutions),
				fmtFloat(p.SuccessRate), fmtFloat(p.AvgDurationSeconds), itoa(p.MinDurationSeconds), itoa(p.MaxDurationSeconds),
				fmtTimePtr(p.LastExecutionTime), p.LastExecutionStatus,
			})
		}
	case []schema.FailurePattern:
		s.headers = []string{"Package", "Failures", "Failure Rate", "Last Failure", "Most Recent Error"}
		s.text = 4
		for _, p := range v {
			s.rows = append(s.rows, []string{
				p.PackageName, itoa(p.FailureCount), fmtFloat(p.FailureRate), fmtTimePtr(p.LastFailureTime), p.MostCommonError,
			})
		}
	case []schema.ExecutionTimeline:
		s.headers = []string{"Execution", "Package", "Start", "End", "Minutes", "Status"}
		s.text = 1
		for _, e := range v {
			s.rows = append(s.rows, []string{
				itoa(e.ExecutionID), e.PackageName, fmtTime(e.StartTime), fmtTimePtr(e.EndTime), itoa(e.DurationMinutes), e.Status,
			})
		}
	case []schema.ReliabilityScore:
		s.headers = []string{"Package", "Total", "Succeeded", "Failed", "Success Rate", "Score", "Trend"}
		s.text, s.labels = 0, []int{6}
		for _, r := range v {
			s.rows = append(s.rows, []string{
				r.PackageName, itoa(r.TotalExecutions), itoa(r.SuccessfulExecutions), itoa(r.FailedExecutions),
				fmtFloat(r.SuccessRate), fmtFloat(r.ReliabilityScore), r.Trend,
			})
		}
	case []schema.MTBFRecord:
		s.headers = []string{"Package", "MTBF (h)", "Availability", "Failures", "Last Failure", "Status"}
		s.text, s.labels = 0, []int{5}
		for _, r := range v {
			s.rows = append(s.rows, []string{
				r.PackageName, fmtFloat(r.MeanTimeBetweenFailures), fmtFloat(r.AvailabilityPercentage),
				itoa(r.FailureCount), fmtTimePtr(r.LastFailure), r.Status,
			})
		}
	case []schema.ErrorCluster:
		s.headers = []string{"Category", "Frequency", "Severity", "Packages", "First", "Last", "Message"}
		s.text, s.labels = 6, []int{2}
		for _, c := range v {
			s.rows = append(s.rows, []string{
				c.ErrorCategory, itoa(c.Frequency), c.Severity, strings.Join(c.AffectedPackages, ", "),
				fmtTime(c.FirstOccurrence), fmtTime(c.LastOccurrence), c.ErrorMessage,
			})
		}
	case []schema.SLACompliance:
		s.headers = []string{"Package", "Threshold (min)", "Avg (min)", "Total", "Compliant", "Compliance", "Status"}
		s.text, s.labels = 0, []int{6}
		for _, c := range v {
			s.rows = append(s.rows, []string{
				c.PackageName, fmtFloat(c.SLAThresholdMinutes), fmtFloat(c.AvgExecutionMinutes),
				itoa(c.TotalExecutions), itoa(c.CompliantExecutions), fmtFloat(c.CompliancePercentage), c.ComplianceStatus,
			})
		}
	case []schema.PerformanceTrendPoint:
		s.headers = []string{"Date", "Package", "Avg (min)", "Min (min)", "Max (min)", "Runs", "Trend"}
		s.text, s.labels = 1, []int{6}
		for _, p := range v {
			s.rows = append(s.rows, []string{
				p.Date.Format(time.DateOnly), p.PackageName, fmtFloat(p.AvgExecutionMinutes),
				itoa(p.MinExecutionMinutes), itoa(p.MaxExecutionMinutes), itoa(p.ExecutionCount), p.Trend,
			})
		}
	case []schema.HeatmapCell:
		s.headers = []string{"Day", "Hour", "Executions", "Avg (min)", "Failures"}
		for _, c := range v {
			s.rows = append(s.rows, []string{
				time.Weekday(c.DayOfWeek - 1).String(), fmt.Sprintf("%02d:00", c.HourOfDay),
				itoa(c.ExecutionCount), fmtFloat(c.AvgDurationMinutes), itoa(c.FailureCount),
			})
		}
	case []schema.PackageCorrelation:
		s.headers = []string{"Package 1", "Package 2", "Co-Executions", "Score", "Avg Gap (min)"}
		for _, c := range v {
			s.rows = append(s.rows, []string{
				c.Package1, c.Package2, itoa(c.CoExecutionCount), fmtFloat(c.CorrelationScore), fmtFloat(c.AvgTimeDifferenceMinutes),
			})
		}
	case []schema.ResourceUtilizationSlot:
		s.headers = []string{"Slot", "Concurrent", "Elapsed (s)", "Level"}
		s.labels = []int{3}
		for _, u := range v {
			s.rows = append(s.rows, []string{
				fmtTime(u.TimeSlot), itoa(u.ConcurrentExecutions), fmtFloat(u.TotalCPUTime), u.UtilizationLevel,
			})
		}
	default:
		return s, false
	}
	return s, true
}
