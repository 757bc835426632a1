package catalog

import (
	"fmt"
	"strings"

	"github.com/huangsam/runlens/schema"
)

const executionColumns = `e.execution_id, e.folder_name, e.project_name, e.package_name, e.status,
	e.start_time, e.end_time, e.executed_as_name`

const eventColumns = `em.event_message_id, em.operation_id, e.package_name, em.message_time,
	em.message_type, COALESCE(em.message, '') AS message`

// tableNames returns the quoted executions and event_messages tables for a backend.
// SQL Server reads the SSIS catalog schema without taking shared locks.
func tableNames(backend schema.DatabaseBackend) (string, string) {
	if backend == schema.SQLServerBackend {
		return "[catalog].[executions]", "[catalog].[event_messages]"
	}
	return "executions", "event_messages"
}

// tableHint is appended after a table alias.
func tableHint(backend schema.DatabaseBackend) string {
	if backend == schema.SQLServerBackend {
		return " WITH (NOLOCK)"
	}
	return ""
}

// limitQuery fills a template with two %s verbs: one after SELECT and one at the end.
// A non-positive limit leaves both empty.
func limitQuery(backend schema.DatabaseBackend, template string, limit int) string {
	if limit <= 0 {
		return fmt.Sprintf(template, "", "")
	}
	if backend == schema.SQLServerBackend {
		return fmt.Sprintf(template, fmt.Sprintf("TOP (%d)", limit), "")
	}
	return fmt.Sprintf(template, "", fmt.Sprintf(" LIMIT %d", limit))
}

// whereBuilder accumulates AND-ed conditions with '?' placeholders.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// statuses adds "column IN (?, ...)" when codes is not empty.
func (w *whereBuilder) statuses(column string, codes []schema.StatusCode) {
	if len(codes) == 0 {
		return
	}
	marks := make([]string, len(codes))
	args := make([]any, len(codes))
	for i, code := range codes {
		marks[i] = "?"
		args[i] = int(code)
	}
	w.add(fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ", ")), args...)
}

// partition renders a predicate as bound LIKE conditions on column.
func (w *whereBuilder) partition(column string, p schema.FilterPredicate) {
	if len(p.Include) > 0 {
		ors := make([]string, len(p.Include))
		args := make([]any, len(p.Include))
		for i, prefix := range p.Include {
			ors[i] = fmt.Sprintf("UPPER(%s) LIKE ?", column)
			args[i] = likePrefix(prefix)
		}
		w.add("("+strings.Join(ors, " OR ")+")", args...)
	}
	for _, prefix := range p.Exclude {
		w.add(fmt.Sprintf("UPPER(%s) NOT LIKE ?", column), likePrefix(prefix))
	}
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// likePrefix strips LIKE wildcards from a prefix and appends the trailing match-all.
func likePrefix(prefix string) string {
	r := strings.NewReplacer("%", "", "_", "")
	return strings.ToUpper(r.Replace(prefix)) + "%"
}

// buildExecutionsQuery renders an ExecutionQuery with '?' placeholders.
func buildExecutionsQuery(backend schema.DatabaseBackend, q schema.ExecutionQuery) (string, []any) {
	execTable, _ := tableNames(backend)

	w := &whereBuilder{}
	if q.Since != nil {
		w.add("e.start_time >= ?", q.Since.UTC())
	}
	w.statuses("e.status", q.Statuses)
	if q.Finished {
		w.add("e.end_time IS NOT NULL")
	}
	w.partition("e.package_name", q.Partition)

	template := "SELECT %s " + executionColumns +
		" FROM " + execTable + " e" + tableHint(backend) +
		escapePercent(w.String()) +
		" ORDER BY e.start_time DESC, e.execution_id DESC%s"
	return limitQuery(backend, template, q.Limit), w.args
}

// buildEventsQuery renders an EventQuery with '?' placeholders.
func buildEventsQuery(backend schema.DatabaseBackend, q schema.EventQuery) (string, []any) {
	execTable, eventTable := tableNames(backend)

	w := &whereBuilder{}
	w.add("em.message_type = ?", q.MessageType)
	if q.MessageSince != nil {
		w.add("em.message_time >= ?", q.MessageSince.UTC())
	}
	if q.StartedSince != nil {
		w.add("e.start_time >= ?", q.StartedSince.UTC())
	}
	w.statuses("e.status", q.Statuses)
	w.partition("e.package_name", q.Partition)

	template := "SELECT %s " + eventColumns +
		" FROM " + eventTable + " em" + tableHint(backend) +
		" JOIN " + execTable + " e" + tableHint(backend) + " ON em.operation_id = e.execution_id" +
		escapePercent(w.String()) +
		" ORDER BY em.message_time DESC, em.event_message_id DESC%s"
	return limitQuery(backend, template, q.Limit), w.args
}

// escapePercent protects literal text from the limit template's Sprintf.
func escapePercent(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
