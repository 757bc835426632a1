package catalog

import (
	"testing"
	"time"

	"github.com/huangsam/runlens/schema"
	"github.com/stretchr/testify/assert"
)

func TestBuildExecutionsQuery(t *testing.T) {
	since := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		backend  schema.DatabaseBackend
		query    schema.ExecutionQuery
		contains []string
		absent   []string
		args     []any
	}{
		{
			name:     "no filters",
			backend:  schema.SQLiteBackend,
			query:    schema.ExecutionQuery{},
			contains: []string{"FROM executions e ORDER BY e.start_time DESC, e.execution_id DESC"},
			absent:   []string{"WHERE", "LIMIT", "TOP"},
		},
		{
			name:    "window statuses and limit",
			backend: schema.PostgreSQLBackend,
			query: schema.ExecutionQuery{
				Since:    &since,
				Statuses: []schema.StatusCode{schema.StatusFailed, schema.StatusSucceeded},
				Finished: true,
				Limit:    50,
			},
			contains: []string{
				"WHERE e.start_time >= ? AND e.status IN (?, ?) AND e.end_time IS NOT NULL",
				" LIMIT 50",
			},
			args: []any{since, 4, 7},
		},
		{
			name:    "sql server uses top and nolock",
			backend: schema.SQLServerBackend,
			query:   schema.ExecutionQuery{Limit: 10},
			contains: []string{
				"SELECT TOP (10) e.execution_id",
				"FROM [catalog].[executions] e WITH (NOLOCK)",
			},
			absent: []string{"LIMIT"},
		},
		{
			name:    "include partition",
			backend: schema.MySQLBackend,
			query: schema.ExecutionQuery{
				Partition: schema.FilterPredicate{Label: schema.ClientRepoPartition, Include: []string{"cr"}},
			},
			contains: []string{"WHERE (UPPER(e.package_name) LIKE ?)"},
			args:     []any{"CR%"},
		},
		{
			name:    "exclude partition",
			backend: schema.SQLiteBackend,
			query: schema.ExecutionQuery{
				Partition: schema.FilterPredicate{Label: schema.UncategorizedPartition, Exclude: []string{"CR", "CN"}},
			},
			contains: []string{"UPPER(e.package_name) NOT LIKE ? AND UPPER(e.package_name) NOT LIKE ?"},
			args:     []any{"CR%", "CN%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildExecutionsQuery(tt.backend, tt.query)
			for _, s := range tt.contains {
				assert.Contains(t, sql, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, sql, s)
			}
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildEventsQuery(t *testing.T) {
	since := time.Date(2026, 9, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))

	sql, args := buildEventsQuery(schema.SQLiteBackend, schema.EventQuery{
		MessageType:  schema.ErrorMessageType,
		StartedSince: &since,
		Statuses:     []schema.StatusCode{schema.StatusFailed},
		Limit:        50,
	})

	assert.Contains(t, sql, "FROM event_messages em JOIN executions e ON em.operation_id = e.execution_id")
	assert.Contains(t, sql, "WHERE em.message_type = ? AND e.start_time >= ? AND e.status IN (?)")
	assert.Contains(t, sql, "ORDER BY em.message_time DESC, em.event_message_id DESC LIMIT 50")
	assert.Equal(t, []any{schema.ErrorMessageType, since.UTC(), 4}, args)
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, "CR%", likePrefix("cr"))
	assert.Equal(t, "EDS%", likePrefix("E_D%S"))
}

func TestLimitQuery(t *testing.T) {
	template := "SELECT %s x FROM t%s"
	assert.Equal(t, "SELECT  x FROM t", limitQuery(schema.SQLiteBackend, template, 0))
	assert.Equal(t, "SELECT  x FROM t LIMIT 3", limitQuery(schema.MySQLBackend, template, 3))
	assert.Equal(t, "SELECT TOP (3) x FROM t", limitQuery(schema.SQLServerBackend, template, 3))
}
