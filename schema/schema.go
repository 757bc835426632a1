// Package schema has constants, models and query shapes for all parts of runlens.
package schema

import "time"

// ExecutionRecord represents one run of a named package as stored in the execution catalog.
type ExecutionRecord struct {
	ExecutionID int64      `db:"execution_id" json:"executionId"`
	FolderName  string     `db:"folder_name" json:"folderName"`
	ProjectName string     `db:"project_name" json:"projectName"`
	PackageName string     `db:"package_name" json:"packageName"`
	Status      StatusCode `db:"status" json:"status"`
	StartTime   time.Time  `db:"start_time" json:"startTime"`
	EndTime     *time.Time `db:"end_time" json:"endTime,omitempty"`  // nil while running
	ExecutedBy  *string    `db:"executed_as_name" json:"executedBy"` // nil when unknown
}

// Finished reports whether the run has an end time.
func (r ExecutionRecord) Finished() bool {
	return r.EndTime != nil
}

// EndOrNow returns the end time, or now for work that is still running.
func (r ExecutionRecord) EndOrNow(now time.Time) time.Time {
	if r.EndTime != nil {
		return *r.EndTime
	}
	return now
}

// EventMessage is an operational message joined with the execution that emitted it.
type EventMessage struct {
	EventMessageID int64     `db:"event_message_id" json:"eventMessageId"`
	OperationID    int64     `db:"operation_id" json:"operationId"`
	PackageName    string    `db:"package_name" json:"packageName"`
	MessageTime    time.Time `db:"message_time" json:"messageTime"`
	MessageType    int       `db:"message_type" json:"messageType"`
	Message        string    `db:"message" json:"message"`
}

// Query is the per-call input of every aggregation.
// Zero values fall back to the defaults of the computation.
type Query struct {
	Lookback  time.Duration   // how far back from now to read
	Partition FilterPredicate // package name filter, empty matches everything
	Limit     int             // row cap for list results, 0 means the computation default
}

// ExecutionQuery selects rows from the executions table.
type ExecutionQuery struct {
	Since     *time.Time      // start_time >= Since
	Statuses  []StatusCode    // status IN (...), empty means any
	Finished  bool            // end_time IS NOT NULL
	Partition FilterPredicate // package name filter
	Limit     int             // newest rows first when set
}

// EventQuery selects error messages joined with their executions.
type EventQuery struct {
	MessageType  int             // message_type = MessageType
	MessageSince *time.Time      // message_time >= MessageSince
	StartedSince *time.Time      // executions.start_time >= StartedSince
	Statuses     []StatusCode    // executions.status IN (...)
	Partition    FilterPredicate // executions.package_name filter
	Limit        int             // newest messages first when set
}
