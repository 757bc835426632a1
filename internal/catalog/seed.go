package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/huangsam/runlens/schema"
)

// demoPackage describes how often a demo package runs and how it behaves.
type demoPackage struct {
	folder, project, name string
	hour                  int     // first run of the day
	every                 int     // hours between runs, 24 for daily
	minutes               int     // typical duration
	failRate              float64 // chance of status 4
}

var demoPackages = []demoPackage{
	{"ClientRepo", "Ingest", "CR_Load", 1, 6, 25, 0.10},
	{"ClientRepo", "Ingest", "CR_Extract", 1, 6, 12, 0.05},
	{"ChartNav", "Navigator", "CN_Sync", 2, 4, 8, 0.15},
	{"ChartNav", "Navigator", "CN_Report", 6, 24, 40, 0.02},
	{"EDS", "Warehouse", "EDS_Nightly", 0, 24, 95, 0.08},
	{"EDS", "Warehouse", "EDS_Feed", 3, 3, 5, 0.20},
	{"HIM", "Records", "HIM_Import", 4, 12, 30, 0.12},
	{"HIM", "Records", "HIM_Audit", 22, 24, 15, 0.0},
	{"Finance", "Ledger", "Payroll_Export", 5, 24, 20, 0.04},
	{"Finance", "Ledger", "GL_Close", 23, 24, 55, 0.30},
}

var demoErrors = []string{
	"Query timeout expired while loading staging table",
	"A network-related error occurred. The connection was forcibly closed",
	"Login failed: permission denied for database",
	"Insufficient memory to complete the buffer allocation",
	"Data validation failed for column MemberID",
	"Transaction was deadlocked on lock resources with another process",
	"The package failed with an unexpected return code",
}

// DemoData is a deterministic synthetic execution history.
type DemoData struct {
	Executions []schema.ExecutionRecord
	Events     []schema.EventMessage
}

// GenerateDemo builds days of history ending at now from a fixed seed.
// The same arguments always produce the same rows. Runs whose end would fall
// after now are left running.
func GenerateDemo(now time.Time, days int, seed uint64) DemoData {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	now = now.UTC().Truncate(time.Second)
	start := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var data DemoData
	var execID, eventID int64
	runner := "CORP\\svc_ssis"

	for day := start; day.Before(now); day = day.AddDate(0, 0, 1) {
		for _, pkg := range demoPackages {
			for hour := pkg.hour; hour < 24; hour += pkg.every {
				begin := day.Add(time.Duration(hour)*time.Hour + time.Duration(rng.IntN(20))*time.Minute)
				if begin.After(now) {
					continue
				}
				execID++
				jitter := 0.7 + rng.Float64()*0.6
				end := begin.Add(time.Duration(float64(pkg.minutes)*jitter*60) * time.Second)

				rec := schema.ExecutionRecord{
					ExecutionID: execID,
					FolderName:  pkg.folder,
					ProjectName: pkg.project,
					PackageName: pkg.name,
					StartTime:   begin,
					ExecutedBy:  &runner,
				}
				switch {
				case end.After(now):
					rec.Status = schema.StatusRunning
				case rng.Float64() < pkg.failRate:
					rec.Status = schema.StatusFailed
					rec.EndTime = &end
					eventID++
					data.Events = append(data.Events, schema.EventMessage{
						EventMessageID: eventID,
						OperationID:    execID,
						PackageName:    pkg.name,
						MessageTime:    end,
						MessageType:    schema.ErrorMessageType,
						Message:        demoErrors[rng.IntN(len(demoErrors))],
					})
				default:
					rec.Status = schema.StatusSucceeded
					rec.EndTime = &end
				}
				data.Executions = append(data.Executions, rec)
			}
		}
	}
	return data
}

// seedExecution mirrors the executions table with driver-native types.
type seedExecution struct {
	ExecutionID int64      `db:"execution_id"`
	FolderName  string     `db:"folder_name"`
	ProjectName string     `db:"project_name"`
	PackageName string     `db:"package_name"`
	Status      int        `db:"status"`
	StartTime   time.Time  `db:"start_time"`
	EndTime     *time.Time `db:"end_time"`
	ExecutedBy  *string    `db:"executed_as_name"`
}

type seedEvent struct {
	EventMessageID int64     `db:"event_message_id"`
	OperationID    int64     `db:"operation_id"`
	MessageTime    time.Time `db:"message_time"`
	MessageType    int       `db:"message_type"`
	Message        string    `db:"message"`
	PackageName    string    `db:"package_name"`
}

const seedBatchSize = 200

// Seed replaces the contents of a self-hosted catalog with data.
// The tables must already exist, see Migrate.
func Seed(ctx context.Context, db *sqlx.DB, backend schema.DatabaseBackend, data DemoData) error {
	if db == nil {
		return fmt.Errorf("seeding needs a configured catalog connection")
	}
	if backend == schema.SQLServerBackend {
		return fmt.Errorf("seeding is not supported for %s backend", backend)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM event_messages", "DELETE FROM executions"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	execs := make([]seedExecution, len(data.Executions))
	for i, r := range data.Executions {
		execs[i] = seedExecution{
			ExecutionID: r.ExecutionID,
			FolderName:  r.FolderName,
			ProjectName: r.ProjectName,
			PackageName: r.PackageName,
			Status:      int(r.Status),
			StartTime:   r.StartTime.UTC(),
			EndTime:     utcPtr(r.EndTime),
			ExecutedBy:  r.ExecutedBy,
		}
	}
	events := make([]seedEvent, len(data.Events))
	for i, ev := range data.Events {
		events[i] = seedEvent{
			EventMessageID: ev.EventMessageID,
			OperationID:    ev.OperationID,
			MessageTime:    ev.MessageTime.UTC(),
			MessageType:    ev.MessageType,
			Message:        ev.Message,
			PackageName:    ev.PackageName,
		}
	}

	const insertExec = `INSERT INTO executions
		(execution_id, folder_name, project_name, package_name, status, start_time, end_time, executed_as_name)
		VALUES (:execution_id, :folder_name, :project_name, :package_name, :status, :start_time, :end_time, :executed_as_name)`
	const insertEvent = `INSERT INTO event_messages
		(event_message_id, operation_id, message_time, message_type, message, package_name)
		VALUES (:event_message_id, :operation_id, :message_time, :message_type, :message, :package_name)`

	if err := insertBatches(ctx, tx, insertExec, execs); err != nil {
		return fmt.Errorf("failed to insert executions: %w", err)
	}
	if err := insertBatches(ctx, tx, insertEvent, events); err != nil {
		return fmt.Errorf("failed to insert event messages: %w", err)
	}
	return tx.Commit()
}

func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for lo := 0; lo < len(rows); lo += seedBatchSize {
		hi := min(lo+seedBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[lo:hi]); err != nil {
			return err
		}
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
