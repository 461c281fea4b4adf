package remnawave

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"
)

// AuditEntry is one dispatched record. Headers and bodies are never stored.
type AuditEntry struct {
	BatchID     string
	RecordIndex int
	Route       string
	Method      string
	Path        string
	Outcome     string
	ErrorCode   string
	Duration    time.Duration
	CreatedAt   time.Time
}

// Outcomes stored in the audit trail.
const (
	AuditOutcomeSucceeded = "succeeded"
	AuditOutcomeFailed    = "failed"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// Execer is satisfied by *sql.DB and database.PostgresClient.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresAudit writes audit entries to a postgres table.
type PostgresAudit struct {
	db          Execer
	table       string
	insertQuery string
}

func NewPostgresAudit(db Execer, table string) (*PostgresAudit, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	quoted := pq.QuoteIdentifier(table)
	return &PostgresAudit{
		db:    db,
		table: quoted,
		insertQuery: fmt.Sprintf(`INSERT INTO %s
			(batch_id, record_index, route, method, path, outcome, error_code, duration_ms, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, quoted),
	}, nil
}

// EnsureTable creates the audit table when it does not exist.
func (a *PostgresAudit) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id           BIGSERIAL PRIMARY KEY,
		batch_id     UUID        NOT NULL,
		record_index INTEGER     NOT NULL,
		route        TEXT        NOT NULL,
		method       TEXT        NOT NULL,
		path         TEXT        NOT NULL,
		outcome      TEXT        NOT NULL,
		error_code   TEXT,
		duration_ms  BIGINT      NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`, a.table)
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create audit table: %w", err)
	}
	return nil
}

func (a *PostgresAudit) Record(ctx context.Context, entry AuditEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var errorCode interface{}
	if entry.ErrorCode != "" {
		errorCode = entry.ErrorCode
	}

	_, err := a.db.ExecContext(ctx, a.insertQuery,
		entry.BatchID,
		entry.RecordIndex,
		entry.Route,
		entry.Method,
		entry.Path,
		entry.Outcome,
		errorCode,
		entry.Duration.Milliseconds(),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}
