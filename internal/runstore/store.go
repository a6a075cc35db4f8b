package runstore

import (
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/cqscope/cqscope/internal/contract"
	"github.com/cqscope/cqscope/schema"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run tracking.
const (
	runsTable        = "cqscope_runs"
	segmentRowsTable = "cqscope_segment_rows"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	location   string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	var db *sql.DB
	var err error
	var driverName string
	location := connStr

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetRunDBFilePath()
		}
		location = dbPath
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}

	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{db: nil, backend: backend, driverName: ""}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Verify the database server is running and accessible", backend, err)
	}

	// Create the table schemas
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend, driverName: driverName, location: location}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{segmentRowsTable, getCreateSegmentRowsQuery(backend)},
	}

	for _, table := range tables {
		if err := validateTableName(table.name); err != nil {
			return err
		}
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for cqscope_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				site_id VARCHAR(255) NOT NULL,
				command VARCHAR(32) NOT NULL,
				status VARCHAR(16) NOT NULL,
				started_at DATETIME(6) NOT NULL,
				ended_at DATETIME(6),
				row_count INT,
				error_text TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				site_id TEXT NOT NULL,
				command TEXT NOT NULL,
				status TEXT NOT NULL,
				started_at TIMESTAMPTZ NOT NULL,
				ended_at TIMESTAMPTZ,
				row_count INT,
				error_text TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				site_id TEXT NOT NULL,
				command TEXT NOT NULL,
				status TEXT NOT NULL,
				started_at TEXT NOT NULL,
				ended_at TEXT,
				row_count INTEGER,
				error_text TEXT
			);
		`, quotedTableName)
	}
}

// getCreateSegmentRowsQuery returns the CREATE TABLE query for cqscope_segment_rows.
func getCreateSegmentRowsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(segmentRowsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				site_id VARCHAR(255) NOT NULL,
				row_time DATETIME(6) NOT NULL,
				phase VARCHAR(4) NOT NULL,
				confidence DOUBLE NOT NULL,
				rules TEXT,
				slope DOUBLE,
				cv_ratio DOUBLE,
				q DOUBLE,
				c DOUBLE,
				behavior VARCHAR(64),
				flow_phase VARCHAR(32),
				h_index DOUBLE,
				loop_class VARCHAR(32),
				PRIMARY KEY (run_id, site_id, row_time)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				site_id TEXT NOT NULL,
				row_time TIMESTAMPTZ NOT NULL,
				phase TEXT NOT NULL,
				confidence DOUBLE PRECISION NOT NULL,
				rules TEXT,
				slope DOUBLE PRECISION,
				cv_ratio DOUBLE PRECISION,
				q DOUBLE PRECISION,
				c DOUBLE PRECISION,
				behavior TEXT,
				flow_phase TEXT,
				h_index DOUBLE PRECISION,
				loop_class TEXT,
				PRIMARY KEY (run_id, site_id, row_time)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				site_id TEXT NOT NULL,
				row_time TEXT NOT NULL,
				phase TEXT NOT NULL,
				confidence REAL NOT NULL,
				rules TEXT,
				slope REAL,
				cv_ratio REAL,
				q REAL,
				c REAL,
				behavior TEXT,
				flow_phase TEXT,
				h_index REAL,
				loop_class TEXT,
				PRIMARY KEY (run_id, site_id, row_time)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(siteID, command string, startedAt time.Time) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var runID int64
	var err error
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (site_id, command, status, started_at) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, siteID, command, string(schema.RunStatusPending), startedAt).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (site_id, command, status, started_at) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, siteID, command, string(schema.RunStatusPending), formatTime(startedAt, rs.backend))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endedAt time.Time, rows int, runErr error) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	status := schema.RunStatusCompleted
	errText := ""
	if runErr != nil {
		status = schema.RunStatusFailed
		errText = runErr.Error()
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)

	var query string
	var args []any
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET status = $1, ended_at = $2, row_count = $3, error_text = $4 WHERE run_id = $5`, quotedTableName)
		args = []any{string(status), endedAt, rows, errText, runID}
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET status = ?, ended_at = ?, row_count = ?, error_text = ? WHERE run_id = ?`, quotedTableName)
		args = []any{string(status), formatTime(endedAt, rs.backend), rows, errText, runID}
	}

	if _, err := rs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordRows stores the flattened classification rows for a run. The whole
// batch goes in one transaction so a failed run never leaves partial rows.
func (rs *RunStoreImpl) RecordRows(runID int64, rows []schema.SegmentRowRecord) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(segmentRowsTable, rs.backend)

	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (run_id, site_id, row_time, phase, confidence, rules,
			                slope, cv_ratio, q, c, behavior, flow_phase, h_index, loop_class)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, quotedTableName)
	default: // SQLite and MySQL
		query = fmt.Sprintf(`
			INSERT INTO %s (run_id, site_id, row_time, phase, confidence, rules,
			                slope, cv_ratio, q, c, behavior, flow_phase, h_index, loop_class)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, quotedTableName)
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, row := range rows {
		args := []any{
			runID, row.SiteID, formatTime(row.Time, rs.backend), row.Phase, row.Confidence, row.Rule,
			nullFloat(row.Slope), nullFloat(row.CVRatio), nullFloat(row.Q), nullFloat(row.C),
			row.Behavior, row.FlowPhase, nullFloat(row.HIndex), row.LoopClass,
		}
		if _, err := tx.Exec(query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert segment row: %w", err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (rs *RunStoreImpl) ListRuns(limit int) ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT run_id, site_id, command, status, started_at, ended_at, row_count, error_text FROM %s ORDER BY run_id DESC LIMIT $1`, quotedTableName)
	default:
		query = fmt.Sprintf(`SELECT run_id, site_id, command, status, started_at, ended_at, row_count, error_text FROM %s ORDER BY run_id DESC LIMIT ?`, quotedTableName)
	}

	rows, err := rs.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var status string
		var rowCount sql.NullInt64
		var errText sql.NullString

		switch rs.backend {
		case schema.SQLiteBackend:
			var startedStr string
			var endedStr sql.NullString
			if err := rows.Scan(&record.ID, &record.SiteID, &record.Command, &status, &startedStr, &endedStr, &rowCount, &errText); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedStr); err != nil {
				return nil, fmt.Errorf("failed to parse started_at: %w", err)
			}
			if endedStr.Valid {
				if record.EndedAt, err = time.Parse(time.RFC3339Nano, endedStr.String); err != nil {
					return nil, fmt.Errorf("failed to parse ended_at: %w", err)
				}
			}
		default: // MySQL and PostgreSQL store as native datetime
			var endedAt sql.NullTime
			if err := rows.Scan(&record.ID, &record.SiteID, &record.Command, &status, &record.StartedAt, &endedAt, &rowCount, &errText); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if endedAt.Valid {
				record.EndedAt = endedAt.Time
			}
		}

		record.Status = schema.RunStatus(status)
		record.Rows = int(rowCount.Int64)
		record.Error = errText.String
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetRows returns the stored rows for a run, in time order.
func (rs *RunStoreImpl) GetRows(runID int64) ([]schema.SegmentRowRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(segmentRowsTable, rs.backend)
	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT run_id, site_id, row_time, phase, confidence, rules, slope, cv_ratio, q, c, behavior, flow_phase, h_index, loop_class FROM %s WHERE run_id = $1 ORDER BY site_id, row_time`, quotedTableName)
	default:
		query = fmt.Sprintf(`SELECT run_id, site_id, row_time, phase, confidence, rules, slope, cv_ratio, q, c, behavior, flow_phase, h_index, loop_class FROM %s WHERE run_id = ? ORDER BY site_id, row_time`, quotedTableName)
	}

	rows, err := rs.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SegmentRowRecord
	for rows.Next() {
		var record schema.SegmentRowRecord
		var slope, cvRatio, q, c, hIndex sql.NullFloat64
		var rules, behavior, flowPhase, loopClass sql.NullString

		switch rs.backend {
		case schema.SQLiteBackend:
			var timeStr string
			if err := rows.Scan(&record.RunID, &record.SiteID, &timeStr, &record.Phase, &record.Confidence,
				&rules, &slope, &cvRatio, &q, &c, &behavior, &flowPhase, &hIndex, &loopClass); err != nil {
				return nil, fmt.Errorf("failed to scan segment row: %w", err)
			}
			if record.Time, err = time.Parse(time.RFC3339Nano, timeStr); err != nil {
				return nil, fmt.Errorf("failed to parse row_time: %w", err)
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.SiteID, &record.Time, &record.Phase, &record.Confidence,
				&rules, &slope, &cvRatio, &q, &c, &behavior, &flowPhase, &hIndex, &loopClass); err != nil {
				return nil, fmt.Errorf("failed to scan segment row: %w", err)
			}
		}

		record.Rule = rules.String
		record.Slope = floatOrNaN(slope)
		record.CVRatio = floatOrNaN(cvRatio)
		record.Q = floatOrNaN(q)
		record.C = floatOrNaN(c)
		record.Behavior = behavior.String
		record.FlowPhase = flowPhase.String
		record.HIndex = floatOrNaN(hIndex)
		record.LoopClass = loopClass.String
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segment rows: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStoreStatus, error) {
	status := schema.RunStoreStatus{
		Backend:  rs.backend,
		Location: rs.location,
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	runsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(runsTable, rs.backend))
	if err := rs.db.QueryRow(runsQuery).Scan(&status.Runs); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	rowsQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(segmentRowsTable, rs.backend))
	if err := rs.db.QueryRow(rowsQuery).Scan(&status.Rows); err != nil {
		return status, fmt.Errorf("failed to get total rows: %w", err)
	}

	if status.Runs > 0 {
		lastRunQuery := fmt.Sprintf("SELECT started_at FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(runsTable, rs.backend))
		row := rs.db.QueryRow(lastRunQuery)

		switch rs.backend {
		case schema.SQLiteBackend:
			var lastRunStr string
			if err := row.Scan(&lastRunStr); err != nil {
				return status, fmt.Errorf("failed to get last run time: %w", err)
			}
			lastRunAt, err := time.Parse(time.RFC3339Nano, lastRunStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last run time: %w", err)
			}
			status.LastRunAt = lastRunAt
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.LastRunAt); err != nil {
				return status, fmt.Errorf("failed to get last run time: %w", err)
			}
		}
	}

	return status, nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}

// nullFloat maps NaN to SQL NULL so drivers without NaN support accept it.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// floatOrNaN maps SQL NULL back to NaN.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}
