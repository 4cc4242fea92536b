// Package history persists generated reports in SQLite so deviation trends
// can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rshade/fleet-deviation/internal/report"
)

// ErrNotFound is returned when a report ID is unknown.
var ErrNotFound = errors.New("report not found")

// timeLayout is fixed width so generated_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id             TEXT PRIMARY KEY,
	generated_at   TEXT NOT NULL,
	source         TEXT NOT NULL,
	policy         TEXT NOT NULL,
	deviations     INTEGER NOT NULL,
	issues         INTEGER NOT NULL,
	average        TEXT NOT NULL,
	document       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS deviations (
	report_id  TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	vessel_id  TEXT NOT NULL,
	year       INTEGER NOT NULL,
	quarter    INTEGER NOT NULL,
	baseline   TEXT NOT NULL,
	actual     TEXT NOT NULL,
	deviation  TEXT NOT NULL,
	PRIMARY KEY (report_id, vessel_id, year, quarter)
);
CREATE INDEX IF NOT EXISTS deviations_vessel ON deviations (vessel_id, year, quarter);
`

// Run is the stored summary of one report.
type Run struct {
	ReportID    string    `json:"reportId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Source      string    `json:"source"`
	Policy      string    `json:"policy"`
	Deviations  int       `json:"deviations"`
	Issues      int       `json:"issues"`
	Average     string    `json:"average"`
}

// Point is one stored quarterly deviation of a vessel.
type Point struct {
	ReportID    string    `json:"reportId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Year        int       `json:"year"`
	Quarter     int       `json:"quarter"`
	Baseline    string    `json:"baseline"`
	ActualValue string    `json:"actualValue"`
	Deviation   string    `json:"deviation"`
}

// Store is a SQLite-backed report history.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	logger.Debug().Str("path", path).Msg("history database ready")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores doc and its quarterly deviations in one transaction.
func (s *Store) Save(ctx context.Context, doc *report.Document) (err error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", doc.ReportID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error().Err(rbErr).Str("report_id", doc.ReportID).Msg("rollback failed")
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (id, generated_at, source, policy, deviations, issues, average, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ReportID, doc.GeneratedAt.UTC().Format(timeLayout), doc.Source, doc.Policy,
		doc.Summary.Count, len(doc.Issues), doc.Summary.Average.String(), string(body))
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", doc.ReportID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO deviations (report_id, vessel_id, year, quarter, baseline, actual, deviation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare deviation insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range doc.Results {
		for _, q := range v.QuarterlyData {
			if _, err = stmt.ExecContext(ctx, doc.ReportID, v.VesselID, q.Year, q.Quarter,
				q.Baseline.String(), q.ActualValue.String(), q.Deviation.String()); err != nil {
				return fmt.Errorf("failed to insert deviation %s %d-Q%d: %w", v.VesselID, q.Year, q.Quarter, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report %s: %w", doc.ReportID, err)
	}

	s.logger.Debug().
		Str("report_id", doc.ReportID).
		Int("deviations", doc.Summary.Count).
		Msg("report stored")
	return nil
}

// Runs returns the most recent runs, newest first. A limit of 0 or less
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, source, policy, deviations, issues, average
		 FROM reports ORDER BY generated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var generatedAt string
		if err := rows.Scan(&r.ReportID, &generatedAt, &r.Source, &r.Policy, &r.Deviations, &r.Issues, &r.Average); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

// Document returns the stored document of a report.
func (s *Store) Document(ctx context.Context, reportID string) (*report.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM reports WHERE id = ?`, reportID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", reportID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report %s: %w", reportID, err)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", reportID, err)
	}
	return &doc, nil
}

// VesselTrend returns every stored deviation of a vessel ordered by quarter,
// then by report time.
func (s *Store) VesselTrend(ctx context.Context, vesselID string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.report_id, r.generated_at, d.year, d.quarter, d.baseline, d.actual, d.deviation
		 FROM deviations d JOIN reports r ON r.id = d.report_id
		 WHERE d.vessel_id = ?
		 ORDER BY d.year, d.quarter, r.generated_at`, vesselID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend for %s: %w", vesselID, err)
	}
	defer rows.Close()

	points := []Point{}
	for rows.Next() {
		var p Point
		var generatedAt string
		if err := rows.Scan(&p.ReportID, &generatedAt, &p.Year, &p.Quarter, &p.Baseline, &p.ActualValue, &p.Deviation); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		if p.GeneratedAt, err = parseTime(generatedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trend for %s: %w", vesselID, err)
	}
	return points, nil
}

// Prune deletes all but the newest keep reports.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE id NOT IN (
			SELECT id FROM reports ORDER BY generated_at DESC, id LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return n, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}
