// Package store persists pipeline runs and their tidy tables to an
// embedded sqlite database, so mirrored tables can be reloaded without
// refetching the workbook.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lipid-data/lipid.report/internal/dataset"
)

// Store wraps the sqlite database holding run history and mirrored
// tidy tables.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the database at path. The schema is managed
// by migrations; call MigrateUp before first use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Store{db}, nil
}

// Run is one recorded pipeline execution.
type Run struct {
	RunID     string    `json:"run_id"`
	Variant   string    `json:"variant"`
	SourceURL string    `json:"source_url"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveRun records a pipeline run and mirrors its tidy table and any
// differential statistics in one transaction. Returns the new run ID.
func (s *Store) SaveRun(variant, sourceURL string, t *dataset.TidyTable, stats []dataset.DifferentialStatistic) (string, error) {
	runID := uuid.NewString()

	tx, err := s.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, variant, source_url, row_count) VALUES (?, ?, ?, ?)`,
		runID, variant, sourceURL, t.Len(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	obsStmt, err := tx.Prepare(`
		INSERT INTO observations (
			run_id, component_name, sample_id, abundance,
			panel, genotype, condition, sex, batch, group_label, annotated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare observation insert: %w", err)
	}
	defer obsStmt.Close()

	for _, o := range t.Rows {
		abundance := sql.NullFloat64{Float64: o.Abundance, Valid: !dataset.IsMissing(o.Abundance)}
		if _, err := obsStmt.Exec(
			runID, o.ComponentName, o.SampleID, abundance,
			o.Panel, o.Genotype, o.Condition, o.Sex, o.Batch, o.Group, o.Annotated,
		); err != nil {
			return "", fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	for _, st := range stats {
		if _, err := tx.Exec(
			`INSERT INTO differential_stats (run_id, component_name, log_fc, adj_p_val) VALUES (?, ?, ?, ?)`,
			runID, st.ComponentName, st.LogFC, st.AdjPVal,
		); err != nil {
			return "", fmt.Errorf("failed to insert differential statistic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// LatestRun returns the most recent run for a variant, or sql.ErrNoRows
// when the variant has never been recorded.
func (s *Store) LatestRun(variant string) (*Run, error) {
	row := s.QueryRow(`
		SELECT run_id, variant, source_url, row_count, created_at
		FROM runs WHERE variant = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, variant)

	var r Run
	if err := row.Scan(&r.RunID, &r.Variant, &r.SourceURL, &r.RowCount, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadObservations rebuilds the mirrored tidy table for a run. The
// variant supplies the categorical domains; stored rows were already
// normalized, so no relabeling is applied.
func (s *Store) LoadObservations(runID string, v dataset.Variant) (*dataset.TidyTable, error) {
	rows, err := s.Query(`
		SELECT component_name, sample_id, abundance,
		       panel, genotype, condition, sex, batch, group_label, annotated
		FROM observations WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations for run %s: %w", runID, err)
	}
	defer rows.Close()

	t := &dataset.TidyTable{Domains: v.Domains()}
	for rows.Next() {
		var o dataset.Observation
		var abundance sql.NullFloat64
		if err := rows.Scan(
			&o.ComponentName, &o.SampleID, &abundance,
			&o.Panel, &o.Genotype, &o.Condition, &o.Sex, &o.Batch, &o.Group, &o.Annotated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Abundance = dataset.Missing()
		if abundance.Valid {
			o.Abundance = abundance.Float64
		}
		t.Rows = append(t.Rows, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t.SortCanonical()
	return t, nil
}

// LoadStats returns the mirrored differential statistics for a run.
func (s *Store) LoadStats(runID string) ([]dataset.DifferentialStatistic, error) {
	rows, err := s.Query(`
		SELECT component_name, log_fc, adj_p_val
		FROM differential_stats WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics for run %s: %w", runID, err)
	}
	defer rows.Close()

	var stats []dataset.DifferentialStatistic
	for rows.Next() {
		var st dataset.DifferentialStatistic
		if err := rows.Scan(&st.ComponentName, &st.LogFC, &st.AdjPVal); err != nil {
			return nil, fmt.Errorf("failed to scan statistic: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
