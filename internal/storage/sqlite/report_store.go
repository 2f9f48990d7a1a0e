package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// ReportStore implements report persistence backed by SQLite.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a new SQLite-backed report store.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// Save persists a report (insert or replace).
func (s *ReportStore) Save(r *analysis.StoredReport) error {
	if r.Report == nil {
		return fmt.Errorf("save report %s: %w", r.ID, domain.ErrInvalidInput)
	}
	body, err := json.Marshal(r.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO reports (id, role, catalog_revision, catalog_source,
			readiness_score, gap_count, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role=excluded.role,
			catalog_revision=excluded.catalog_revision,
			catalog_source=excluded.catalog_source,
			readiness_score=excluded.readiness_score,
			gap_count=excluded.gap_count,
			report=excluded.report,
			created_at=excluded.created_at`,
		r.ID, r.Role, int64(r.CatalogRevision), r.CatalogSource,
		r.Report.ReadinessScore, len(r.Report.Gaps), string(body), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

// Get retrieves a report by ID.
func (s *ReportStore) Get(id string) (*analysis.StoredReport, error) {
	row := s.db.QueryRow(`
		SELECT id, role, catalog_revision, catalog_source, report, created_at
		FROM reports WHERE id = ?`, id)
	return scanReport(row)
}

// List returns all reports, newest first.
func (s *ReportStore) List() ([]*analysis.StoredReport, error) {
	rows, err := s.db.Query(`
		SELECT id, role, catalog_revision, catalog_source, report, created_at
		FROM reports ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []*analysis.StoredReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Delete removes a report.
func (s *ReportStore) Delete(id string) error {
	result, err := s.db.Exec("DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*analysis.StoredReport, error) {
	var r analysis.StoredReport
	var revision int64
	var body string

	err := row.Scan(&r.ID, &r.Role, &revision, &r.CatalogSource, &body, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	r.CatalogRevision = uint64(revision)

	r.Report = &domain.GapsData{}
	if err := json.Unmarshal([]byte(body), r.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}
