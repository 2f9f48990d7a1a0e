package analysis

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/storage/local"
)

const reportsCollection = "reports"

// FileStore keeps each report as a JSON file
type FileStore struct {
	store *local.Store
}

// NewFileStore creates a report store under basePath
func NewFileStore(basePath string) (*FileStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, err
	}
	return &FileStore{store: store}, nil
}

// Save implements ReportStore
func (s *FileStore) Save(r *StoredReport) error {
	if err := s.store.Save(reportsCollection, r.ID, r); err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

// Get implements ReportStore
func (s *FileStore) Get(id string) (*StoredReport, error) {
	var r StoredReport
	if err := s.store.Load(reportsCollection, id, &r); err != nil {
		if errors.Is(err, local.ErrNotFound) || errors.Is(err, local.ErrInvalidKey) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}
	return &r, nil
}

// List implements ReportStore
func (s *FileStore) List() ([]*StoredReport, error) {
	ids, err := s.store.List(reportsCollection)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]*StoredReport, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(id)
		if err != nil {
			if errors.Is(err, domain.ErrReportNotFound) {
				continue // deleted concurrently
			}
			return nil, err
		}
		reports = append(reports, r)
	}

	sortNewestFirst(reports)
	return reports, nil
}

// Delete implements ReportStore
func (s *FileStore) Delete(id string) error {
	if err := s.store.Delete(reportsCollection, id); err != nil {
		if errors.Is(err, local.ErrNotFound) || errors.Is(err, local.ErrInvalidKey) {
			return domain.ErrReportNotFound
		}
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return nil
}

func sortNewestFirst(reports []*StoredReport) {
	slices.SortStableFunc(reports, func(a, b *StoredReport) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
