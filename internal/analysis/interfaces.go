package analysis

import (
	"time"

	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// Request is an analysis request as received from the API, queue or CLI
type Request struct {
	AssessmentID string                       `json:"assessment_id,omitempty"`
	TargetRole   string                       `json:"target_role,omitempty"` // display label
	Role         string                       `json:"role,omitempty"`        // named role profile in the catalog
	Requirements map[string]int               `json:"requirements,omitempty"`
	Levels       map[string]int               `json:"levels"`
	Enrichments  map[string]domain.Enrichment `json:"enrichments,omitempty"`
}

// StoredReport is a persisted gap report with its provenance
type StoredReport struct {
	ID              string           `json:"id"`
	Role            string           `json:"role,omitempty"`
	CatalogRevision uint64           `json:"catalog_revision"`
	CatalogSource   string           `json:"catalog_source"`
	Report          *domain.GapsData `json:"report"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ReportStore persists gap reports. Get and Delete return
// domain.ErrReportNotFound for unknown IDs.
type ReportStore interface {
	Save(r *StoredReport) error
	Get(id string) (*StoredReport, error)
	List() ([]*StoredReport, error) // newest first
	Delete(id string) error
}
