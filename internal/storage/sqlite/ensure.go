package sqlite

import (
	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/catalog"
)

// Ensure SQLite stores implement the storage interfaces.
var (
	_ analysis.ReportStore = (*ReportStore)(nil)
	_ catalog.Source       = (*CatalogStore)(nil)
)
