package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/config"
	"github.com/felixgeelhaar/skillgap/internal/storage/sqlite"
)

const testCatalog = `skills:
  - {id: go, name: Go, category: language}
  - {id: sql, name: SQL, category: language}
relations:
  - {from: sql, to: go, kind: related, strength: 0.3}
roles:
  backend:
    go: 4
    sql: 2
`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestNew_FileCatalogFileStorage(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := config.DefaultLocalConfig()
	cfg.Storage = config.StorageConfig{Driver: "file", Path: filepath.Join(dir, "reports")}
	cfg.Catalog.Source = "file"
	cfg.Catalog.Path = writeCatalog(t, dir, testCatalog)

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close(ctx)

	snap, err := a.Holder.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if snap.Revision != 1 || snap.Graph.Len() != 2 {
		t.Errorf("snapshot revision=%d skills=%d", snap.Revision, snap.Graph.Len())
	}

	stored, err := a.Analysis.Analyze(ctx, analysis.Request{
		AssessmentID: "file-1",
		Role:         "backend",
		Levels:       map[string]int{"go": 4},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(stored.Report.Gaps) != 1 {
		t.Errorf("gaps = %+v", stored.Report.Gaps)
	}

	if _, err := os.Stat(filepath.Join(dir, "reports", "reports", "file-1.json")); err != nil {
		t.Errorf("report file not written: %v", err)
	}
}

func TestNew_SQLiteCatalogSharesDatabase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	dbPath := filepath.Join(dir, "skillgap.db")

	snap, err := catalog.Parse([]byte(testCatalog), ".yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	db, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := sqlite.NewCatalogStore(db).Import(ctx, snap); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	db.Close()

	cfg := config.DefaultLocalConfig()
	cfg.Storage = config.StorageConfig{Driver: "sqlite", Path: dbPath}
	cfg.Catalog.Source = "sqlite"
	cfg.Catalog.Path = dbPath

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close(ctx)

	if len(a.closers) != 1 {
		t.Errorf("expected one shared database, got %d closers", len(a.closers))
	}

	if _, err := a.Analysis.Analyze(ctx, analysis.Request{AssessmentID: "db-1", Role: "backend"}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	reports, err := a.Analysis.ListReports()
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "db-1" {
		t.Errorf("reports = %+v", reports)
	}
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*config.LocalConfig)
	}{
		{"unknown storage", func(c *config.LocalConfig) { c.Storage.Driver = "s3" }},
		{"unknown source", func(c *config.LocalConfig) { c.Catalog.Source = "ldap" }},
		{"missing catalog file", func(c *config.LocalConfig) {
			c.Catalog.Path = filepath.Join(dir, "missing.yaml")
			c.Catalog.MaxAttempts = 1
		}},
		{"invalid catalog", func(c *config.LocalConfig) {
			c.Catalog.Path = writeCatalog(t, t.TempDir(), "roles:\n  x:\n    ghost: 2\n")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultLocalConfig()
			cfg.Storage.Driver = "none"
			cfg.Catalog.Source = "file"
			cfg.Catalog.Path = writeCatalog(t, t.TempDir(), testCatalog)
			tt.mutate(cfg)

			if a, err := New(ctx, cfg); err == nil {
				a.Close(ctx)
				t.Fatal("New() should fail")
			}
		})
	}
}
