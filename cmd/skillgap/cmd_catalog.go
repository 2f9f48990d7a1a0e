package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/skillgap/internal/app"
	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/storage/sqlite"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the skill catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <catalog-file>",
	Short: "Import a YAML or JSON catalog into the SQLite database",
	Long: `Validates the catalog file and replaces the skills, relations and role
profiles held in SQLite. The database is created and migrated if needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dbPath = cfg.Storage.Path
			if cfg.Catalog.Source == "sqlite" {
				dbPath = cfg.Catalog.Path
			}
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		snap, err := catalog.Parse(data, filepath.Ext(args[0]))
		if err != nil {
			return err
		}

		db, err := app.OpenSQLite(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sqlite.NewCatalogStore(db).Import(cmd.Context(), snap); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d skills, %d relations, %d roles into %s\n",
			len(snap.Skills), len(snap.Relations), len(snap.Roles), dbPath)
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <catalog-file>",
	Short: "Validate a catalog file and report graph warnings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		snap, err := catalog.Parse(data, filepath.Ext(args[0]))
		if err != nil {
			return err
		}
		g, err := snap.Build()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ %d skills, %d relations, %d roles\n", g.Len(), g.RelationCount(), len(snap.Roles))
		for _, w := range g.Warnings() {
			fmt.Fprintf(out, "⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().String("db", "", "SQLite database path; defaults to the configured storage path")
	catalogCmd.AddCommand(catalogImportCmd, catalogValidateCmd)
}
