package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/catalog"
	"github.com/felixgeelhaar/skillgap/internal/config"
	"github.com/felixgeelhaar/skillgap/internal/gap"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [request.json]",
	Short: "Run a gap analysis offline against a catalog file",
	Long: `Reads an analysis request (JSON, from a file or stdin) and prints the gap
report as JSON. Nothing is persisted and no daemon is needed.

Example request:
  {"role": "backend", "levels": {"go": 2, "sql": 3}}`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalogPath, _ := cmd.Flags().GetString("catalog")
		compact, _ := cmd.Flags().GetBool("compact")

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open request: %w", err)
			}
			defer f.Close()
			in = f
		}

		var req analysis.Request
		if err := json.NewDecoder(in).Decode(&req); err != nil {
			return fmt.Errorf("parse request: %w", err)
		}

		cfg, err := config.LoadLocalConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if catalogPath == "" {
			catalogPath = cfg.Catalog.Path
		}

		svc, err := offlineService(cmd, catalogPath, cfg.Scoring)
		if err != nil {
			return err
		}

		stored, err := svc.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		if !compact {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(stored.Report)
	},
}

func init() {
	analyzeCmd.Flags().String("catalog", "", "Catalog file (YAML or JSON); defaults to the configured catalog path")
	analyzeCmd.Flags().Bool("compact", false, "Print the report on a single line")
}

// offlineService builds a non-persisting analysis service over one catalog file
func offlineService(cmd *cobra.Command, catalogPath string, policy gap.Policy) (*analysis.Service, error) {
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	snap, err := catalog.Parse(data, filepath.Ext(catalogPath))
	if err != nil {
		return nil, err
	}
	g, err := snap.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	for _, w := range g.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	holder := skillgraph.NewHolder()
	holder.Swap(g, snap.Roles, "file:"+catalogPath)

	engine, err := gap.NewEngine(policy)
	if err != nil {
		return nil, err
	}
	return analysis.NewService(engine, holder, nil, analysis.Config{}), nil
}
