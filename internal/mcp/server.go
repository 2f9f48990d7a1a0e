package mcp

import (
	"context"
	"errors"
	"fmt"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/skillgap/internal/analysis"
	"github.com/felixgeelhaar/skillgap/internal/domain"
)

// Server wraps the MCP server with skill gap analysis tools
type Server struct {
	mcpServer    *server.Server
	analysis     *analysis.Service
	instructions string
}

// Config contains configuration for the MCP server
type Config struct {
	Analysis *analysis.Service
	Version  string
}

// NewServer creates a new MCP server for skillgap
func NewServer(cfg Config) *Server {
	s := &Server{
		analysis: cfg.Analysis,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	maxLevel := domain.DefaultMaxLevel
	if s.analysis != nil {
		maxLevel = s.analysis.Policy().MaxLevel
	}
	s.instructions = instructions(maxLevel)

	s.mcpServer = server.New(server.Info{
		Name:    "skillgap",
		Version: version,
	}, server.WithInstructions(s.instructions))

	s.registerTools()

	return s
}

func instructions(maxLevel int) string {
	return fmt.Sprintf(`
skillgap compares an assessment's skill levels against a target role and
returns a ranked gap report with readiness score and learning estimates.

Available tools:
- skillgap_roles: List role profiles and their required levels
- skillgap_analyze: Run a gap analysis for a set of current levels
- skillgap_report: Fetch a previously stored report by assessment ID

Levels use a 0-%d scale. Every skill in levels and requirements must exist
in the catalog; unknown skills fail the analysis with a validation error.
`, maxLevel)
}

// registerTools registers all skillgap MCP tools
func (s *Server) registerTools() {
	s.mcpServer.Tool("skillgap_analyze").
		Description("Analyze skill gaps for current levels against a role profile or explicit requirements.").
		Handler(s.handleAnalyze)

	s.mcpServer.Tool("skillgap_report").
		Description("Fetch a stored gap report by assessment ID.").
		Handler(s.handleReport)

	s.mcpServer.Tool("skillgap_roles").
		Description("List the role profiles in the loaded catalog.").
		Handler(s.handleRoles)
}

// Input/Output types for tools

type AnalyzeInput struct {
	AssessmentID string         `json:"assessment_id,omitempty" jsonschema:"description=Assessment ID (generated when empty)"`
	Role         string         `json:"role,omitempty" jsonschema:"description=Role profile name from skillgap_roles"`
	TargetRole   string         `json:"target_role,omitempty" jsonschema:"description=Display label for the target role"`
	Requirements map[string]int `json:"requirements,omitempty" jsonschema:"description=Required levels as skill ID -> level; overrides role entries"`
	Levels       map[string]int `json:"levels" jsonschema:"description=Current levels as skill ID -> level; skills must exist in the catalog"`
}

type AnalyzeOutput struct {
	AssessmentID    string           `json:"assessment_id"`
	CatalogRevision uint64           `json:"catalog_revision"`
	Report          *domain.GapsData `json:"report"`
}

type ReportInput struct {
	AssessmentID string `json:"assessment_id" jsonschema:"description=Assessment ID returned by skillgap_analyze"`
}

type RolesInput struct{}

type RolesOutput struct {
	Roles []analysis.RoleSummary `json:"roles"`
}

// Tool handlers

func (s *Server) handleAnalyze(ctx context.Context, input AnalyzeInput) (AnalyzeOutput, error) {
	if s.analysis == nil {
		return AnalyzeOutput{}, errors.New("analysis service not configured")
	}

	stored, err := s.analysis.Analyze(ctx, analysis.Request{
		AssessmentID: input.AssessmentID,
		Role:         input.Role,
		TargetRole:   input.TargetRole,
		Requirements: input.Requirements,
		Levels:       input.Levels,
	})
	if err != nil {
		return AnalyzeOutput{}, fmt.Errorf("analysis failed: %w", err)
	}

	return AnalyzeOutput{
		AssessmentID:    stored.ID,
		CatalogRevision: stored.CatalogRevision,
		Report:          stored.Report,
	}, nil
}

func (s *Server) handleReport(ctx context.Context, input ReportInput) (AnalyzeOutput, error) {
	if s.analysis == nil {
		return AnalyzeOutput{}, errors.New("analysis service not configured")
	}
	if input.AssessmentID == "" {
		return AnalyzeOutput{}, domain.NewValidationError("assessment_id is required")
	}

	stored, err := s.analysis.GetReport(input.AssessmentID)
	if err != nil {
		return AnalyzeOutput{}, fmt.Errorf("report %s: %w", input.AssessmentID, err)
	}

	return AnalyzeOutput{
		AssessmentID:    stored.ID,
		CatalogRevision: stored.CatalogRevision,
		Report:          stored.Report,
	}, nil
}

func (s *Server) handleRoles(ctx context.Context, input RolesInput) (RolesOutput, error) {
	if s.analysis == nil {
		return RolesOutput{}, errors.New("analysis service not configured")
	}

	roles, err := s.analysis.Roles()
	if err != nil {
		return RolesOutput{}, fmt.Errorf("list roles: %w", err)
	}
	return RolesOutput{Roles: roles}, nil
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
