package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cortexsearch/codesearch/internal/config"
	"github.com/cortexsearch/codesearch/internal/fileinput"
	"github.com/cortexsearch/codesearch/internal/indexsvc"
	"github.com/cortexsearch/codesearch/internal/respbuilder"
	"github.com/cortexsearch/codesearch/pkg/version"
)

// server bridges the MCP transport to the index service and the
// response builder. It holds no indexing logic of its own — every tool
// handler is a thin argument-to-call, call-to-JSON adapter.
type server struct {
	mcp    *mcp.Server
	index  *indexsvc.Service
	resp   *respbuilder.Builder
	cfg    *config.Config
	logger *slog.Logger
}

func newServer(idx *indexsvc.Service, cfg *config.Config, logger *slog.Logger) *server {
	s := &server{
		index:  idx,
		resp:   respbuilder.New(respbuilder.DefaultConfig()),
		cfg:    cfg,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "codesearch",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	return s
}

// InitialiseInput is the "index" tool's input: a workspace path and
// optionally a set of include/exclude globs overriding the configured
// reference file supplier defaults.
type InitialiseInput struct {
	Path    string   `json:"path" jsonschema:"absolute path to the workspace to index"`
	Include []string `json:"include,omitempty" jsonschema:"glob patterns to include; defaults to the configured set"`
	Exclude []string `json:"exclude,omitempty" jsonschema:"glob patterns to exclude; defaults to the configured set"`
}

// InitialiseOutput reports the outcome of initialise()+index_documents()+commit().
type InitialiseOutput struct {
	WorkspaceHash string `json:"workspace_hash"`
	IndexPath     string `json:"index_path"`
	IsNew         bool   `json:"is_new"`
	FilesIndexed  int    `json:"files_indexed"`
	DocCount      uint64 `json:"doc_count"`
}

// SearchInput is the "search" tool's input.
type SearchInput struct {
	Path            string `json:"path" jsonschema:"absolute path to the workspace to search"`
	Query           string `json:"query" jsonschema:"the search query to execute"`
	MaxResults      int    `json:"max_results,omitempty" jsonschema:"maximum number of results, default 10"`
	ContextRadius   int    `json:"context_radius,omitempty" jsonschema:"lines of context to include around each match"`
	IncludeSnippets bool   `json:"include_snippets,omitempty" jsonschema:"whether to extract bounded match snippets"`
	Mode            string `json:"mode,omitempty" jsonschema:"response mode: summary (default) or full"`
}

// StatsInput is the "stats" tool's input.
type StatsInput struct {
	Path string `json:"path" jsonschema:"absolute path to the workspace"`
}

// RepairInput is the "repair" tool's input.
type RepairInput struct {
	Path       string `json:"path" jsonschema:"absolute path to the workspace"`
	Backup     bool   `json:"backup,omitempty" jsonschema:"copy the index directory aside before repairing"`
	Revalidate bool   `json:"revalidate,omitempty" jsonschema:"re-run integrity validation after repair"`
}

func (s *server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index",
		Description: "Walks a workspace directory, indexes every discoverable source file, and commits the writer. Call this before searching a workspace for the first time, or to pick up changes since the last index.",
	}, s.handleIndex)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Searches an indexed workspace and returns a token-budgeted response envelope: a summary, the top results, an extension/directory distribution, file hotspots, and follow-up actions. Use mode=full to request every result inline instead of a capped summary.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "stats",
		Description: "Reports document count, generation counters, and reader staleness for an indexed workspace.",
	}, s.handleStats)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repair",
		Description: "Runs the underlying index library's check-and-fix routine against a corrupted or unhealthy workspace index.",
	}, s.handleRepair)

	s.logger.Info("mcp tools registered", slog.Int("count", 4))
}

func (s *server) handleIndex(ctx context.Context, _ *mcp.CallToolRequest, input InitialiseInput) (
	*mcp.CallToolResult, InitialiseOutput, error,
) {
	if input.Path == "" {
		return nil, InitialiseOutput{}, fmt.Errorf("path parameter is required")
	}

	initResult, err := s.index.Initialise(input.Path)
	if err != nil {
		return nil, InitialiseOutput{}, err
	}

	paths := s.cfg.Paths
	if len(input.Include) > 0 {
		paths.Include = input.Include
	}
	if len(input.Exclude) > 0 {
		paths.Exclude = input.Exclude
	}

	opts := fileinput.FromPathsConfig(input.Path, paths)
	docs, err := fileinput.Walk(opts)
	if err != nil {
		return nil, InitialiseOutput{}, err
	}

	if err := s.index.IndexDocuments(ctx, input.Path, docs); err != nil {
		return nil, InitialiseOutput{}, err
	}
	if err := s.index.Commit(input.Path); err != nil {
		return nil, InitialiseOutput{}, err
	}

	stats, err := s.index.Statistics(input.Path)
	if err != nil {
		return nil, InitialiseOutput{}, err
	}

	output := InitialiseOutput{
		WorkspaceHash: initResult.WorkspaceHash,
		IndexPath:     initResult.IndexPath,
		IsNew:         initResult.IsNew,
		FilesIndexed:  len(docs),
		DocCount:      stats.DocCount,
	}
	return nil, output, nil
}

func (s *server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult, *respbuilder.Envelope, error,
) {
	if input.Path == "" || input.Query == "" {
		return nil, nil, fmt.Errorf("path and query parameters are required")
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	searchResult, err := s.index.Search(ctx, input.Path, input.Query, maxResults, input.ContextRadius, input.IncludeSnippets)
	if err != nil {
		return nil, nil, err
	}

	mode := respbuilder.ModeSummary
	if input.Mode == string(respbuilder.ModeFull) {
		mode = respbuilder.ModeFull
	}

	envelope := s.resp.Build(respbuilder.Request{
		Path:          input.Path,
		QueryStr:      input.Query,
		Operation:     "search",
		Mode:          mode,
		ContextRadius: input.ContextRadius,
		SearchResult:  searchResult,
	})

	return nil, envelope, nil
}

func (s *server) handleStats(_ context.Context, _ *mcp.CallToolRequest, input StatsInput) (
	*mcp.CallToolResult, *indexsvc.Statistics, error,
) {
	if input.Path == "" {
		return nil, nil, fmt.Errorf("path parameter is required")
	}
	stats, err := s.index.Statistics(input.Path)
	if err != nil {
		return nil, nil, err
	}
	return nil, stats, nil
}

func (s *server) handleRepair(_ context.Context, _ *mcp.CallToolRequest, input RepairInput) (
	*mcp.CallToolResult, *indexsvc.RepairResult, error,
) {
	if input.Path == "" {
		return nil, nil, fmt.Errorf("path parameter is required")
	}
	result, err := s.index.Repair(input.Path, indexsvc.RepairOptions{
		Backup:     input.Backup,
		Revalidate: input.Revalidate,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

// Serve starts the server over stdio, the only transport this daemon
// speaks (SSE/HTTP belong to an outer routing layer this module doesn't
// implement).
func (s *server) Serve(ctx context.Context) error {
	s.logger.Info("starting mcp server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("mcp server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp server stopped gracefully")
	return nil
}
