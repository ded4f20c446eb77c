package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	StatusURI       = "amankb://status"
	QueryMetricsURI = "amankb://query_metrics"
)

// QueryMetricsOutput is the JSON structure for the query_metrics resource.
type QueryMetricsOutput struct {
	Summary             QueryMetricsSummary `json:"summary"`
	KindCounts          map[string]int64    `json:"kind_counts"`
	TopTerms            []QueryTermCount    `json:"top_terms"`
	ZeroResultQueries   []string            `json:"zero_result_queries"`
	LatencyDistribution map[string]int64    `json:"latency_distribution"`
}

// QueryMetricsSummary provides overview statistics.
type QueryMetricsSummary struct {
	TotalQueries  int64   `json:"total_queries"`
	TimePeriod    string  `json:"time_period"`
	ZeroResultPct float64 `json:"zero_result_pct"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
}

// QueryTermCount represents a term and its frequency.
type QueryTermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        "status",
		URI:         StatusURI,
		Description: "Knowledge base readiness, sizes and cache statistics",
		MIMEType:    "application/json",
	}, func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		text, err := s.status()
		if err != nil {
			return nil, err
		}
		return jsonResource(StatusURI, text), nil
	})

	s.mcp.AddResource(&mcp.Resource{
		Name:        "query_metrics",
		URI:         QueryMetricsURI,
		Description: "Query pattern telemetry for knowledge base tuning",
		MIMEType:    "application/json",
	}, func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		out := s.QueryMetrics()
		content, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, MapError(err)
		}
		return jsonResource(QueryMetricsURI, string(content)), nil
	})
}

// QueryMetrics summarizes session query telemetry.
func (s *Server) QueryMetrics() QueryMetricsOutput {
	out := QueryMetricsOutput{
		Summary:             QueryMetricsSummary{TimePeriod: "session"},
		KindCounts:          make(map[string]int64),
		TopTerms:            []QueryTermCount{},
		ZeroResultQueries:   []string{},
		LatencyDistribution: make(map[string]int64),
	}

	snap := s.kb.Status().Queries
	if snap == nil {
		return out
	}

	out.Summary.TotalQueries = snap.TotalQueries
	out.Summary.ZeroResultPct = snap.ZeroResultPercentage()
	out.Summary.CacheHitRate = snap.CacheHitRate()
	for kind, count := range snap.KindCounts {
		out.KindCounts[string(kind)] = count
	}
	for _, tc := range snap.TopTerms {
		out.TopTerms = append(out.TopTerms, QueryTermCount{Term: tc.Term, Count: tc.Count})
	}
	if snap.ZeroResultQueries != nil {
		out.ZeroResultQueries = snap.ZeroResultQueries
	}
	for bucket, count := range snap.LatencyDistribution {
		out.LatencyDistribution[string(bucket)] = count
	}
	return out
}

func jsonResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: text},
		},
	}
}
