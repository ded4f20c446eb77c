package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/kb"
	"github.com/Aman-CERP/amankb/internal/search"
	"github.com/Aman-CERP/amankb/pkg/version"
)

func TestNewServer_RequiresKnowledgeBase(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestServer_InfoAndTools(t *testing.T) {
	srv, _, _ := newTestServer(t)

	name, ver := srv.Info()
	assert.Equal(t, "amankb", name)
	assert.Equal(t, version.Version, ver)
	assert.NotNil(t, srv.MCPServer())

	var names []string
	for _, tool := range srv.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{ToolSearch, ToolTopic, ToolListTopics, ToolReload, ToolStatus}, names)
}

func TestCallTool_UnknownTool(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), "drop_tables", nil)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
}

func TestCallTool_Search_BalanceTransfer(t *testing.T) {
	// Given: a server over the fixture knowledge base
	srv, _, _ := newTestServer(t)

	// When: an agent asks about balance transfers
	text, err := srv.CallTool(context.Background(), ToolSearch, map[string]any{
		"query":       "how long does a balance transfer take",
		"num_results": float64(2),
	})

	// Then: the balance transfer record comes first with its paragraphs
	require.NoError(t, err)
	assert.Contains(t, text, "--- Result 1 (relevance: ")
	assert.Contains(t, text, "ID: 1\nTopic: balance_transfer\nCategory: payments\n")
	assert.Contains(t, text, "Question: How long do balance transfers take?")
	assert.Contains(t, text, "Detailed Procedures:")
	assert.Contains(t, text, "  • Balance transfers take 7 to 10 business days to post.")
	assert.NotContains(t, text, "Promotional rates")
	assert.NotContains(t, text, "Result 3")
}

func TestCallTool_Search_AnswerFromSynthetic(t *testing.T) {
	srv, _, _ := newTestServer(t)

	text, err := srv.CallTool(context.Background(), ToolSearch, map[string]any{"query": "dispute an unrecognized charge"})

	require.NoError(t, err)
	assert.Contains(t, text, "Topic: dispute_charge")
	assert.Contains(t, text, "Question: How do I dispute a charge?")
	assert.Contains(t, text, "Answer: Dispute online within 60 days")
}

func TestCallTool_Search_NoMatch(t *testing.T) {
	srv, _, _ := newTestServer(t)

	text, err := srv.CallTool(context.Background(), ToolSearch, map[string]any{"query": "cryptocurrency staking"})

	require.NoError(t, err)
	assert.Contains(t, text, "No relevant information found for: cryptocurrency staking")
}

func TestCallTool_Search_InvalidArguments(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing query", map[string]any{}},
		{"query not string", map[string]any{"query": 42}},
		{"fractional count", map[string]any{"query": "card", "num_results": 2.5}},
		{"negative count", map[string]any{"query": "card", "num_results": float64(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.CallTool(ctx, ToolSearch, tt.args)

			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
		})
	}
}

func TestCallTool_Search_EmptyQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	for _, query := range []string{"", "   ", "the and of", "?!"} {
		t.Run(query, func(t *testing.T) {
			// When: the query carries no searchable terms
			_, err := srv.CallTool(ctx, ToolSearch, map[string]any{"query": query})

			// Then: it fails with the dedicated empty-query code and a hint
			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, ErrCodeEmptyQuery, mcpErr.Code)
			assert.Contains(t, mcpErr.Message, "no searchable terms")
		})
	}
}

func TestCallTool_Search_CapsResults(t *testing.T) {
	// Given: a knowledge base that reports the requested count
	var got int
	stub := &stubKB{searchFn: func(_ context.Context, _ string, n int) ([]search.Result, error) {
		got = n
		return nil, nil
	}}
	srv, err := NewServer(stub, nil)
	require.NoError(t, err)

	// When: an int argument is passed straight through
	_, err = srv.CallTool(context.Background(), ToolSearch, map[string]any{"query": "card", "num_results": 25})

	// Then: the count reaches the knowledge base, which owns the cap
	require.NoError(t, err)
	assert.Equal(t, 25, got)
}

func TestCallTool_TopicDetails(t *testing.T) {
	srv, _, _ := newTestServer(t)

	text, err := srv.CallTool(context.Background(), ToolTopic, map[string]any{"topic": " Dispute_Charge "})

	require.NoError(t, err)
	assert.Contains(t, text, "ID: 3\nTopic: dispute_charge\nCategory: disputes\nSource: synthetic\n")
	assert.Contains(t, text, "Question: How do I dispute a charge?")
	assert.Contains(t, text, "Summary: Dispute online within 60 days")
	assert.Contains(t, text, "Detailed Information:\n\nFile a dispute within 60 days")
}

func TestCallTool_TopicNotFound_Suggests(t *testing.T) {
	// Given: a knowledge base with scripted suggestions
	stub := &stubKB{
		topicErr:    amanerrors.NotFoundError("topic", "card_activate"),
		suggestions: []string{"card_activation"},
	}
	srv, err := NewServer(stub, nil)
	require.NoError(t, err)

	// When: asking for a topic that does not exist
	text, err := srv.CallTool(context.Background(), ToolTopic, map[string]any{"topic": "card_activate"})

	// Then: the miss is a normal answer listing the suggestion
	require.NoError(t, err)
	assert.Equal(t, "Topic 'card_activate' not found.\n\nDid you mean one of these?\n  - card_activation", text)
}

func TestCallTool_TopicNotFound_Real(t *testing.T) {
	srv, _, _ := newTestServer(t)

	text, err := srv.CallTool(context.Background(), ToolTopic, map[string]any{"topic": "mortgage_refinance"})

	require.NoError(t, err)
	assert.Contains(t, text, "Topic 'mortgage_refinance' not found")
}

func TestCallTool_TopicRequired(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, err := srv.CallTool(context.Background(), ToolTopic, map[string]any{"topic": ""})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestCallTool_ListTopics(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	all, err := srv.CallTool(ctx, ToolListTopics, nil)
	require.NoError(t, err)
	assert.Contains(t, all, "Total: 4 topics")

	cards, err := srv.CallTool(ctx, ToolListTopics, map[string]any{"category": "cards"})
	require.NoError(t, err)
	assert.Equal(t, "Available topics in category: cards:\n\n  • card_activation\n  • lost_card\n\nTotal: 2 topics", cards)

	none, err := srv.CallTool(ctx, ToolListTopics, map[string]any{"category": "loans"})
	require.NoError(t, err)
	assert.Equal(t, "No topics found for category: loans.", none)
}

func TestCallTool_Reload_PicksUpAppendedRow(t *testing.T) {
	// Given: a loaded knowledge base
	srv, svc, sources := newTestServer(t)
	ctx := context.Background()
	_, err := srv.CallTool(ctx, ToolSearch, map[string]any{"query": "lost card"})
	require.NoError(t, err)

	// When: a synthetic row is appended on disk and a reload is requested
	f, err := os.OpenFile(sources[1].Path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("overdraft_fee,fees,Why was I charged an overdraft fee?,Overdraft fees apply when the balance drops below zero,Fees apply below zero\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	text, err := srv.CallTool(ctx, ToolReload, nil)

	// Then: the new generation is reported and the row is searchable
	require.NoError(t, err)
	assert.Contains(t, text, "Knowledge base reloaded (generation 1): 5 documents from 2 sources")
	doc, err := svc.TopicDetails(ctx, "overdraft_fee")
	require.NoError(t, err)
	assert.Equal(t, 4, doc.ID)
}

func TestCallTool_Reload_Failure(t *testing.T) {
	// Given: a knowledge base whose reload fails
	stub := &stubKB{reloadErr: amanerrors.DataLoadError("synthetic", 3, "missing topic", errors.New("empty field"))}
	srv, err := NewServer(stub, nil)
	require.NoError(t, err)

	// When: a reload is requested
	_, err = srv.CallTool(context.Background(), ToolReload, nil)

	// Then: the typed failure surfaces with its cause
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeDataLoad, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "row 3")
	assert.Contains(t, mcpErr.Message, "empty field")
}

func TestCallTool_Status(t *testing.T) {
	// Given: a server that has answered one search
	srv, _, _ := newTestServer(t)
	ctx := context.Background()
	_, err := srv.CallTool(ctx, ToolSearch, map[string]any{"query": "activate card"})
	require.NoError(t, err)

	// When: asking for status
	text, err := srv.CallTool(ctx, ToolStatus, nil)
	require.NoError(t, err)

	// Then: the JSON reports a ready snapshot and the query
	var st kb.Status
	require.NoError(t, json.Unmarshal([]byte(text), &st))
	assert.True(t, st.Lifecycle.Servable)
	assert.Equal(t, 4, st.Topics)
	require.NotNil(t, st.Queries)
	assert.Equal(t, int64(1), st.Queries.TotalQueries)
}

func TestQueryMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()
	_, err := srv.CallTool(ctx, ToolSearch, map[string]any{"query": "lost card"})
	require.NoError(t, err)
	_, err = srv.CallTool(ctx, ToolSearch, map[string]any{"query": "lost card"})
	require.NoError(t, err)

	out := srv.QueryMetrics()

	assert.Equal(t, int64(2), out.Summary.TotalQueries)
	assert.Equal(t, "session", out.Summary.TimePeriod)
	assert.InDelta(t, 0.5, out.Summary.CacheHitRate, 1e-9)
	assert.Equal(t, int64(2), out.KindCounts["search"])
	assert.NotEmpty(t, out.TopTerms)
}

func TestQueryMetrics_NoTelemetry(t *testing.T) {
	srv, err := NewServer(&stubKB{}, nil)
	require.NoError(t, err)

	out := srv.QueryMetrics()

	assert.Zero(t, out.Summary.TotalQueries)
	assert.NotNil(t, out.ZeroResultQueries)
}

func TestServe_UnknownTransport(t *testing.T) {
	srv, err := NewServer(&stubKB{status: kb.Status{Sources: []corpus.SourceStat{}}}, nil)
	require.NoError(t, err)

	err = srv.Serve(context.Background(), "sse")
	assert.Error(t, err)
}
