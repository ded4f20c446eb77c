package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amankb/internal/corpus"
	"github.com/Aman-CERP/amankb/internal/kb"
	"github.com/Aman-CERP/amankb/internal/search"
)

const groundTruthCSV = `topic,category,question,content
card_activation,cards,How do I activate my card?,Activate your card by calling the number on the sticker
balance_transfer,payments,How long do balance transfers take?,"Balance transfers take 7 to 10 business days to post.

Transfers from another bank may need the account number.

Interest starts once the transfer posts.

Promotional rates end after 12 months."
lost_card,cards,What if my card is lost or stolen?,Report a lost or stolen card in the mobile app to freeze it immediately
`

const syntheticCSV = `topic,category,question,retrieved_chunks,answer
dispute_charge,disputes,How do I dispute a charge?,File a dispute within 60 days of the statement date for any unrecognized charge,Dispute online within 60 days
`

// newKB writes both sources to a temp dir and returns a service over them.
func newKB(t *testing.T) (*kb.Service, []corpus.Source) {
	t.Helper()
	dir := t.TempDir()
	sources := []corpus.Source{
		{Name: "ground_truth", Path: filepath.Join(dir, "dataset.csv")},
		{Name: "synthetic", Path: filepath.Join(dir, "synthetic_dataset.csv")},
	}
	require.NoError(t, os.WriteFile(sources[0].Path, []byte(groundTruthCSV), 0o644))
	require.NoError(t, os.WriteFile(sources[1].Path, []byte(syntheticCSV), 0o644))

	svc, err := kb.New(kb.DefaultOptions(sources...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, sources
}

func newTestServer(t *testing.T) (*Server, *kb.Service, []corpus.Source) {
	t.Helper()
	svc, sources := newKB(t)
	srv, err := NewServer(svc, nil)
	require.NoError(t, err)
	return srv, svc, sources
}

// stubKB is a KnowledgeBase with scripted answers.
type stubKB struct {
	searchFn    func(ctx context.Context, query string, n int) ([]search.Result, error)
	topicErr    error
	suggestions []string
	reloadErr   error
	status      kb.Status
}

func (s *stubKB) Search(ctx context.Context, query string, n int) ([]search.Result, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, query, n)
	}
	return []search.Result{}, nil
}

func (s *stubKB) TopicDetails(context.Context, string) (corpus.Document, error) {
	return corpus.Document{}, s.topicErr
}

func (s *stubKB) SuggestTopics(context.Context, string, int) []string { return s.suggestions }

func (s *stubKB) ListTopics(context.Context, string) ([]string, error) { return nil, nil }

func (s *stubKB) Reload(context.Context, ...corpus.Source) (uint64, error) {
	if s.reloadErr != nil {
		return 0, s.reloadErr
	}
	return 1, nil
}

func (s *stubKB) Status() kb.Status { return s.status }
