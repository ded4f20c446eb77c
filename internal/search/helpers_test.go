package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amankb/internal/corpus"
	"github.com/Aman-CERP/amankb/internal/store"
)

// bankingDocs is a small support corpus with distinct vocabularies.
var bankingDocs = []corpus.Document{
	{ID: 0, Source: "ground_truth", Topic: "card_activation", Category: "cards",
		Question: "How do I activate my card?",
		Content:  "Activate your card by calling the number on the sticker"},
	{ID: 1, Source: "ground_truth", Topic: "balance_transfer", Category: "payments",
		Question: "How long do balance transfers take?",
		Content:  "Balance transfers take 7 to 10 business days to post"},
	{ID: 2, Source: "ground_truth", Topic: "lost_card", Category: "cards",
		Question: "What if my card is lost or stolen?",
		Content:  "Report a lost or stolen card in the mobile app to freeze it immediately"},
	{ID: 3, Source: "synthetic", Topic: "dispute_charge", Category: "disputes",
		Question: "How do I dispute a charge?",
		Content:  "File a dispute within 60 days of the statement date for any unrecognized charge",
		Metadata: []corpus.MetadataEntry{{Key: "answer", Value: "Dispute online within 60 days"}}},
	{ID: 4, Source: "synthetic", Topic: "autopay", Category: "payments",
		Question: "Can I set up automatic payments?",
		Content:  "Enroll in autopay from the payments tab and choose minimum or full statement balance"},
}

func newEngine(t *testing.T, docs []corpus.Document, generation uint64) *Engine {
	t.Helper()
	c, err := corpus.NewCorpus(docs, generation)
	require.NoError(t, err)
	idx, err := store.Build(context.Background(), c, store.NewTokenizer(store.EnglishStopWords), nil)
	require.NoError(t, err)
	e, err := NewEngine(c, idx, DefaultEngineConfig())
	require.NoError(t, err)
	return e
}
