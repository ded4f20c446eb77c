package search

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/store"
)

func TestEngine_SelfRetrieval(t *testing.T) {
	// Given: an engine over the banking corpus
	e := newEngine(t, bankingDocs, 0)

	for _, d := range bankingDocs {
		t.Run(d.Topic, func(t *testing.T) {
			// When: searching with a document's own content
			results, err := e.Search(context.Background(), d.Content, 1)

			// Then: that document is the top result
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, d.ID, results[0].DocumentID)
			assert.GreaterOrEqual(t, results[0].Score, DefaultMinScore)
		})
	}
}

func TestEngine_BalanceTransferScenario(t *testing.T) {
	// Given: only the activation and balance transfer documents
	docs := []corpus.Document{
		{ID: 0, Topic: "card_activation", Content: "Activate your card by calling the number on the sticker"},
		{ID: 1, Topic: "balance_transfer", Content: "Balance transfers take 7 to 10 business days to post"},
	}
	e := newEngine(t, docs, 0)

	// When: asking how long a balance transfer takes
	results, err := e.Search(context.Background(), "how long does a balance transfer take", 3)

	// Then: B is first and A does not clear the threshold
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "balance_transfer", results[0].Topic)
	assert.Greater(t, results[0].Score, 0.05)
	for _, r := range results {
		assert.NotEqual(t, "card_activation", r.Topic)
	}
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := newEngine(t, bankingDocs, 0)

	for _, q := range []string{"", "   ", "?!", "what is the"} {
		results, err := e.Search(context.Background(), q, 3)

		assert.Nil(t, results, q)
		assert.True(t, amanerrors.IsEmptyQuery(err), q)
	}
}

func TestEngine_NoSharedVocabularyIsEmptyNotError(t *testing.T) {
	e := newEngine(t, bankingDocs, 0)

	results, err := e.Search(context.Background(), "mortgage escrow refinance", 3)

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEngine_ScoresOrderedAndBounded(t *testing.T) {
	e := newEngine(t, bankingDocs, 0)

	for _, q := range []string{"card", "lost card statement", "payments balance", "dispute charge statement"} {
		for _, n := range []int{1, 2, 3, 10} {
			results, err := e.Search(context.Background(), q, n)
			require.NoError(t, err)

			// Then: at most n, all above threshold, non-increasing, within [0,1]
			assert.LessOrEqual(t, len(results), n)
			for i, r := range results {
				assert.GreaterOrEqual(t, r.Score, 0.05)
				assert.LessOrEqual(t, r.Score, 1.0)
				if i > 0 {
					assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
				}
			}
		}
	}
}

func TestEngine_TieBreakByID(t *testing.T) {
	// Given: identical documents stored out of ID order
	docs := []corpus.Document{
		{ID: 9, Topic: "b", Content: "overdraft fee refund"},
		{ID: 2, Topic: "a", Content: "overdraft fee refund"},
		{ID: 5, Topic: "c", Content: "overdraft fee refund"},
	}
	e := newEngine(t, docs, 0)

	results, err := e.Search(context.Background(), "overdraft fee", 3)

	// Then: equal scores fall back to ascending ID
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{2, 5, 9}, []int{results[0].DocumentID, results[1].DocumentID, results[2].DocumentID})
	assert.Equal(t, results[0].Score, results[2].Score)
}

func TestEngine_ThresholdDropsWeakMatches(t *testing.T) {
	docs := []corpus.Document{
		{ID: 0, Topic: "a", Content: "fee"},
		{ID: 1, Topic: "b", Content: "wire transfer international routing swift code intermediary bank fee"},
	}
	c, err := corpus.NewCorpus(docs, 0)
	require.NoError(t, err)
	idx, err := store.Build(context.Background(), c, store.NewTokenizer(nil), nil)
	require.NoError(t, err)

	// When: the threshold sits between the two scores
	e, err := NewEngine(c, idx, EngineConfig{MinScore: 0.5})
	require.NoError(t, err)
	results, err := e.Search(context.Background(), "fee", 5)

	// Then: only the strong match survives
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].DocumentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestEngine_InvalidCount(t *testing.T) {
	e := newEngine(t, bankingDocs, 0)

	_, err := e.Search(context.Background(), "card", 0)

	assert.Equal(t, amanerrors.ErrCodeInvalidInput, amanerrors.GetCode(err))
}

func TestEngine_ResultCarriesDocumentFields(t *testing.T) {
	e := newEngine(t, bankingDocs, 0)

	results, err := e.Search(context.Background(), "dispute unrecognized charge", 1)

	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, 3, r.DocumentID)
	assert.Equal(t, "dispute_charge", r.Topic)
	assert.Equal(t, "disputes", r.Category)
	assert.Equal(t, "synthetic", r.Source)
	assert.Equal(t, "Dispute online within 60 days", r.Answer)
}

func TestNewEngine_RejectsMismatchedGeneration(t *testing.T) {
	c, err := corpus.NewCorpus(bankingDocs, 1)
	require.NoError(t, err)
	other, err := corpus.NewCorpus(bankingDocs, 2)
	require.NoError(t, err)
	idx, err := store.Build(context.Background(), other, store.NewTokenizer(nil), nil)
	require.NoError(t, err)

	_, err = NewEngine(c, idx, DefaultEngineConfig())
	assert.Error(t, err)

	_, err = NewEngine(nil, idx, DefaultEngineConfig())
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestEngine_SelfRetrievalIgnoresQuestionText(t *testing.T) {
	// Given: a document whose question repeats a neighbour's content term
	docs := []corpus.Document{
		{ID: 0, Topic: "refunds", Question: "How do refunds work", Content: "refund fee"},
		{ID: 1, Topic: "fees", Question: "fee", Content: "fee refund policy"},
	}
	e := newEngine(t, docs, 0)

	for _, d := range docs {
		// When: searching with the content
		results, err := e.Search(context.Background(), d.Content, 1)

		// Then: the owner of the content wins with a perfect score
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, d.ID, results[0].DocumentID, d.Topic)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	}
}

// supportCorpus generates rows support records from overlapping banking
// vocabulary. Each content carries its own case reference so no two
// documents share a term distribution.
func supportCorpus(rows int, seed int64) []corpus.Document {
	actions := []string{"activate", "cancel", "dispute", "report", "update", "increase", "reverse", "schedule", "verify", "replace"}
	subjects := []string{"card", "payment", "transfer", "balance", "charge", "statement", "limit", "refund", "deposit", "autopay"}
	steps := []string{
		"Sign in to the mobile app and open the account menu.",
		"Confirm the customer's identity with two security questions.",
		"Allow up to 10 business days for the change to post.",
		"Escalate to the back office team when the amount exceeds the daily limit.",
		"Freeze the card immediately if fraud is suspected.",
		"Record the interaction in the case notes before closing.",
	}

	rng := rand.New(rand.NewSource(seed))
	pick := func(pool []string) string { return pool[rng.Intn(len(pool))] }

	docs := make([]corpus.Document, rows)
	for i := range docs {
		action, subject := pick(actions), pick(subjects)
		paras := []string{fmt.Sprintf("To %s a %s, follow case ref%04d.", action, subject, i)}
		for n := 1 + rng.Intn(3); n > 0; n-- {
			paras = append(paras, pick(steps))
		}
		docs[i] = corpus.Document{
			ID:       i,
			Topic:    action + "_" + subject,
			Question: fmt.Sprintf("How do I %s a %s?", action, subject),
			Content:  strings.Join(paras, "\n\n"),
		}
	}
	return docs
}

func TestEngine_SelfRetrievalGeneratedCorpus(t *testing.T) {
	// Given: a few hundred generated records with heavily shared vocabulary
	docs := supportCorpus(400, 7)
	e := newEngine(t, docs, 0)

	// When/Then: every document's content retrieves that document first
	for _, d := range docs {
		results, err := e.Search(context.Background(), d.Content, 1)
		require.NoError(t, err)
		require.Len(t, results, 1, "doc %d", d.ID)
		assert.Equal(t, d.ID, results[0].DocumentID, "doc %d", d.ID)
		assert.GreaterOrEqual(t, results[0].Score, DefaultMinScore)
	}
}
