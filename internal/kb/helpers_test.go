package kb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amankb/internal/corpus"
)

const groundTruthCSV = `topic,category,question,content
card_activation,cards,How do I activate my card?,Activate your card by calling the number on the sticker
balance_transfer,payments,How long do balance transfers take?,Balance transfers take 7 to 10 business days to post
lost_card,cards,What if my card is lost or stolen?,Report a lost or stolen card in the mobile app to freeze it immediately
`

const syntheticCSV = `topic,category,question,retrieved_chunks,answer
dispute_charge,disputes,How do I dispute a charge?,File a dispute within 60 days of the statement date for any unrecognized charge,Dispute online within 60 days
`

// fixture holds the on-disk sources behind a test service.
type fixture struct {
	dir       string
	truth     corpus.Source
	synthetic corpus.Source
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:       dir,
		truth:     corpus.Source{Name: "ground_truth", Path: filepath.Join(dir, "dataset.csv")},
		synthetic: corpus.Source{Name: "synthetic", Path: filepath.Join(dir, "synthetic_dataset.csv")},
	}
	require.NoError(t, os.WriteFile(f.truth.Path, []byte(groundTruthCSV), 0o644))
	require.NoError(t, os.WriteFile(f.synthetic.Path, []byte(syntheticCSV), 0o644))
	return f
}

func (f fixture) sources() []corpus.Source {
	return []corpus.Source{f.truth, f.synthetic}
}

func newService(t *testing.T, sources ...corpus.Source) *Service {
	t.Helper()
	svc, err := New(DefaultOptions(sources...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func appendRaw(t *testing.T, path, row string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString(row)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
