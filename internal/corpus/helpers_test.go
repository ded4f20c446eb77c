package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const groundTruthCSV = `topic,category,question,content
card_activation,Cards,How do I activate my card?,Activate your card by calling the number on the sticker
balance_transfer,  Balance   Transfers ,How long does a balance transfer take?,Balance transfers take 7 to 10 business days to post
`

const syntheticCSV = `topic,category,question,retrieved_chunks,answer,cited_chunks
Lost  Card,cards,I lost my card,Report a lost card in the app immediately,Freeze it in the app,1
`

// writeSource writes content to dir/name and returns it as a Source.
func writeSource(t *testing.T, dir, name, content string) Source {
	t.Helper()
	path := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return Source{Name: name, Path: path}
}
