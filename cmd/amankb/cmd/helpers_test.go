package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amankb/internal/logging"
)

const groundTruthCSV = `topic,category,question,content
card_activation,cards,How do I activate my card?,Activate your card by calling the number on the sticker
balance_transfer,payments,How long do balance transfers take?,Balance transfers take 7 to 10 business days to post
lost_card,cards,What if my card is lost or stolen?,Report a lost or stolen card in the mobile app to freeze it immediately
`

const syntheticCSV = `topic,category,question,retrieved_chunks,answer
dispute_charge,disputes,How do I dispute a charge?,File a dispute within 60 days of the statement date for any unrecognized charge,Dispute online within 60 days
`

// newProject lays out the default data directory and isolates the user
// config, log directory and AMANKB_* environment.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "dataset.csv"), []byte(groundTruthCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "synthetic_dataset.csv"), []byte(syntheticCSV), 0o644))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(logging.LogDirEnv, t.TempDir())
	for _, key := range []string{"AMANKB_MIN_SCORE", "AMANKB_CACHE_SIZE", "AMANKB_LOG_LEVEL", "AMANKB_SOURCES", "AMANKB_WATCH"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	return dir
}

// run executes the root command with args against dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.Execute()
	_ = stopProfiling()
	stopLogging()
	return buf.String(), err
}
