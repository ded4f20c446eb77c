package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFile_NoFile_ReturnsEmptyPath(t *testing.T) {
	// Given: a config path that does not exist
	path := filepath.Join(t.TempDir(), ".amankb.yaml")

	// When: backing it up
	backupPath, err := BackupFile(path)

	// Then: nothing is written
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupFile_CopiesContent(t *testing.T) {
	// Given: an existing config file
	path := filepath.Join(t.TempDir(), ".amankb.yaml")
	content := "search:\n  min_score: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// When: backing it up
	backupPath, err := BackupFile(path)

	// Then: the backup holds the same bytes
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestListBackups_NewestFirstAndIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".amankb.yaml")
	for _, stamp := range []string{"20240101-000000.000", "20240301-000000.000", "20240201-000000.000"} {
		require.NoError(t, os.WriteFile(path+BackupSuffix+"."+stamp, []byte("x"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml.bak.20250101-000000.000"), []byte("x"), 0644))

	backups, err := ListBackups(path)

	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, path+BackupSuffix+".20240301-000000.000", backups[0])
	assert.Equal(t, path+BackupSuffix+".20240101-000000.000", backups[2])
}

func TestBackupFile_KeepsAtMostMaxBackups(t *testing.T) {
	// Given: more old backups than the retention limit
	dir := t.TempDir()
	path := filepath.Join(dir, ".amankb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))
	for i := 1; i <= MaxBackups+2; i++ {
		stamp := fmt.Sprintf("2020010%d-000000.000", i)
		require.NoError(t, os.WriteFile(path+BackupSuffix+"."+stamp, []byte("old"), 0644))
	}

	// When: a new backup is taken
	backupPath, err := BackupFile(path)
	require.NoError(t, err)

	// Then: only the newest MaxBackups survive, including the new one
	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, backupPath, backups[0])
}
