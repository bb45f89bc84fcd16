package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFileIdempotentAndPostHash(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "App.csproj")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644))

	s, err := NewSession(root)
	require.NoError(t, err)

	require.NoError(t, s.BackupFile(target))
	require.NoError(t, s.BackupFile(target)) // second call is a no-op
	require.Len(t, s.entries, 1)

	require.NoError(t, os.WriteFile(target, []byte("rewritten"), 0o644))
	require.NoError(t, s.RecordPostHash(target))

	assert.NotEmpty(t, s.entries[0].PreHashB64)
	assert.NotEmpty(t, s.entries[0].PostHashB64)
}

func TestFinalizeWritesManifestAtomically(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "App.csproj")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644))

	s, err := NewSession(root)
	require.NoError(t, err)
	require.NoError(t, s.BackupFile(target))
	require.NoError(t, s.Finalize())

	manifestPath := filepath.Join(s.Dir, "manifest.json")
	m, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, Finalized, m.State)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, target, m.Entries[0].OriginalPath)
}

// S5 / Testable Property 7: rollback restores content, and is idempotent.
func TestRollbackRestoresAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "App.csproj")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644))

	s, err := NewSession(root)
	require.NoError(t, err)
	require.NoError(t, s.BackupFile(target))

	require.NoError(t, os.WriteFile(target, []byte("migrated"), 0o644))
	require.NoError(t, s.Finalize())

	results, err := s.Rollback()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))

	// Second rollback is a no-op.
	results2, err := s.Rollback()
	require.NoError(t, err)
	assert.Nil(t, results2)
}

func TestBackupFileRecordsNewlyCreatedPathForRemovalOnRollback(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "New.csproj")

	s, err := NewSession(root)
	require.NoError(t, err)
	require.NoError(t, s.BackupFile(target))
	require.Empty(t, s.entries[0].BackupPath)

	require.NoError(t, os.WriteFile(target, []byte("new content"), 0o644))
	_, err = s.Rollback()
	require.NoError(t, err)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAuditStreamAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	stream, err := NewStream(path)
	require.NoError(t, err)

	require.NoError(t, stream.Append(Event{Type: EventStart, ToolVersion: "test"}))
	require.NoError(t, stream.Append(Event{Type: EventFileModified, Path: "App.csproj"}))
	require.NoError(t, stream.Append(Event{Type: EventEnd}))
	require.NoError(t, stream.Close())

	events, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventEnd, events[2].Type)
}

func TestAcquireLockFailsWhenHeldWithinTimeout(t *testing.T) {
	root := t.TempDir()
	l1, warning, err := AcquireLock(root, 0)
	require.NoError(t, err)
	require.Empty(t, warning)
	defer l1.Release()

	_, _, err = AcquireLock(root, 0)
	assert.Error(t, err)
}
