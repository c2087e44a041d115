package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceSetup(t *testing.T) {
	root := t.TempDir()

	ws, err := NewWorkspace(root)
	require.NoError(t, err)
	require.NoError(t, ws.Setup())
	defer ws.Unlock()

	assert.DirExists(t, ws.MetadataDir)
	assert.DirExists(t, ws.LogsDir)
	assert.Equal(t, filepath.Join(root, MetadataDir, "config.json"), ws.ConfigPath)
	assert.Equal(t, filepath.Join(root, MetadataDir, "journal.db"), ws.JournalPath)
	assert.False(t, ws.Initialized())
}

func TestWorkspaceLockExcludesSecondInstance(t *testing.T) {
	root := t.TempDir()

	first, err := NewWorkspace(root)
	require.NoError(t, err)
	require.NoError(t, first.Lock())

	second, err := NewWorkspace(root)
	require.NoError(t, err)
	assert.ErrorIs(t, second.Lock(), ErrWorkspaceLocked)

	// unlocking a workspace we never locked must not free the holder
	require.NoError(t, second.Unlock())
	third, err := NewWorkspace(root)
	require.NoError(t, err)
	assert.ErrorIs(t, third.Lock(), ErrWorkspaceLocked)

	require.NoError(t, first.Unlock())
	require.NoError(t, third.Lock())
	require.NoError(t, third.Unlock())
}

func TestWorkspacePaths(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	abs := ws.AbsPath("posts/hello.md")
	assert.Equal(t, filepath.Join(ws.Root, "posts", "hello.md"), abs)

	rel, err := ws.RelPath(abs)
	require.NoError(t, err)
	assert.Equal(t, "posts/hello.md", rel)
}

func TestNormPath(t *testing.T) {
	assert.Equal(t, "posts/a.md", NormPath("/posts/a.md"))
	assert.Equal(t, "posts/a.md", NormPath("posts//a.md"))
	assert.Equal(t, "posts/a.md", NormPath("./posts/a.md"))
}
