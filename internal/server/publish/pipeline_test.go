package publish

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_AppliesQueuedUpdates(t *testing.T) {
	svc, root := newTestService(t)
	pipe := NewPipeline(svc)

	writePost(t, root, "posts/hello.md", publishedPost)
	require.NoError(t, pipe.Publish("c1", []string{"posts/hello.md"}, nil))

	// Close waits for the worker, so the index is settled afterwards.
	pipe.Close()

	got, err := svc.Get("posts/hello.md")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Title)
	assert.Contains(t, got.HTML, "<strong>bold</strong>")
}

func TestPipeline_LastCommitWins(t *testing.T) {
	svc, root := newTestService(t)
	pipe := NewPipeline(svc)

	// Queue a burst of updates for the same path faster than the worker can
	// apply them. Whatever interleaving the worker sees, the newest commit
	// must own the row afterwards.
	for i := 1; i <= 20; i++ {
		content := fmt.Sprintf("---\ntitle: Rev %d\n---\n\nbody %d\n", i, i)
		writePost(t, root, "posts/busy.md", content)
		require.NoError(t, pipe.Publish(fmt.Sprintf("c%d", i), []string{"posts/busy.md"}, nil))
	}
	pipe.Close()

	got, err := svc.Get("posts/busy.md")
	require.NoError(t, err)
	assert.Equal(t, "Rev 20", got.Title)

	var commit string
	require.NoError(t, svc.db.Get(&commit, "SELECT commit_hash FROM posts WHERE path = ?", "posts/busy.md"))
	assert.Equal(t, "c20", commit)
}

func TestPipeline_DeletionRemovesRow(t *testing.T) {
	svc, root := newTestService(t)
	pipe := NewPipeline(svc)

	writePost(t, root, "posts/hello.md", publishedPost)
	require.NoError(t, pipe.Publish("c1", []string{"posts/hello.md"}, nil))
	require.NoError(t, pipe.Publish("c2", nil, []string{"posts/hello.md"}))
	pipe.Close()

	_, err := svc.Get("posts/hello.md")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPipeline_CloseIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	pipe := NewPipeline(svc)
	pipe.Close()
	pipe.Close()
}
