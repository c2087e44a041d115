package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inkpress/inkpress/internal/post"
)

func docWithTitle(title string) *post.Document {
	return &post.Document{Title: &title, Extra: map[string]any{}}
}

func TestMergeScalars_DivergentEdit(t *testing.T) {
	base := docWithTitle("A")
	server := docWithTitle("B")
	client := docWithTitle("C")

	merged := server.Clone()
	conflicts := mergeScalars(merged, base, server, client)

	assert.Equal(t, []string{"title"}, conflicts)
	assert.Equal(t, "B", *merged.Title)
}

func TestMergeScalars_RemovalVersusEdit(t *testing.T) {
	base := docWithTitle("A")
	server := &post.Document{Extra: map[string]any{}} // server removed title
	client := docWithTitle("C")

	merged := server.Clone()
	conflicts := mergeScalars(merged, base, server, client)

	// removal and edit diverge; the server state (absent) stands
	assert.Equal(t, []string{"title"}, conflicts)
	assert.Nil(t, merged.Title)
}

func TestMergeScalars_BothRemoved(t *testing.T) {
	base := docWithTitle("A")
	server := &post.Document{Extra: map[string]any{}}
	client := &post.Document{Extra: map[string]any{}}

	merged := server.Clone()
	conflicts := mergeScalars(merged, base, server, client)

	assert.Empty(t, conflicts)
	assert.Nil(t, merged.Title)
}

func TestMergeScalars_ExtraKeyAddedOneSide(t *testing.T) {
	base := &post.Document{Extra: map[string]any{}}
	server := &post.Document{Extra: map[string]any{}}
	client := &post.Document{Extra: map[string]any{"series": "s1"}}

	merged := server.Clone()
	conflicts := mergeScalars(merged, base, server, client)

	assert.Empty(t, conflicts)
	assert.Equal(t, "s1", merged.Extra["series"])
}

func TestMergeScalars_ExtraKeyAddedBothSidesDivergent(t *testing.T) {
	base := &post.Document{Extra: map[string]any{}}
	server := &post.Document{Extra: map[string]any{"series": "s1"}}
	client := &post.Document{Extra: map[string]any{"series": "s2"}}

	merged := server.Clone()
	conflicts := mergeScalars(merged, base, server, client)

	assert.Equal(t, []string{"series"}, conflicts)
	assert.Equal(t, "s1", merged.Extra["series"])
}

func TestMergeScalars_ConflictsSorted(t *testing.T) {
	titleB, titleC := "B", "C"
	authorX, authorY := "x", "y"
	base := &post.Document{Title: strPtr("A"), Author: strPtr("a"), Extra: map[string]any{}}
	server := &post.Document{Title: &titleB, Author: &authorX, Extra: map[string]any{}}
	client := &post.Document{Title: &titleC, Author: &authorY, Extra: map[string]any{}}

	merged := server.Clone()
	conflicts := mergeScalars(merged, base, server, client)

	assert.Equal(t, []string{"author", "title"}, conflicts)
}

func TestValuesEqual(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.In(time.FixedZone("X", 3600))

	assert.True(t, valuesEqual(t1, t2))
	assert.False(t, valuesEqual(t1, t1.Add(time.Second)))
	assert.False(t, valuesEqual(t1, "2024-01-01"))
	assert.True(t, valuesEqual("a", "a"))
	assert.True(t, valuesEqual(3, 3))
	assert.False(t, valuesEqual(3, int64(3)))
}

func strPtr(s string) *string { return &s }
