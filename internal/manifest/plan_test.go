package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fe(path, content string) *FileEntry {
	return &FileEntry{
		Path:        path,
		ContentHash: HashBytes([]byte(content)),
		Size:        int64(len(content)),
	}
}

func TestClassify_DecisionTable(t *testing.T) {
	cases := []struct {
		name                 string
		base, server, client *FileEntry
		want                 Classification
	}{
		{
			name:   "client only is new upload",
			client: fe("a.md", "c1"),
			want:   ClassNewUpload,
		},
		{
			name:   "server only is new download",
			server: fe("a.md", "s1"),
			want:   ClassNewDownload,
		},
		{
			name:   "server deleted client unchanged",
			base:   fe("a.md", "v1"),
			client: fe("a.md", "v1"),
			want:   ClassDeleteRemote,
		},
		{
			name:   "client deleted server unchanged",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v1"),
			want:   ClassDeleteLocal,
		},
		{
			name: "deleted both sides",
			base: fe("a.md", "v1"),
			want: ClassUnchanged,
		},
		{
			name:   "identical edit both sides",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v2"),
			client: fe("a.md", "v2"),
			want:   ClassUnchanged,
		},
		{
			name:   "divergent edits both sides",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v2"),
			client: fe("a.md", "v3"),
			want:   ClassBothModified,
		},
		{
			name:   "only server changed",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v2"),
			client: fe("a.md", "v1"),
			want:   ClassNewDownload,
		},
		{
			name:   "only client changed",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v1"),
			client: fe("a.md", "v2"),
			want:   ClassNewUpload,
		},
		{
			name:   "nothing changed",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v1"),
			client: fe("a.md", "v1"),
			want:   ClassUnchanged,
		},
		{
			name:   "client deleted but server modified degenerates to merge",
			base:   fe("a.md", "v1"),
			server: fe("a.md", "v2"),
			want:   ClassBothModified,
		},
		{
			name:   "server deleted but client modified degenerates to merge",
			base:   fe("a.md", "v1"),
			client: fe("a.md", "v2"),
			want:   ClassBothModified,
		},
		{
			name:   "created identically on both sides",
			server: fe("a.md", "same"),
			client: fe("a.md", "same"),
			want:   ClassUnchanged,
		},
		{
			name:   "created divergently on both sides",
			server: fe("a.md", "s1"),
			client: fe("a.md", "c1"),
			want:   ClassBothModified,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.base, tt.server, tt.client))
		})
	}
}

func TestBuildPlan_Buckets(t *testing.T) {
	base := Manifest{
		"kept.md":          fe("kept.md", "v1"),
		"server-edit.md":   fe("server-edit.md", "v1"),
		"client-edit.md":   fe("client-edit.md", "v1"),
		"both-edit.md":     fe("both-edit.md", "v1"),
		"client-delete.md": fe("client-delete.md", "v1"),
		"server-delete.md": fe("server-delete.md", "v1"),
	}
	server := Manifest{
		"kept.md":          fe("kept.md", "v1"),
		"server-edit.md":   fe("server-edit.md", "v2"),
		"client-edit.md":   fe("client-edit.md", "v1"),
		"both-edit.md":     fe("both-edit.md", "v2s"),
		"client-delete.md": fe("client-delete.md", "v1"),
		"server-new.md":    fe("server-new.md", "n1"),
	}
	client := Manifest{
		"kept.md":          fe("kept.md", "v1"),
		"server-edit.md":   fe("server-edit.md", "v1"),
		"client-edit.md":   fe("client-edit.md", "v2"),
		"both-edit.md":     fe("both-edit.md", "v2c"),
		"server-delete.md": fe("server-delete.md", "v1"),
		"client-new.md":    fe("client-new.md", "n2"),
	}

	plan := BuildPlan(base, server, client)

	assert.Equal(t, []string{"client-edit.md", "client-new.md"}, plan.Uploads)
	assert.Equal(t, []string{"server-edit.md", "server-new.md"}, plan.Downloads)
	assert.Equal(t, []string{"client-delete.md"}, plan.LocalDeletes)
	assert.Equal(t, []string{"server-delete.md"}, plan.RemoteDeletes)
	assert.Equal(t, []string{"both-edit.md"}, plan.Conflicts)
	assert.Equal(t, []string{"kept.md"}, plan.Unchanged)
	assert.False(t, plan.IsEmpty())
}

func TestBuildPlan_IdenticalManifestsIsEmpty(t *testing.T) {
	m := Manifest{
		"a.md": fe("a.md", "v1"),
		"b.md": fe("b.md", "v2"),
	}

	plan := BuildPlan(m, m, m)
	assert.True(t, plan.IsEmpty())
	assert.Len(t, plan.Unchanged, 2)
}

func TestBuildPlan_NilBase(t *testing.T) {
	server := Manifest{"s.md": fe("s.md", "s1"), "shared.md": fe("shared.md", "x")}
	client := Manifest{"c.md": fe("c.md", "c1"), "shared.md": fe("shared.md", "x")}

	plan := BuildPlan(nil, server, client)

	require.Equal(t, []string{"c.md"}, plan.Uploads)
	require.Equal(t, []string{"s.md"}, plan.Downloads)
	assert.Equal(t, []string{"shared.md"}, plan.Unchanged)
	assert.Empty(t, plan.Conflicts)
}
