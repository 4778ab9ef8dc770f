package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

func TestParseDbMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DbMode
		wantErr bool
	}{
		{"local", ModeLocal, false},
		{"REMOTE", ModeRemote, false},
		{" sync ", ModeSync, false},
		{"", "", true},
		{"cloud", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDbMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, appErrors.IsValidation(err))
				assert.True(t, appErrors.HasCode(err, appErrors.CodeUnknownMode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRootNode(t *testing.T) {
	root := NewRootNode("ds1")

	assert.NotEmpty(t, root.ID)
	assert.Equal(t, "ds1", root.Dataset)
	assert.Equal(t, RootNodeLabel, root.Label)
	assert.Equal(t, RootNodeType, root.Type)
	require.NotNil(t, root.Level)
	assert.Equal(t, RootLevel, *root.Level)
}

func TestNewIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestNodeLevel(t *testing.T) {
	assert.Equal(t, 0, NodeLevel(Node{}))
	assert.Equal(t, 3, NodeLevel(Node{Level: Level(3)}))
}

func TestSnapshotRestamp(t *testing.T) {
	snap := Snapshot{
		Nodes:       []Node{{ID: "n1", Dataset: "old"}},
		Links:       []Link{{ID: "l1", Dataset: "old"}},
		VisualLinks: []VisualLink{{ID: "v1", Dataset: "other"}},
		Datasets:    []Dataset{{ID: "old"}},
	}

	snap.Restamp("new")

	assert.Equal(t, "new", snap.Nodes[0].Dataset)
	assert.Equal(t, "new", snap.Links[0].Dataset)
	assert.Equal(t, "new", snap.VisualLinks[0].Dataset)
	assert.Equal(t, "old", snap.Datasets[0].ID)
	assert.Equal(t, 3, snap.Len())
}

func TestLinkTypes(t *testing.T) {
	links := []Link{
		{ID: "1", Type: LinkTypeParentChild},
		{ID: "2"},
		{ID: "3", Type: "related"},
		{ID: "4", Type: LinkTypeParentChild},
	}

	assert.Equal(t, []string{LinkTypeParentChild, "related"}, LinkTypes(links))
	assert.Empty(t, LinkTypes(nil))
}

func TestFilterVisualLinks(t *testing.T) {
	a := NewVisualLink("ds", "n1", "n2", "note", nil)
	b := NewVisualLink("ds", "n2", "n3", "", nil)

	assert.Len(t, FilterVisualLinks([]VisualLink{a, b}, ""), 2)
	filtered := FilterVisualLinks([]VisualLink{a, b}, "note")
	require.Len(t, filtered, 1)
	assert.Equal(t, a.ID, filtered[0].ID)
	assert.Nil(t, b.Type)
}

func TestValidate(t *testing.T) {
	err := Validate(Link{ID: "l1", Dataset: "ds"})

	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Contains(t, err.Error(), "Source is required")

	assert.NoError(t, Validate(NewLink("ds", "a", "b", "")))
}
