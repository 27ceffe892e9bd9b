package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIndex_Search(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Add("projects.md", "Active projects: noteflow rewrite, garden planning")
	idx.Add("recipes.md", "Tomato soup recipe with basil")
	idx.Add("empty.md", "nothing relevant here")

	results, err := idx.Search(context.Background(), "garden projects", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "projects.md", results[0].ID)
	assert.Equal(t, 1.0, results[0].Score)

	// Partial overlap scores lower and unrelated docs are omitted.
	results, err = idx.Search(context.Background(), "tomato planning", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0.5, results[0].Score)
}

func TestInMemoryIndex_SearchEdges(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Add("a.md", "alpha")

	results, err := idx.Search(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(context.Background(), "alpha", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
