package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votehubph/backend/internal/models"
)

func view(id int, replies ...models.CommentView) models.CommentView {
	if replies == nil {
		replies = []models.CommentView{}
	}
	return models.CommentView{ID: id, Replies: replies}
}

func forest() []models.CommentView {
	return []models.CommentView{
		view(1, view(2, view(3))),
		view(4),
	}
}

func TestTreeFind(t *testing.T) {
	nodes := forest()

	n, depth, ok := comments.Find(nodes, 3)
	require.True(t, ok)
	assert.Equal(t, 3, n.ID)
	assert.Equal(t, 3, depth)

	_, depth, ok = comments.Find(nodes, 4)
	require.True(t, ok)
	assert.Equal(t, 1, depth)

	_, _, ok = comments.Find(nodes, 99)
	assert.False(t, ok)
}

func TestTreeUpdateCopiesPath(t *testing.T) {
	nodes := forest()

	out, ok := comments.Update(nodes, 3, func(c models.CommentView) models.CommentView {
		c.LikesCount = 7
		return c
	})
	require.True(t, ok)

	got, _, _ := comments.Find(out, 3)
	assert.Equal(t, 7, got.LikesCount)

	old, _, _ := comments.Find(nodes, 3)
	assert.Equal(t, 0, old.LikesCount, "input forest must not change")
}

func TestTreeUpdateMissing(t *testing.T) {
	nodes := forest()
	out, ok := comments.Update(nodes, 42, func(c models.CommentView) models.CommentView { return c })
	assert.False(t, ok)
	assert.Equal(t, nodes, out)
}

func TestTreeRemove(t *testing.T) {
	nodes := forest()

	out, ok := comments.Remove(nodes, 2)
	require.True(t, ok)
	assert.Equal(t, 2, comments.Count(out))
	_, _, found := comments.Find(out, 3)
	assert.False(t, found, "subtree goes with its root")
	assert.Equal(t, 4, comments.Count(nodes))

	out, ok = comments.Remove(nodes, 4)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)
}

func TestTreeAppendChild(t *testing.T) {
	nodes := forest()

	out, ok := comments.AppendChild(nodes, 1, view(5))
	require.True(t, ok)
	require.Len(t, out[0].Replies, 2)
	assert.Equal(t, 5, out[0].Replies[1].ID)
	assert.Len(t, nodes[0].Replies, 1)

	_, ok = comments.AppendChild(nodes, 77, view(6))
	assert.False(t, ok)
}
