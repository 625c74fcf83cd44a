package sqldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceStaticPlaceholders(t *testing.T) {
	q := "SELECT * FROM posts WHERE author = ? AND id IN (??) AND kind = ?"
	assert.Equal(t, "SELECT * FROM posts WHERE author = $1 AND id IN (??) AND kind = $2", ReplaceStaticPlaceholders(q, '$'))
	assert.Equal(t, q, ReplaceStaticPlaceholders(q, '?'))

	q = "SELECT 'why?' AS q, body FROM posts WHERE id = ?"
	assert.Equal(t, "SELECT 'why?' AS q, body FROM posts WHERE id = $1", ReplaceStaticPlaceholders(q, '$'))
}

func TestExpandDynamicPlaceholders(t *testing.T) {
	got, err := ExpandDynamicPlaceholders("WHERE a = $1 AND id IN (??)", '$', []int{3}, 2)
	require.NoError(t, err)
	assert.Equal(t, "WHERE a = $1 AND id IN ($2, $3, $4)", got)

	got, err = ExpandDynamicPlaceholders("id IN (??) OR parent IN (??)", '?', []int{2, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "id IN (?, ?) OR parent IN (?)", got)

	got, err = ExpandDynamicPlaceholders("WHERE note <> '??' AND id IN (??)", '$', []int{2}, 1)
	require.NoError(t, err)
	assert.Equal(t, "WHERE note <> '??' AND id IN ($1, $2)", got)

	_, err = ExpandDynamicPlaceholders("id IN (??)", '?', nil, 1)
	assert.Error(t, err)
	_, err = ExpandDynamicPlaceholders("id IN (??)", '$', []int{1, 2}, 1)
	assert.Error(t, err)
}

func TestOrderByClause(t *testing.T) {
	clause := OrderByClause([]OrderBy{
		{Column: NewColumnOrPanic("created_at"), Desc: true},
		{Column: NewColumnOrPanic("posts.id")},
	})
	assert.Equal(t, " ORDER BY created_at DESC, posts.id ASC", clause)
	assert.Empty(t, OrderByClause(nil))

	_, err := NewColumn("created_at; DROP TABLE posts")
	assert.Error(t, err)
}
