package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_Hydrate(t *testing.T) {
	p := Post{
		ID:      3,
		TagRows: []PostTag{{Name: "go", Position: 0}, {Name: "web", Position: 1}},
		LikeRows: []Like{
			{UserID: 7, User: UserRef{ID: 7, Username: "bob"}},
			{UserID: 9},
		},
	}
	p.Hydrate()

	assert.Equal(t, []string{"go", "web"}, p.Tags)
	assert.Equal(t, []UserRef{{ID: 7, Username: "bob"}, {ID: 9}}, p.Likes)
	assert.NotNil(t, p.Comments)
	assert.True(t, p.LikedBy(9))
	assert.False(t, p.LikedBy(1))
}

func TestPost_JSONShape(t *testing.T) {
	p := Post{ID: 1, Title: "Hi", UserID: 2, Author: UserRef{ID: 2, Username: "alice"}, Username: "alice"}
	p.Hydrate()

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, float64(1), out["_id"])
	assert.Equal(t, []any{}, out["tags"])
	assert.Equal(t, []any{}, out["likes"])
	assert.Equal(t, []any{}, out["comments"])
	assert.Equal(t, map[string]any{"_id": float64(2), "username": "alice"}, out["author"])
	assert.NotContains(t, out, "image")
	assert.NotContains(t, out, "UserID")
	assert.NotContains(t, out, "TagRows")
}

func TestUser_PasswordNeverSerialized(t *testing.T) {
	u := User{ID: 1, Username: "alice", Email: "a@x", Password: "hash"}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.Equal(t, UserRef{ID: 1, Username: "alice"}, u.Ref())
}

func TestTagRowsFrom(t *testing.T) {
	rows := TagRowsFrom(4, []string{"a", "b"})
	require.Len(t, rows, 2)
	assert.Equal(t, PostTag{PostID: 4, Position: 1, Name: "b"}, rows[1])
	assert.Empty(t, TagRowsFrom(4, nil))
}
