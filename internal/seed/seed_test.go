package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.NumUsers = 4
	opts.NumPosts = 9
	opts.HashCost = bcrypt.MinCost
	opts.RandSeed = 42
	return opts
}

func count(t *testing.T, s *Seeder, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestRunSeedsEverything(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, testOptions())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Users)
	assert.Equal(t, 9, summary.Posts)
	assert.Equal(t, int64(4), count(t, s, &models.User{}))
	assert.Equal(t, int64(9), count(t, s, &models.Post{}))
	assert.Equal(t, int64(summary.Likes), count(t, s, &models.Like{}))
	assert.Equal(t, int64(summary.Comments), count(t, s, &models.Comment{}))

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))
}

func TestClearAll(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, testOptions())
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(context.Background()))
	for _, model := range []any{&models.User{}, &models.Post{}, &models.PostTag{}, &models.Like{}, &models.Comment{}} {
		assert.Zero(t, count(t, s, model))
	}
}

func TestFactoryPickIsDistinct(t *testing.T) {
	s := NewSeeder(nil, testOptions())
	users := []*models.User{{ID: 1}, {ID: 2}, {ID: 3}}

	for i := 0; i < 20; i++ {
		picked := s.factory.Pick(users, 10)
		assert.LessOrEqual(t, len(picked), len(users))
		seen := map[uint]bool{}
		for _, u := range picked {
			assert.False(t, seen[u.ID])
			seen[u.ID] = true
		}
	}
	assert.Nil(t, s.factory.Pick(users, 0))
}

const fixturesYAML = `
users:
  - username: alice
  - username: bob
    email: bob@blog.test
    password: hunter22
posts:
  - author: alice
    title: Hello
    content: First post
    tags: [go, web]
    likes: [bob, alice]
    comments:
      - author: bob
        text: Welcome!
`

func TestApplyFixtures(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, testOptions())

	path := filepath.Join(t.TempDir(), "fixtures.yml")
	require.NoError(t, os.WriteFile(path, []byte(fixturesYAML), 0o600))

	fx, err := LoadFixtures(path)
	require.NoError(t, err)
	summary, err := s.ApplyFixtures(context.Background(), fx)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 2, Posts: 1, Likes: 2, Comments: 1}, summary)

	var bob models.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
	assert.Equal(t, "bob@blog.test", bob.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(bob.Password), []byte("hunter22")))

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	loaded, err := s.posts.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, loaded.Tags)
	assert.Len(t, loaded.Likes, 2)
	require.Len(t, loaded.Comments, 1)
	assert.Equal(t, "bob", loaded.Comments[0].Author.Username)
}

func TestParseFixturesErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "users:\n  - username: a\n    nickname: b\n"},
		{"missing username", "users:\n  - email: a@b.c\n"},
		{"post without title", "posts:\n  - author: a\n"},
		{"not yaml", "users: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	fx, err := ParseFixtures(nil)
	require.NoError(t, err)
	assert.Empty(t, fx.Users)
}

func TestApplyFixturesUnknownAuthor(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	s := NewSeeder(db, testOptions())

	fx, err := ParseFixtures([]byte("posts:\n  - author: ghost\n    title: Boo\n"))
	require.NoError(t, err)
	_, err = s.ApplyFixtures(context.Background(), fx)
	assert.ErrorContains(t, err, `unknown fixture user "ghost"`)
}
