package seed

import (
	"fmt"
	"strings"
	"time"

	"miniblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var tagPool = []string{
	"go", "web", "design", "travel", "food", "music", "books", "photography",
	"fitness", "gaming", "science", "diy", "pets", "movies", "devops",
}

// Factory builds unsaved domain entities from fake data.
type Factory struct {
	fake    *gofakeit.Faker
	maxDays int
	now     func() time.Time
}

// NewFactory creates a Factory drawing from fake.
func NewFactory(fake *gofakeit.Faker, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 60
	}
	return &Factory{fake: fake, maxDays: maxDays, now: time.Now}
}

// Intn returns a random int in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.fake.Rand.Intn(n)
}

// User builds the i-th user. The index keeps usernames and emails unique.
// Password holds the plain text until the seeder hashes it.
func (f *Factory) User(i int, password string) *models.User {
	username := fmt.Sprintf("%s%d", strings.ToLower(f.fake.Username()), i)
	return &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	}
}

// Post builds a post by author with zero to three tags and a creation time in
// the last maxDays days.
func (f *Factory) Post(author *models.User) *models.Post {
	tags := []string{}
	for _, i := range f.fake.Rand.Perm(len(tagPool))[:f.Intn(4)] {
		tags = append(tags, tagPool[i])
	}

	age := time.Duration(f.Intn(f.maxDays*24*60)) * time.Minute
	created := f.now().Add(-age)

	return &models.Post{
		Title:     strings.TrimSuffix(f.fake.Sentence(f.fake.Number(3, 7)), "."),
		Content:   f.fake.Paragraph(1, 3, 12, "\n\n"),
		UserID:    author.ID,
		Username:  author.Username,
		Tags:      tags,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// Comment builds a comment by author on postID.
func (f *Factory) Comment(postID uint, author *models.User) *models.Comment {
	return &models.Comment{
		PostID: postID,
		UserID: author.ID,
		Text:   f.fake.Sentence(f.fake.Number(3, 12)),
	}
}

// Pick returns up to max distinct users in random order.
func (f *Factory) Pick(users []*models.User, max int) []*models.User {
	if max > len(users) {
		max = len(users)
	}
	if max <= 0 {
		return nil
	}
	picked := make([]*models.User, 0, max)
	for _, i := range f.fake.Rand.Perm(len(users))[:f.Intn(max+1)] {
		picked = append(picked, users[i])
	}
	return picked
}
