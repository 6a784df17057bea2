package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"miniblog/internal/models"

	"gopkg.in/yaml.v3"
)

// Fixtures is a hand-written data set, usually loaded from a YAML file:
//
//	users:
//	  - username: alice
//	posts:
//	  - author: alice
//	    title: Hello
//	    tags: [go, web]
//	    likes: [bob]
//	    comments:
//	      - author: bob
//	        text: Nice one
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Posts []PostFixture `yaml:"posts"`
}

// UserFixture describes one account. Email defaults to <username>@example.com
// and Password to the seeder password.
type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type PostFixture struct {
	Author   string           `yaml:"author"`
	Title    string           `yaml:"title"`
	Content  string           `yaml:"content"`
	Tags     []string         `yaml:"tags"`
	Likes    []string         `yaml:"likes"`
	Comments []CommentFixture `yaml:"comments"`
}

type CommentFixture struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// LoadFixtures reads and parses a YAML fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures, rejecting unknown keys.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, u := range fx.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("fixture user %d: username is required", i)
		}
	}
	for i, p := range fx.Posts {
		if p.Author == "" || p.Title == "" {
			return nil, fmt.Errorf("fixture post %d: author and title are required", i)
		}
	}
	return &fx, nil
}

// ApplyFixtures creates the fixture users, then their posts, likes and comments.
// Authors and likers must be fixture users.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (*Summary, error) {
	byName := make(map[string]*models.User, len(fx.Users))
	summary := &Summary{}

	for _, u := range fx.Users {
		user := &models.User{Username: u.Username, Email: u.Email, Password: u.Password}
		if user.Email == "" {
			user.Email = u.Username + "@example.com"
		}
		if user.Password == "" {
			user.Password = s.opts.Password
		}
		if err := s.createUser(ctx, user); err != nil {
			return summary, err
		}
		byName[user.Username] = user
		summary.Users++
	}

	lookup := func(name string) (*models.User, error) {
		user, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown fixture user %q", name)
		}
		return user, nil
	}

	for _, p := range fx.Posts {
		author, err := lookup(p.Author)
		if err != nil {
			return summary, err
		}
		post := &models.Post{
			Title:    p.Title,
			Content:  p.Content,
			UserID:   author.ID,
			Username: author.Username,
			Tags:     p.Tags,
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return summary, fmt.Errorf("create post %q: %w", p.Title, err)
		}
		summary.Posts++

		for _, name := range p.Likes {
			liker, err := lookup(name)
			if err != nil {
				return summary, err
			}
			liked, err := s.posts.ToggleLike(ctx, post.ID, liker.ID)
			if err != nil {
				return summary, fmt.Errorf("like post %q: %w", p.Title, err)
			}
			if liked {
				summary.Likes++
			}
		}

		for _, c := range p.Comments {
			commenter, err := lookup(c.Author)
			if err != nil {
				return summary, err
			}
			comment := &models.Comment{PostID: post.ID, UserID: commenter.ID, Text: c.Text}
			if err := s.posts.AddComment(ctx, comment); err != nil {
				return summary, fmt.Errorf("comment on post %q: %w", p.Title, err)
			}
			summary.Comments++
		}
	}
	return summary, nil
}
