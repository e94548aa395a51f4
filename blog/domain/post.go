package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrPostNotFound is returned when a post does not exist or its content unit could not be parsed.
// Callers never learn which of the two happened.
var ErrPostNotFound = errors.New("post not found")

// Audience is the intended readership of a post. Authors may write it as a single string or as a list.
type Audience []string

// UnmarshalYAML accepts both `audience: "Everyone"` and a sequence of strings.
func (a *Audience) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" || strings.TrimSpace(value.Value) == "" {
			*a = nil
			return nil
		}
		*a = Audience{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*a = Audience(items)
		return nil
	default:
		return errors.New("audience must be a string or a list of strings")
	}
}

// String joins the audience for display.
func (a Audience) String() string {
	return strings.Join(a, ", ")
}

// PostSummary is the listing view of a post. It never carries the body or the preview token.
type PostSummary struct {
	ID            int
	Title         string
	Description   string
	PublishedDate time.Time
	Keywords      []string
	Image         string
	Audience      Audience
	ReadingTime   string
}

// Post is a full content unit.
// Previous and Next link posts into a curated series; zero means no link.
type Post struct {
	PostSummary

	PreviewToken string
	Previous     int
	Next         int
	Content      string

	// Source names the content unit the post was loaded from.
	Source string
}

// Summary returns the listing view of the post.
func (p *Post) Summary() PostSummary {
	s := p.PostSummary
	s.Keywords = append([]string(nil), p.Keywords...)
	s.Audience = append(Audience(nil), p.Audience...)
	return s
}

// PostStore provides read-only access to posts. It knows nothing about visibility:
// future posts are returned like any other.
type PostStore interface {
	// ListAllPosts returns every well-formed post in unspecified order.
	ListAllPosts(ctx context.Context) ([]PostSummary, error)

	// GetPostByID returns ErrPostNotFound when the id is unknown or its unit is malformed.
	GetPostByID(ctx context.Context, id int) (*Post, error)
}

// PostRepository is an indexed PostStore that can be rebuilt from a content source.
type PostRepository interface {
	PostStore

	// ReplaceAll makes the repository contain exactly the given posts.
	ReplaceAll(ctx context.Context, posts []*Post) error

	// GetLatestUpdatedTime returns when the index was last written, or the zero time.
	GetLatestUpdatedTime(ctx context.Context) (time.Time, error)
}
