package application

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dfryer1193/peakblog/blog/domain"
	"gopkg.in/yaml.v3"
)

const wordsPerMinute = 200

var (
	frontMatterDelimiter = []byte("---")
	publishedDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

	errNoFrontMatter      = errors.New("missing front matter")
	errUnterminatedHeader = errors.New("front matter is not terminated")
	errMissingID          = errors.New("front matter has no id")
	errMissingPublishDate = errors.New("front matter has no publishedDate")
)

// frontMatter is the metadata header of a content unit.
type frontMatter struct {
	ID            *int            `yaml:"id"`
	Title         string          `yaml:"title"`
	Description   string          `yaml:"description"`
	PublishedDate publishedDate   `yaml:"publishedDate"`
	Keywords      []string        `yaml:"keywords"`
	Image         string          `yaml:"image"`
	Audience      domain.Audience `yaml:"audience"`
	PreviewToken  string          `yaml:"previewToken"`
	Previous      *int            `yaml:"previous"`
	Next          *int            `yaml:"next"`
}

// publishedDate accepts bare dates and full timestamps. Bare dates are midnight UTC.
type publishedDate struct {
	time.Time
}

func (d *publishedDate) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if raw == "" || value.ShortTag() == "!!null" {
		return nil
	}

	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid publishedDate %q", raw)
}

// ParseUnit converts a raw content unit into a Post. Any problem with the header
// makes the whole unit malformed.
func ParseUnit(name string, raw []byte) (*domain.Post, error) {
	header, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("%s: failed to parse front matter: %w", name, err)
	}

	if fm.ID == nil {
		return nil, fmt.Errorf("%s: %w", name, errMissingID)
	}
	if *fm.ID <= 0 {
		return nil, fmt.Errorf("%s: id must be positive, got %d", name, *fm.ID)
	}
	if fm.PublishedDate.IsZero() {
		return nil, fmt.Errorf("%s: %w", name, errMissingPublishDate)
	}

	content := string(body)

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = extractPostTitle(body)
	}

	description := strings.TrimSpace(fm.Description)
	if description == "" {
		description = extractSnippet(body)
	}

	keywords := make([]string, 0, len(fm.Keywords))
	for _, k := range fm.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	post := &domain.Post{
		PostSummary: domain.PostSummary{
			ID:            *fm.ID,
			Title:         title,
			Description:   description,
			PublishedDate: fm.PublishedDate.Time,
			Keywords:      keywords,
			Image:         strings.TrimSpace(fm.Image),
			Audience:      fm.Audience,
			ReadingTime:   ReadingTime(content),
		},
		PreviewToken: fm.PreviewToken,
		Content:      content,
		Source:       name,
	}
	if fm.Previous != nil && *fm.Previous > 0 {
		post.Previous = *fm.Previous
	}
	if fm.Next != nil && *fm.Next > 0 {
		post.Next = *fm.Next
	}

	return post, nil
}

// splitFrontMatter separates the YAML header between the leading `---` lines from the markdown body.
func splitFrontMatter(raw []byte) (header []byte, body []byte, err error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	firstLine, rest, _ := bytes.Cut(raw, []byte("\n"))
	if !bytes.Equal(bytes.TrimSpace(firstLine), frontMatterDelimiter) {
		return nil, nil, errNoFrontMatter
	}

	offset := 0
	for {
		line, remaining, found := bytes.Cut(rest[offset:], []byte("\n"))
		if bytes.Equal(bytes.TrimRight(line, " \t"), frontMatterDelimiter) {
			header = rest[:offset]
			body = bytes.TrimLeft(remaining, "\n")
			return header, body, nil
		}
		if !found {
			return nil, nil, errUnterminatedHeader
		}
		offset += len(line) + 1
	}
}

// ReadingTime estimates how long the content takes to read at 200 words per minute.
// Only empty content reads in under a minute; whitespace counts as one word.
func ReadingTime(content string) string {
	if content == "" {
		return "< 1 min read"
	}
	words := max(len(strings.Fields(content)), 1)

	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	return fmt.Sprintf("%d min read", minutes)
}
