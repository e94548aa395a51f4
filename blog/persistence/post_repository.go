package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/internal/clock"
	"github.com/dfryer1193/peakblog/shared/db"
	"github.com/rs/zerolog/log"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository using SQL database (SQLite).
// Keywords and audience are stored as JSON text.
type SQLitePostRepository struct {
	db    *sql.DB
	clock clock.Clock
}

// NewPostRepository creates a new SQLitePostRepository from a standard sql.DB
func NewPostRepository(db *sql.DB, clk clock.Clock) *SQLitePostRepository {
	return &SQLitePostRepository{
		db:    db,
		clock: clk,
	}
}

const upsertPostQuery = `
	INSERT INTO posts (
		id, title, description, published_date, keywords, image, audience, reading_time,
		preview_token, previous_id, next_id, content, source, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		published_date = excluded.published_date,
		keywords = excluded.keywords,
		image = excluded.image,
		audience = excluded.audience,
		reading_time = excluded.reading_time,
		preview_token = excluded.preview_token,
		previous_id = excluded.previous_id,
		next_id = excluded.next_id,
		content = excluded.content,
		source = excluded.source,
		updated_at = excluded.updated_at
`

const recordIndexRunQuery = `
	INSERT INTO index_runs (post_count, completed_at) VALUES (?, ?)
`

// ReplaceAll makes the index contain exactly the given posts, in one transaction.
func (r *SQLitePostRepository) ReplaceAll(ctx context.Context, posts []*domain.Post) error {
	now := r.clock.Now().UTC()

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)

		keep := make(map[int]bool, len(posts))
		for _, p := range posts {
			if p == nil {
				return fmt.Errorf("post cannot be nil")
			}
			if p.ID <= 0 {
				return fmt.Errorf("post ID must be positive, got %d", p.ID)
			}
			if err := r.upsert(txCtx, executor, p, now); err != nil {
				return err
			}
			keep[p.ID] = true
		}

		stale, err := r.listIDs(txCtx, executor)
		if err != nil {
			return err
		}
		for _, id := range stale {
			if keep[id] {
				continue
			}
			if _, err := executor.ExecContext(txCtx, "DELETE FROM posts WHERE id = ?", id); err != nil {
				return fmt.Errorf("failed to delete post %d: %w", id, err)
			}
		}

		if _, err := executor.ExecContext(txCtx, recordIndexRunQuery, len(posts), now); err != nil {
			return fmt.Errorf("failed to record index run: %w", err)
		}
		return nil
	})
}

func (r *SQLitePostRepository) upsert(ctx context.Context, executor db.Executor, p *domain.Post, now time.Time) error {
	keywords, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("failed to encode keywords for post %d: %w", p.ID, err)
	}
	audience, err := json.Marshal(nonNil([]string(p.Audience)))
	if err != nil {
		return fmt.Errorf("failed to encode audience for post %d: %w", p.ID, err)
	}

	_, err = executor.ExecContext(ctx, upsertPostQuery,
		p.ID,
		p.Title,
		p.Description,
		p.PublishedDate.UTC(),
		string(keywords),
		p.Image,
		string(audience),
		p.ReadingTime,
		p.PreviewToken,
		nullableID(p.Previous),
		nullableID(p.Next),
		p.Content,
		p.Source,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post %d: %w", p.ID, err)
	}
	return nil
}

func (r *SQLitePostRepository) listIDs(ctx context.Context, executor db.Executor) ([]int, error) {
	rows, err := executor.QueryContext(ctx, "SELECT id FROM posts")
	if err != nil {
		return nil, fmt.Errorf("failed to list post ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post ids: %w", err)
	}
	return ids, nil
}

const listPostsQuery = `
	SELECT id, title, description, published_date, keywords, image, audience, reading_time
	FROM posts
	ORDER BY published_date DESC, id DESC
`

// ListAllPosts returns every indexed post's summary. Rows whose stored lists
// cannot be decoded are logged and skipped.
func (r *SQLitePostRepository) ListAllPosts(ctx context.Context) ([]domain.PostSummary, error) {
	executor := db.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, listPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.PostSummary, 0)
	for rows.Next() {
		var row postRow
		err := rows.Scan(
			&row.ID,
			&row.Title,
			&row.Description,
			&row.PublishedDate,
			&row.Keywords,
			&row.Image,
			&row.Audience,
			&row.ReadingTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}

		summary, err := row.toSummary()
		if err != nil {
			log.Error().Err(err).Int("postID", row.ID).Msg("Malformed post row, skipping")
			continue
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return summaries, nil
}

const getPostQuery = `
	SELECT id, title, description, published_date, keywords, image, audience, reading_time,
		preview_token, previous_id, next_id, content, source
	FROM posts
	WHERE id = ?
`

// GetPostByID retrieves a single post by ID, whatever its publish date.
func (r *SQLitePostRepository) GetPostByID(ctx context.Context, id int) (*domain.Post, error) {
	if id <= 0 {
		return nil, domain.ErrPostNotFound
	}

	var row postRow
	err := db.GetExecutor(ctx, r.db).QueryRowContext(ctx, getPostQuery, id).Scan(
		&row.ID,
		&row.Title,
		&row.Description,
		&row.PublishedDate,
		&row.Keywords,
		&row.Image,
		&row.Audience,
		&row.ReadingTime,
		&row.PreviewToken,
		&row.Previous,
		&row.Next,
		&row.Content,
		&row.Source,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}

	post, err := row.toDomain()
	if err != nil {
		log.Error().Err(err).Int("postID", id).Msg("Malformed post row")
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

const getLatestUpdatedTimeQuery = `
	SELECT completed_at FROM index_runs ORDER BY completed_at DESC, id DESC LIMIT 1
`

// GetLatestUpdatedTime returns when the index was last rebuilt
func (r *SQLitePostRepository) GetLatestUpdatedTime(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	err := r.db.QueryRowContext(ctx, getLatestUpdatedTimeQuery).Scan(&latest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get latest updated time: %w", err)
	}

	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time, nil
}

// postRow is a private struct used to scan database rows
// and provides methods to convert to the domain model
type postRow struct {
	ID            int           `db:"id"`
	Title         string        `db:"title"`
	Description   string        `db:"description"`
	PublishedDate time.Time     `db:"published_date"`
	Keywords      string        `db:"keywords"`
	Image         string        `db:"image"`
	Audience      string        `db:"audience"`
	ReadingTime   string        `db:"reading_time"`
	PreviewToken  string        `db:"preview_token"`
	Previous      sql.NullInt64 `db:"previous_id"`
	Next          sql.NullInt64 `db:"next_id"`
	Content       string        `db:"content"`
	Source        string        `db:"source"`
}

func (pr *postRow) toSummary() (domain.PostSummary, error) {
	var keywords []string
	if err := json.Unmarshal([]byte(pr.Keywords), &keywords); err != nil {
		return domain.PostSummary{}, fmt.Errorf("invalid keywords: %w", err)
	}
	var audience []string
	if err := json.Unmarshal([]byte(pr.Audience), &audience); err != nil {
		return domain.PostSummary{}, fmt.Errorf("invalid audience: %w", err)
	}

	summary := domain.PostSummary{
		ID:            pr.ID,
		Title:         pr.Title,
		Description:   pr.Description,
		PublishedDate: pr.PublishedDate.UTC(),
		Image:         pr.Image,
		ReadingTime:   pr.ReadingTime,
	}
	if len(keywords) > 0 {
		summary.Keywords = keywords
	}
	if len(audience) > 0 {
		summary.Audience = domain.Audience(audience)
	}
	return summary, nil
}

// toDomain converts a postRow to a domain.Post, handling nullable links
func (pr *postRow) toDomain() (*domain.Post, error) {
	summary, err := pr.toSummary()
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		PostSummary:  summary,
		PreviewToken: pr.PreviewToken,
		Content:      pr.Content,
		Source:       pr.Source,
	}
	if pr.Previous.Valid {
		post.Previous = int(pr.Previous.Int64)
	}
	if pr.Next.Valid {
		post.Next = int(pr.Next.Int64)
	}
	return post, nil
}

func nullableID(id int) any {
	if id <= 0 {
		return nil
	}
	return id
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
