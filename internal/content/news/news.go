// Package news manages news articles and their view and like counters.
package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irrigo/irrigo/internal/platform/db"
	"github.com/irrigo/irrigo/internal/platform/httpx"
	"github.com/irrigo/irrigo/internal/shared"
)

// Article is a news post.
type Article struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body"`
	CoverURL    string     `json:"cover_url"`
	Author      string     `json:"author"`
	Views       int64      `json:"views"`
	Likes       int64      `json:"likes"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Input is the writable part of an article. Publishing stamps published_at
// the first time only.
type Input struct {
	Slug      string `json:"slug" validate:"required,slug,max=160"`
	Title     string `json:"title" validate:"required,max=200"`
	Excerpt   string `json:"excerpt" validate:"max=600"`
	Body      string `json:"body" validate:"max=100000"`
	CoverURL  string `json:"cover_url" validate:"omitempty,url"`
	Author    string `json:"author" validate:"max=120"`
	Published bool   `json:"published"`
}

// Filter narrows an article listing.
type Filter struct {
	Search        string
	PublishedOnly bool
	Page          int
	PerPage       int
}

// Repository persists articles.
type Repository interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]Article, int, error)
	Get(ctx context.Context, id int64) (*Article, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*Article, error)
	Create(ctx context.Context, input Input) (*Article, error)
	Update(ctx context.Context, id int64, input Input) (*Article, error)
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) (int64, error)
	IncrementLikes(ctx context.Context, id int64) (int64, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectArticle = `
SELECT id, slug, title, excerpt, body, cover_url, author, views, likes, published, published_at,
       created_at, updated_at
FROM news_articles`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	if err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Excerpt, &a.Body, &a.CoverURL, &a.Author, &a.Views,
		&a.Likes, &a.Published, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, filter Filter, limit, offset int) ([]Article, int, error) {
	var conditions []string
	var args []any
	if filter.PublishedOnly {
		conditions = append(conditions, "published")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%[1]d OR excerpt ILIKE $%[1]d)", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM news_articles"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}
	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx, fmt.Sprintf("%s%s ORDER BY COALESCE(published_at, created_at) DESC, id DESC LIMIT $%d OFFSET $%d",
		selectArticle, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	out := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Article, error) {
	return scanArticle(r.db.QueryRow(ctx, selectArticle+" WHERE id = $1", id))
}

func (r *repository) GetPublishedBySlug(ctx context.Context, slug string) (*Article, error) {
	return scanArticle(r.db.QueryRow(ctx, selectArticle+" WHERE slug = $1 AND published", slug))
}

func (r *repository) Create(ctx context.Context, in Input) (*Article, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO news_articles (slug, title, excerpt, body, cover_url, author, published, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $7 THEN NOW() END)
RETURNING id`, in.Slug, in.Title, in.Excerpt, in.Body, in.CoverURL, in.Author, in.Published).Scan(&id)
	if err != nil {
		return nil, db.Translate(err)
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, in Input) (*Article, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE news_articles
SET slug = $2, title = $3, excerpt = $4, body = $5, cover_url = $6, author = $7, published = $8,
    published_at = CASE WHEN $8 THEN COALESCE(published_at, NOW()) ELSE published_at END,
    updated_at = NOW()
WHERE id = $1`, id, in.Slug, in.Title, in.Excerpt, in.Body, in.CoverURL, in.Author, in.Published)
	if err != nil {
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, db.Translate(pgx.ErrNoRows)
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM news_articles WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows)
	}
	return nil
}

func (r *repository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := r.db.QueryRow(ctx, `UPDATE news_articles SET views = views + 1 WHERE id = $1 AND published RETURNING views`, id).Scan(&views)
	return views, db.Translate(err)
}

func (r *repository) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	var likes int64
	err := r.db.QueryRow(ctx, `UPDATE news_articles SET likes = likes + 1 WHERE id = $1 AND published RETURNING likes`, id).Scan(&likes)
	return likes, db.Translate(err)
}

// Events receives counter increments for metrics.
type Events interface {
	ContentEvent(kind, event string)
}

// Service holds article business rules.
type Service struct {
	repo   Repository
	events Events
}

// NewService constructs a Service. events may be nil.
func NewService(repo Repository, events Events) *Service {
	return &Service{repo: repo, events: events}
}

// List returns one page of articles, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Article, shared.Pagination, error) {
	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	items, total, err := s.repo.List(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if items == nil {
		items = []Article{}
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get returns any article by id.
func (s *Service) Get(ctx context.Context, id int64) (*Article, error) {
	return s.repo.Get(ctx, id)
}

// GetBySlug returns a published article.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Article, error) {
	return s.repo.GetPublishedBySlug(ctx, strings.ToLower(slug))
}

// RecordView increments the view counter and returns the new value.
func (s *Service) RecordView(ctx context.Context, id int64) (int64, error) {
	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		return 0, err
	}
	s.emit("view")
	return views, nil
}

// Like increments the like counter and returns the new value.
func (s *Service) Like(ctx context.Context, id int64) (int64, error) {
	likes, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, err
	}
	s.emit("like")
	return likes, nil
}

func (s *Service) emit(event string) {
	if s.events != nil {
		s.events.ContentEvent("news", event)
	}
}

// Create validates and stores an article.
func (s *Service) Create(ctx context.Context, input Input) (*Article, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// Update validates and overwrites an article.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Article, error) {
	input = normalize(input)
	if err := httpx.Validate(input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes an article.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) Input {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	return in
}
