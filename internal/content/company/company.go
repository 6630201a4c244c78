// Package company manages the team and certification pages.
package company

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

// TeamMember is a person shown on the about page.
type TeamMember struct {
	ID       int64  `json:"id"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"max=120"`
	Bio      string `json:"bio" validate:"max=4000"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
	Position int    `json:"position" validate:"gte=0"`
}

// Certification is an accreditation the company holds.
type Certification struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name" validate:"required,max=200"`
	Issuer      string     `json:"issuer" validate:"max=200"`
	IssuedOn    *time.Time `json:"issued_on"`
	ExpiresOn   *time.Time `json:"expires_on"`
	DocumentURL string     `json:"document_url" validate:"omitempty,url"`
	Position    int        `json:"position" validate:"gte=0"`
}

// Valid reports whether the certification has not expired at now.
func (c Certification) Valid(now time.Time) bool {
	return c.ExpiresOn == nil || !c.ExpiresOn.Before(now)
}

// Repository persists team members and certifications.
type Repository interface {
	Team(ctx context.Context) ([]TeamMember, error)
	SaveMember(ctx context.Context, m TeamMember) (*TeamMember, error)
	DeleteMember(ctx context.Context, id int64) error
	Certifications(ctx context.Context) ([]Certification, error)
	SaveCertification(ctx context.Context, c Certification) (*Certification, error)
	DeleteCertification(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) Team(ctx context.Context) ([]TeamMember, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, role, bio, photo_url, position FROM team_members ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	defer rows.Close()
	out := []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Bio, &m.PhotoURL, &m.Position); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveMember inserts when m.ID is zero and updates otherwise.
func (r *repository) SaveMember(ctx context.Context, m TeamMember) (*TeamMember, error) {
	var row pgx.Row
	if m.ID == 0 {
		row = r.db.QueryRow(ctx, `
INSERT INTO team_members (name, role, bio, photo_url, position) VALUES ($1, $2, $3, $4, $5)
RETURNING id`, m.Name, m.Role, m.Bio, m.PhotoURL, m.Position)
	} else {
		row = r.db.QueryRow(ctx, `
UPDATE team_members SET name = $2, role = $3, bio = $4, photo_url = $5, position = $6 WHERE id = $1
RETURNING id`, m.ID, m.Name, m.Role, m.Bio, m.PhotoURL, m.Position)
	}
	if err := row.Scan(&m.ID); err != nil {
		return nil, db.Translate(err)
	}
	return &m, nil
}

func (r *repository) DeleteMember(ctx context.Context, id int64) error {
	return r.deleteFrom(ctx, "team_members", id)
}

func (r *repository) Certifications(ctx context.Context) ([]Certification, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, name, issuer, issued_on, expires_on, document_url, position
FROM certifications ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	defer rows.Close()
	out := []Certification{}
	for rows.Next() {
		var c Certification
		if err := rows.Scan(&c.ID, &c.Name, &c.Issuer, &c.IssuedOn, &c.ExpiresOn, &c.DocumentURL, &c.Position); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCertification inserts when c.ID is zero and updates otherwise.
func (r *repository) SaveCertification(ctx context.Context, c Certification) (*Certification, error) {
	var row pgx.Row
	if c.ID == 0 {
		row = r.db.QueryRow(ctx, `
INSERT INTO certifications (name, issuer, issued_on, expires_on, document_url, position)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`, c.Name, c.Issuer, c.IssuedOn, c.ExpiresOn, c.DocumentURL, c.Position)
	} else {
		row = r.db.QueryRow(ctx, `
UPDATE certifications SET name = $2, issuer = $3, issued_on = $4, expires_on = $5, document_url = $6, position = $7
WHERE id = $1 RETURNING id`, c.ID, c.Name, c.Issuer, c.IssuedOn, c.ExpiresOn, c.DocumentURL, c.Position)
	}
	if err := row.Scan(&c.ID); err != nil {
		return nil, db.Translate(err)
	}
	return &c, nil
}

func (r *repository) DeleteCertification(ctx context.Context, id int64) error {
	return r.deleteFrom(ctx, "certifications", id)
}

func (r *repository) deleteFrom(ctx context.Context, table string, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return db.Translate(pgx.ErrNoRows)
	}
	return nil
}

// Service validates company content before it is stored.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Team lists members by position.
func (s *Service) Team(ctx context.Context) ([]TeamMember, error) {
	return s.repo.Team(ctx)
}

// SaveMember validates and stores a team member.
func (s *Service) SaveMember(ctx context.Context, m TeamMember) (*TeamMember, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Role = strings.TrimSpace(m.Role)
	if err := httpx.Validate(m); err != nil {
		return nil, err
	}
	return s.repo.SaveMember(ctx, m)
}

// DeleteMember removes a team member.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	return s.repo.DeleteMember(ctx, id)
}

// Certifications lists certifications by position.
func (s *Service) Certifications(ctx context.Context) ([]Certification, error) {
	return s.repo.Certifications(ctx)
}

// SaveCertification validates and stores a certification.
func (s *Service) SaveCertification(ctx context.Context, c Certification) (*Certification, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := httpx.Validate(c); err != nil {
		return nil, err
	}
	if c.IssuedOn != nil && c.ExpiresOn != nil && c.ExpiresOn.Before(*c.IssuedOn) {
		return nil, shared.FieldErrors{"expires_on": "must not be before issued_on"}
	}
	return s.repo.SaveCertification(ctx, c)
}

// DeleteCertification removes a certification.
func (s *Service) DeleteCertification(ctx context.Context, id int64) error {
	return s.repo.DeleteCertification(ctx, id)
}
