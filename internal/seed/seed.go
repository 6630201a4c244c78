// Package seed loads site content from a YAML file into the database.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/irrigo/irrigo/internal/banners"
	"github.com/irrigo/irrigo/internal/catalog"
	"github.com/irrigo/irrigo/internal/content/company"
	"github.com/irrigo/irrigo/internal/projects"
	"github.com/irrigo/irrigo/internal/shared"
)

// Content is the parsed seed file. Keys and field names follow the JSON API.
type Content struct {
	Products       []catalog.Input         `json:"products"`
	Projects       []projects.Input        `json:"projects"`
	Team           []company.TeamMember    `json:"team"`
	Certifications []company.Certification `json:"certifications"`
	Banners        []banners.Input         `json:"banners"`
}

// Parse reads a YAML seed file. The document is converted to JSON before
// decoding so the API's field names, decimal and time formats apply.
func Parse(r io.Reader) (Content, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Content{}, nil
		}
		return Content{}, fmt.Errorf("parse seed yaml: %w", err)
	}
	normalizeDates(raw)
	body, err := json.Marshal(raw)
	if err != nil {
		return Content{}, fmt.Errorf("convert seed yaml: %w", err)
	}
	var content Content
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&content); err != nil {
		return Content{}, fmt.Errorf("decode seed content: %w", err)
	}
	return content, nil
}

// dateFields lists, per section, the fields decoded into time.Time. YAML
// leaves timestamps untyped, so bare dates are expanded to RFC 3339.
var dateFields = map[string][]string{
	"certifications": {"issued_on", "expires_on"},
	"banners":        {"starts_at", "ends_at"},
}

func normalizeDates(raw any) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for section, fields := range dateFields {
		entries, _ := doc[section].([]any)
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			for _, field := range fields {
				s, ok := m[field].(string)
				if !ok {
					continue
				}
				if d, err := time.Parse(time.DateOnly, s); err == nil {
					m[field] = d.Format(time.RFC3339)
				}
			}
		}
	}
}

// Targets are the services the seed writes through, so validation and cache
// invalidation match the admin API.
type Targets struct {
	Products interface {
		Create(ctx context.Context, input catalog.Input) (*catalog.Product, error)
	}
	Projects interface {
		Create(ctx context.Context, input projects.Input) (*projects.Project, error)
	}
	Company interface {
		SaveMember(ctx context.Context, m company.TeamMember) (*company.TeamMember, error)
		SaveCertification(ctx context.Context, c company.Certification) (*company.Certification, error)
	}
	Banners interface {
		Create(ctx context.Context, input banners.Input) (*banners.Banner, error)
	}
}

// Report counts what Apply created and skipped.
type Report struct {
	Created map[string]int
	Skipped map[string]int
}

// Apply writes content. Products and projects whose slug already exists are
// skipped, so re-running a seed file is safe for them.
func Apply(ctx context.Context, t Targets, c Content, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := Report{Created: map[string]int{}, Skipped: map[string]int{}}
	record := func(section, label string, err error) error {
		switch {
		case err == nil:
			report.Created[section]++
			return nil
		case errors.Is(err, shared.ErrDuplicate):
			report.Skipped[section]++
			logger.Info("seed entry exists, skipping", slog.String("section", section), slog.String("entry", label))
			return nil
		default:
			return fmt.Errorf("seed %s %q: %w", section, label, err)
		}
	}

	for _, p := range c.Products {
		_, err := t.Products.Create(ctx, p)
		if err := record("products", p.Slug, err); err != nil {
			return report, err
		}
	}
	for _, p := range c.Projects {
		_, err := t.Projects.Create(ctx, p)
		if err := record("projects", p.Slug, err); err != nil {
			return report, err
		}
	}
	for _, m := range c.Team {
		m.ID = 0
		_, err := t.Company.SaveMember(ctx, m)
		if err := record("team", m.Name, err); err != nil {
			return report, err
		}
	}
	for _, cert := range c.Certifications {
		cert.ID = 0
		_, err := t.Company.SaveCertification(ctx, cert)
		if err := record("certifications", cert.Name, err); err != nil {
			return report, err
		}
	}
	for _, b := range c.Banners {
		_, err := t.Banners.Create(ctx, b)
		if err := record("banners", b.Message, err); err != nil {
			return report, err
		}
	}
	return report, nil
}
