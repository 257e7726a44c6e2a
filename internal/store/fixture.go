package store

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/incidash/internal/models"
)

// FixtureFile is the YAML layout of a ticket fixture.
type FixtureFile struct {
	Tickets []FixtureTicket `yaml:"tickets"`
}

// FixtureTicket is one ticket in a fixture. Creation time is either
// absolute (created_at) or relative to load time (created_ago, e.g. "3h").
// Resolution likewise accepts resolved_at or resolved_after, measured
// from creation.
type FixtureTicket struct {
	ID            string     `yaml:"id"`
	Title         string     `yaml:"title"`
	Priority      string     `yaml:"priority"`
	Status        string     `yaml:"status"`
	Assignee      string     `yaml:"assignee"`
	Category      string     `yaml:"category"`
	Escalated     bool       `yaml:"escalated"`
	CreatedAt     *time.Time `yaml:"created_at,omitempty"`
	CreatedAgo    string     `yaml:"created_ago,omitempty"`
	ResolvedAt    *time.Time `yaml:"resolved_at,omitempty"`
	ResolvedAfter string     `yaml:"resolved_after,omitempty"`
}

// LoadFile reads a ticket fixture from a YAML file.
func LoadFile(path string, now time.Time) ([]models.Ticket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture file: %w", err)
	}
	defer f.Close()

	return Load(f, now)
}

// Load reads a ticket fixture from r. Priority and status strings are kept
// verbatim when they are not recognised; such tickets never match a
// priority or status filter.
func Load(r io.Reader, now time.Time) ([]models.Ticket, error) {
	var file FixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse fixture YAML: %w", err)
	}

	seen := make(map[string]bool, len(file.Tickets))
	tickets := make([]models.Ticket, 0, len(file.Tickets))
	for i, ft := range file.Tickets {
		t, err := ft.toTicket(now)
		if err != nil {
			return nil, fmt.Errorf("invalid ticket at index %d: %w", i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("invalid ticket at index %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func (ft FixtureTicket) toTicket(now time.Time) (models.Ticket, error) {
	if ft.ID == "" {
		return models.Ticket{}, fmt.Errorf("id is required")
	}

	priority := models.Priority(ft.Priority)
	if p, err := models.ParsePriority(ft.Priority); err == nil {
		priority = p
	}
	status := models.Status(ft.Status)
	if s, err := models.ParseStatus(ft.Status); err == nil {
		status = s
	}

	var createdAt time.Time
	switch {
	case ft.CreatedAt != nil:
		createdAt = *ft.CreatedAt
	case ft.CreatedAgo != "":
		ago, err := time.ParseDuration(ft.CreatedAgo)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("invalid created_ago %q for %s: %w", ft.CreatedAgo, ft.ID, err)
		}
		createdAt = now.Add(-ago)
	default:
		return models.Ticket{}, fmt.Errorf("created_at or created_ago is required for %s", ft.ID)
	}

	t := models.NewTicket(ft.ID, ft.Title, priority, status, createdAt)
	t.Assignee = ft.Assignee
	t.Category = ft.Category
	t.Escalated = ft.Escalated

	switch {
	case ft.ResolvedAt != nil:
		resolved := *ft.ResolvedAt
		t.ResolvedAt = &resolved
	case ft.ResolvedAfter != "":
		after, err := time.ParseDuration(ft.ResolvedAfter)
		if err != nil {
			return models.Ticket{}, fmt.Errorf("invalid resolved_after %q for %s: %w", ft.ResolvedAfter, ft.ID, err)
		}
		resolved := createdAt.Add(after)
		t.ResolvedAt = &resolved
	}

	return t, nil
}
