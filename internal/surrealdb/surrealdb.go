package surrealdb

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/config"
	"github.com/kevinmichaelchen/portfolio/internal/models"
	sdk "github.com/surrealdb/surrealdb.go"
)

// Project is a stored repository plus its generated summary.
type Project struct {
	FullName    string   `json:"full_name"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	URL         string   `json:"url"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	AISummary   *string  `json:"ai_summary"`
}

type Client struct {
	db *sdk.DB
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	db, err := sdk.FromEndpointURLString(ctx, cfg.SurrealURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, sdk.Auth{
		Namespace: cfg.SurrealNS,
		Database:  cfg.SurrealDB,
		Username:  cfg.SurrealUser,
		Password:  cfg.SurrealPass,
	}); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("signing in: %w", err)
	}

	if err := db.Use(ctx, cfg.SurrealNS, cfg.SurrealDB); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("selecting ns/db: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close(ctx)
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
DEFINE TABLE IF NOT EXISTS project SCHEMAFULL;

DEFINE FIELD IF NOT EXISTS github_id    ON TABLE project TYPE int;
DEFINE FIELD IF NOT EXISTS name         ON TABLE project TYPE string;
DEFINE FIELD IF NOT EXISTS full_name    ON TABLE project TYPE string;
DEFINE FIELD IF NOT EXISTS description  ON TABLE project TYPE option<string>;
DEFINE FIELD IF NOT EXISTS url          ON TABLE project TYPE string;
DEFINE FIELD IF NOT EXISTS language     ON TABLE project TYPE option<string>;
DEFINE FIELD IF NOT EXISTS topics       ON TABLE project TYPE array<string>;
DEFINE FIELD IF NOT EXISTS stars        ON TABLE project TYPE int;
DEFINE FIELD IF NOT EXISTS forks        ON TABLE project TYPE int;
DEFINE FIELD IF NOT EXISTS updated_at   ON TABLE project TYPE option<string>;
DEFINE FIELD IF NOT EXISTS ai_summary   ON TABLE project TYPE option<string>;
DEFINE FIELD IF NOT EXISTS archived_at  ON TABLE project TYPE datetime;
DEFINE FIELD IF NOT EXISTS enriched_at  ON TABLE project TYPE option<datetime>;

DEFINE INDEX IF NOT EXISTS idx_full_name ON TABLE project FIELDS full_name UNIQUE;
`
	_, err := sdk.Query[any](ctx, c.db, schema, nil)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// RecordID derives the SurrealDB record id from a full repository name.
func RecordID(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "__")
}

func (c *Client) UpsertProject(ctx context.Context, r models.RepositoryRecord) error {
	// Only non-nil optional fields go into the map to avoid the
	// CBOR NULL vs SurrealDB NONE mismatch.
	data := map[string]any{
		"github_id":   r.ID,
		"name":        r.Name,
		"full_name":   r.FullName,
		"url":         r.URL,
		"stars":       r.Stars,
		"forks":       r.Forks,
		"archived_at": time.Now().UTC(),
	}
	if r.Description != nil {
		data["description"] = *r.Description
	}
	if r.Language != nil {
		data["language"] = *r.Language
	}
	if r.UpdatedAt != "" {
		data["updated_at"] = r.UpdatedAt
	}
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	data["topics"] = topics

	_, err := sdk.Query[any](ctx, c.db,
		`UPSERT type::thing("project", $id) MERGE $data`,
		map[string]any{
			"id":   RecordID(r.FullName),
			"data": data,
		})
	if err != nil {
		return fmt.Errorf("upserting %s: %w", r.FullName, err)
	}
	return nil
}

// GetProjectsNeedingSummary returns projects with neither a description
// nor a generated summary.
func (c *Client) GetProjectsNeedingSummary(ctx context.Context) ([]Project, error) {
	results, err := sdk.Query[[]Project](ctx, c.db,
		`SELECT * FROM project WHERE description IS NONE AND ai_summary IS NONE`, nil)
	if err != nil {
		return nil, fmt.Errorf("querying projects needing summary: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

func (c *Client) UpdateSummary(ctx context.Context, fullName, summary string) error {
	_, err := sdk.Query[any](ctx, c.db,
		`UPDATE project SET
			ai_summary = $ai_summary,
			enriched_at = time::now()
		WHERE full_name = $full_name`,
		map[string]any{
			"full_name":  fullName,
			"ai_summary": summary,
		})
	if err != nil {
		return fmt.Errorf("updating summary for %s: %w", fullName, err)
	}
	return nil
}

type Stats struct {
	Total    int
	Enriched int
	Stars    int
}

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	results, err := sdk.Query[[]map[string]any](ctx, c.db,
		`SELECT
			count() AS total,
			math::sum(IF ai_summary IS NOT NONE THEN 1 ELSE 0 END) AS enriched,
			math::sum(stars) AS stars
		FROM project GROUP ALL`,
		nil)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	if len(*results) == 0 || len((*results)[0].Result) == 0 {
		return &Stats{}, nil
	}
	row := (*results)[0].Result[0]
	return &Stats{
		Total:    toInt(row["total"]),
		Enriched: toInt(row["enriched"]),
		Stars:    toInt(row["stars"]),
	}, nil
}

type LanguageCount struct {
	Language string
	Count    int
}

func (c *Client) GetLanguageBreakdown(ctx context.Context) ([]LanguageCount, error) {
	results, err := sdk.Query[[]Project](ctx, c.db,
		`SELECT language FROM project WHERE language IS NOT NONE`, nil)
	if err != nil {
		return nil, fmt.Errorf("getting languages: %w", err)
	}
	if len(*results) == 0 {
		return nil, nil
	}
	return CountLanguages((*results)[0].Result), nil
}

// CountLanguages tallies projects per primary language, most used first.
// Ties are ordered by name.
func CountLanguages(projects []Project) []LanguageCount {
	index := map[string]int{}
	var out []LanguageCount
	for _, p := range projects {
		if p.Language == nil {
			continue
		}
		i, seen := index[*p.Language]
		if !seen {
			i = len(out)
			index[*p.Language] = i
			out = append(out, LanguageCount{Language: *p.Language})
		}
		out[i].Count++
	}
	slices.SortFunc(out, func(a, b LanguageCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(a.Language, b.Language)
	})
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	default:
		return 0
	}
}
