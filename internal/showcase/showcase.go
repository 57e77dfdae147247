// Package showcase decides which projects the portfolio page lists and how
// they are filtered for display.
package showcase

import (
	"context"
	"strings"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/models"
)

// FeaturedMinStars is the star count a project needs to pass the
// "featured" filter.
const FeaturedMinStars = 10

// Tier names the data source a project list came from.
type Tier string

const (
	TierPinned   Tier = "pinned"
	TierAll      Tier = "all"
	TierSnapshot Tier = "snapshot"
	TierNone     Tier = "none"
)

// Provider is the data source the page reads from.
type Provider interface {
	FetchPinnedOrFeatured(ctx context.Context) []models.RepositoryRecord
	FetchAll(ctx context.Context, sort models.SortBy) []models.RepositoryRecord
	FetchFallbackSnapshot(ctx context.Context) *models.Snapshot
}

// LoadProjects walks the fallback tiers in order: pinned, everything by
// stars, then the static snapshot. A tier is only consulted once the
// previous one came back empty.
func LoadProjects(ctx context.Context, p Provider) ([]models.RepositoryRecord, Tier) {
	if repos := p.FetchPinnedOrFeatured(ctx); len(repos) > 0 {
		return repos, TierPinned
	}
	if repos := p.FetchAll(ctx, models.SortStars); len(repos) > 0 {
		return repos, TierAll
	}
	if snap := p.FetchFallbackSnapshot(ctx); snap != nil && len(snap.PinnedRepositories) > 0 {
		return snap.PinnedRepositories, TierSnapshot
	}
	return []models.RepositoryRecord{}, TierNone
}

// Filter applies the page's filter buttons: "all" (or empty) keeps
// everything, "featured" keeps projects above FeaturedMinStars, anything
// else is matched case-insensitively against the primary language.
func Filter(repos []models.RepositoryRecord, filter string) []models.RepositoryRecord {
	out := []models.RepositoryRecord{}
	for _, r := range repos {
		switch {
		case filter == "" || filter == "all":
		case filter == "featured":
			if r.Stars <= FeaturedMinStars {
				continue
			}
		default:
			if r.Language == nil || !strings.EqualFold(*r.Language, filter) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Languages lists distinct primary languages in first-seen order.
func Languages(repos []models.RepositoryRecord) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range repos {
		if r.Language == nil || *r.Language == "" || seen[*r.Language] {
			continue
		}
		seen[*r.Language] = true
		out = append(out, *r.Language)
	}
	return out
}

var jst = time.FixedZone("JST", 9*60*60)

// FormatDate renders an ISO-8601 timestamp as a Japanese date, e.g.
// 2024年1月15日. Unparseable input is returned unchanged.
func FormatDate(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.In(jst).Format("2006年1月2日")
}
