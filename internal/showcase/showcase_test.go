package showcase

import (
	"context"
	"testing"

	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	pinned []models.RepositoryRecord
	all    []models.RepositoryRecord
	snap   *models.Snapshot
	calls  []string
}

func (f *fakeProvider) FetchPinnedOrFeatured(context.Context) []models.RepositoryRecord {
	f.calls = append(f.calls, "pinned")
	return f.pinned
}

func (f *fakeProvider) FetchAll(_ context.Context, sort models.SortBy) []models.RepositoryRecord {
	f.calls = append(f.calls, "all:"+string(sort))
	return f.all
}

func (f *fakeProvider) FetchFallbackSnapshot(context.Context) *models.Snapshot {
	f.calls = append(f.calls, "snapshot")
	return f.snap
}

func repo(name, lang string, stars int) models.RepositoryRecord {
	r := models.RepositoryRecord{Name: name, Stars: stars}
	if lang != "" {
		r.Language = &lang
	}
	return r
}

func TestLoadProjects_Tiers(t *testing.T) {
	t.Parallel()

	one := []models.RepositoryRecord{repo("a", "Go", 1)}

	tests := []struct {
		name      string
		provider  *fakeProvider
		wantTier  Tier
		wantCalls []string
		wantLen   int
	}{
		{
			name:      "pinned answers",
			provider:  &fakeProvider{pinned: one},
			wantTier:  TierPinned,
			wantCalls: []string{"pinned"},
			wantLen:   1,
		},
		{
			name:      "falls through to full list",
			provider:  &fakeProvider{pinned: []models.RepositoryRecord{}, all: one},
			wantTier:  TierAll,
			wantCalls: []string{"pinned", "all:stars"},
			wantLen:   1,
		},
		{
			name:      "falls through to snapshot",
			provider:  &fakeProvider{snap: &models.Snapshot{PinnedRepositories: one}},
			wantTier:  TierSnapshot,
			wantCalls: []string{"pinned", "all:stars", "snapshot"},
			wantLen:   1,
		},
		{
			name:      "nothing anywhere",
			provider:  &fakeProvider{},
			wantTier:  TierNone,
			wantCalls: []string{"pinned", "all:stars", "snapshot"},
			wantLen:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, tier := LoadProjects(context.Background(), tt.provider)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.wantCalls, tt.provider.calls)
			assert.Len(t, got, tt.wantLen)
			assert.NotNil(t, got)
		})
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	repos := []models.RepositoryRecord{
		repo("api", "Go", 30),
		repo("site", "TypeScript", 11),
		repo("notes", "", 50),
		repo("tool", "go", 10),
	}

	assert.Len(t, Filter(repos, "all"), 4)
	assert.Len(t, Filter(repos, ""), 4)

	featured := Filter(repos, "featured")
	assert.Equal(t, []string{"api", "site", "notes"}, namesOf(featured))

	assert.Equal(t, []string{"api", "tool"}, namesOf(Filter(repos, "GO")))
	assert.Empty(t, Filter(repos, "Rust"))
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	repos := []models.RepositoryRecord{
		repo("a", "Go", 1),
		repo("b", "", 1),
		repo("c", "TypeScript", 1),
		repo("d", "Go", 1),
	}
	assert.Equal(t, []string{"Go", "TypeScript"}, Languages(repos))
	assert.Equal(t, []string{}, Languages(nil))
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024年1月15日", FormatDate("2024-01-15T10:00:00Z"))
	// 20:00 UTC is already the next day in Japan.
	assert.Equal(t, "2024年1月16日", FormatDate("2024-01-15T20:00:00Z"))
	assert.Equal(t, "yesterday", FormatDate("yesterday"))
}

func namesOf(repos []models.RepositoryRecord) []string {
	out := make([]string, len(repos))
	for i, r := range repos {
		out[i] = r.Name
	}
	return out
}
