// Package provider resolves the project data shown on the portfolio site.
//
// Every public operation reads through a TTL cache and degrades to an empty
// or nil result instead of returning an error, so a page can always render.
// The ...Result variants expose the underlying failure for callers that
// need to tell "fetch failed" apart from "nothing there".
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/cache"
	"github.com/kevinmichaelchen/portfolio/internal/models"
)

const (
	// TTL is how long a fetched payload is served from the cache.
	TTL = 5 * time.Minute
	// FeaturedCount is how many of the most-starred repositories stand in
	// for pinned ones.
	FeaturedCount = 6
)

var (
	ErrNoSnapshot = errors.New("no fallback snapshot configured")
	ErrPrivate    = errors.New("repository is private")
)

// Source is the remote API tier.
type Source interface {
	PinnedRepos(ctx context.Context, handle string) ([]models.RepositoryRecord, error)
	ListRepos(ctx context.Context, handle string, sort models.SortBy) ([]models.RepositoryRecord, error)
	GetUser(ctx context.Context, handle string) (*models.UserProfile, error)
	GetRepo(ctx context.Context, handle, name string) (*models.RepositoryRecord, error)
}

// SnapshotLoader reads the static fallback document.
type SnapshotLoader interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// Result is either fetched data or the reason the fetch failed.
type Result[T any] struct {
	Value  T
	Err    error
	Cached bool
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Provider fetches data for a single account. It is safe for concurrent
// use; concurrent misses on the same key each go to the remote API.
type Provider struct {
	source    Source
	snapshots SnapshotLoader
	cache     *cache.Cache
	handle    string
	logger    *slog.Logger
}

// New builds a Provider. snapshots may be nil, in which case the fallback
// snapshot is always absent. A nil cache gets a private one with the
// default TTL.
func New(source Source, snapshots SnapshotLoader, c *cache.Cache, handle string, logger *slog.Logger) *Provider {
	if c == nil {
		c = cache.New(TTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		source:    source,
		snapshots: snapshots,
		cache:     c,
		handle:    handle,
		logger:    logger.With("handle", handle),
	}
}

func (p *Provider) Handle() string {
	return p.handle
}

// FetchPinnedOrFeatured returns the pinned repositories, or the
// FeaturedCount most-starred ones when pins are unavailable. The result is
// empty when both tiers fail.
func (p *Provider) FetchPinnedOrFeatured(ctx context.Context) []models.RepositoryRecord {
	res := p.FetchPinnedOrFeaturedResult(ctx)
	if res.Err != nil {
		p.logger.Warn("fetching pinned repositories failed", "error", res.Err)
		return []models.RepositoryRecord{}
	}
	return res.Value
}

func (p *Provider) FetchPinnedOrFeaturedResult(ctx context.Context) Result[[]models.RepositoryRecord] {
	key := pinnedKey(p.handle)
	if repos, ok := lookup[[]models.RepositoryRecord](p.cache, key); ok {
		return Result[[]models.RepositoryRecord]{Value: models.CloneRecords(repos), Cached: true}
	}

	pins, err := p.source.PinnedRepos(ctx, p.handle)
	if err != nil {
		p.logger.Debug("pin tier unavailable, using most-starred repositories", "error", err)
	} else if pins = models.PublicOnly(pins); len(pins) > 0 {
		p.cache.Set(key, models.CloneRecords(pins))
		return Result[[]models.RepositoryRecord]{Value: pins}
	}

	all := p.FetchAllResult(ctx, models.SortStars)
	if all.Err != nil {
		return Result[[]models.RepositoryRecord]{Err: fmt.Errorf("no pinned or featured repositories: %w", all.Err)}
	}

	featured := all.Value
	if len(featured) > FeaturedCount {
		featured = featured[:FeaturedCount]
	}
	p.cache.Set(key, models.CloneRecords(featured))
	return Result[[]models.RepositoryRecord]{Value: featured}
}

// FetchAll returns every public repository of the account sorted by the
// given field, or an empty list if the API call fails.
func (p *Provider) FetchAll(ctx context.Context, sort models.SortBy) []models.RepositoryRecord {
	res := p.FetchAllResult(ctx, sort)
	if res.Err != nil {
		p.logger.Warn("fetching repositories failed", "sort", sort, "error", res.Err)
		return []models.RepositoryRecord{}
	}
	return res.Value
}

func (p *Provider) FetchAllResult(ctx context.Context, sort models.SortBy) Result[[]models.RepositoryRecord] {
	key := allKey(p.handle, sort)
	if repos, ok := lookup[[]models.RepositoryRecord](p.cache, key); ok {
		return Result[[]models.RepositoryRecord]{Value: models.CloneRecords(repos), Cached: true}
	}

	raw, err := p.source.ListRepos(ctx, p.handle, sort)
	if err != nil {
		return Result[[]models.RepositoryRecord]{Err: err}
	}

	repos := models.PublicOnly(raw)
	p.cache.Set(key, models.CloneRecords(repos))
	return Result[[]models.RepositoryRecord]{Value: repos}
}

// FetchFallbackSnapshot reads the static snapshot. It returns nil when the
// snapshot cannot be loaded.
func (p *Provider) FetchFallbackSnapshot(ctx context.Context) *models.Snapshot {
	res := p.FetchFallbackSnapshotResult(ctx)
	if res.Err != nil {
		p.logger.Warn("loading fallback snapshot failed", "error", res.Err)
		return nil
	}
	return res.Value
}

func (p *Provider) FetchFallbackSnapshotResult(ctx context.Context) Result[*models.Snapshot] {
	if p.snapshots == nil {
		return Result[*models.Snapshot]{Err: ErrNoSnapshot}
	}

	snap, err := p.snapshots.Load(ctx)
	if err != nil {
		return Result[*models.Snapshot]{Err: err}
	}
	if snap == nil {
		return Result[*models.Snapshot]{Err: ErrNoSnapshot}
	}

	snap.PinnedRepositories = models.PublicOnly(snap.PinnedRepositories)
	if snap.Repositories != nil {
		snap.Repositories = models.PublicOnly(snap.Repositories)
	}
	return Result[*models.Snapshot]{Value: snap}
}

// FetchUser returns the account's profile, or nil on failure.
func (p *Provider) FetchUser(ctx context.Context) *models.UserProfile {
	res := p.FetchUserResult(ctx)
	if res.Err != nil {
		p.logger.Warn("fetching user profile failed", "error", res.Err)
		return nil
	}
	return res.Value
}

func (p *Provider) FetchUserResult(ctx context.Context) Result[*models.UserProfile] {
	key := userKey(p.handle)
	if user, ok := lookup[models.UserProfile](p.cache, key); ok {
		clone := user.Clone()
		return Result[*models.UserProfile]{Value: &clone, Cached: true}
	}

	user, err := p.source.GetUser(ctx, p.handle)
	if err != nil {
		return Result[*models.UserProfile]{Err: err}
	}

	p.cache.Set(key, user.Clone())
	return Result[*models.UserProfile]{Value: user}
}

// FetchRepository returns a single public repository by name, or nil.
func (p *Provider) FetchRepository(ctx context.Context, name string) *models.RepositoryRecord {
	res := p.FetchRepositoryResult(ctx, name)
	if res.Err != nil {
		p.logger.Warn("fetching repository failed", "repo", name, "error", res.Err)
		return nil
	}
	return res.Value
}

func (p *Provider) FetchRepositoryResult(ctx context.Context, name string) Result[*models.RepositoryRecord] {
	key := repoKey(p.handle, name)
	if repo, ok := lookup[models.RepositoryRecord](p.cache, key); ok {
		clone := repo.Clone()
		return Result[*models.RepositoryRecord]{Value: &clone, Cached: true}
	}

	repo, err := p.source.GetRepo(ctx, p.handle, name)
	if err != nil {
		return Result[*models.RepositoryRecord]{Err: err}
	}
	if repo.Private {
		return Result[*models.RepositoryRecord]{Err: fmt.Errorf("%s: %w", name, ErrPrivate)}
	}

	p.cache.Set(key, repo.Clone())
	return Result[*models.RepositoryRecord]{Value: repo}
}

func lookup[T any](c *cache.Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

func pinnedKey(handle string) string {
	return "pinned:" + handle
}

func allKey(handle string, sort models.SortBy) string {
	return "all:" + handle + ":" + string(sort)
}

func userKey(handle string) string {
	return "user:" + handle
}

func repoKey(handle, name string) string {
	return "repo:" + handle + ":" + name
}
