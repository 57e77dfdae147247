package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/provider"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the subset of the provider a snapshot is built from.
type Fetcher interface {
	FetchUserResult(ctx context.Context) provider.Result[*models.UserProfile]
	FetchPinnedOrFeaturedResult(ctx context.Context) provider.Result[[]models.RepositoryRecord]
	FetchAllResult(ctx context.Context, sort models.SortBy) provider.Result[[]models.RepositoryRecord]
}

// Build assembles a fresh snapshot from the live API. Unlike the provider's
// public operations it fails if any part cannot be fetched, so an empty
// document is never published over a good one.
func Build(ctx context.Context, f Fetcher, now time.Time) (*models.Snapshot, error) {
	var (
		user   *models.UserProfile
		pinned []models.RepositoryRecord
		all    []models.RepositoryRecord
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := f.FetchUserResult(gCtx)
		if res.Err != nil {
			return fmt.Errorf("fetching user: %w", res.Err)
		}
		user = res.Value
		return nil
	})
	g.Go(func() error {
		res := f.FetchPinnedOrFeaturedResult(gCtx)
		if res.Err != nil {
			return fmt.Errorf("fetching pinned repositories: %w", res.Err)
		}
		pinned = res.Value
		return nil
	})
	g.Go(func() error {
		res := f.FetchAllResult(gCtx, models.SortUpdated)
		if res.Err != nil {
			return fmt.Errorf("fetching repositories: %w", res.Err)
		}
		all = res.Value
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Snapshot{
		User:               user,
		PinnedRepositories: pinned,
		Repositories:       all,
		GeneratedAt:        now.UTC().Format(time.RFC3339),
	}, nil
}
