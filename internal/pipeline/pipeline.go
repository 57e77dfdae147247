// Package pipeline archives the project list into SurrealDB and fills in
// descriptions for projects that have none.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/kevinmichaelchen/portfolio/internal/llm"
	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/provider"
	"github.com/kevinmichaelchen/portfolio/internal/surrealdb"
	"golang.org/x/sync/errgroup"
)

const enrichConcurrency = 5

type Options struct {
	SkipEnrich bool
}

// Source supplies the projects to archive.
type Source interface {
	FetchAllResult(ctx context.Context, sort models.SortBy) provider.Result[[]models.RepositoryRecord]
}

type Store interface {
	InitSchema(ctx context.Context) error
	UpsertProject(ctx context.Context, r models.RepositoryRecord) error
	GetProjectsNeedingSummary(ctx context.Context) ([]surrealdb.Project, error)
	UpdateSummary(ctx context.Context, fullName, summary string) error
}

type Describer interface {
	Describe(ctx context.Context, p llm.ProjectInfo) (string, error)
}

// Report counts what a run did.
type Report struct {
	Archived  int
	Described int
	Failed    int
}

// Run archives every public repository and, unless opts.SkipEnrich is set,
// describes the ones without a description. Per-project failures during
// enrichment are logged and counted, not returned.
func Run(ctx context.Context, src Source, store Store, desc Describer, opts Options, logger *slog.Logger) (*Report, error) {
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}

	res := src.FetchAllResult(ctx, models.SortUpdated)
	if res.Err != nil {
		return nil, fmt.Errorf("loading projects: %w", res.Err)
	}
	repos := res.Value

	report := &Report{}
	logger.Info("archiving projects", "count", len(repos), "cached", res.Cached)
	for i, repo := range repos {
		if err := store.UpsertProject(ctx, repo); err != nil {
			return report, err
		}
		report.Archived++
		if (i+1)%10 == 0 || i+1 == len(repos) {
			logger.Info("archived", "done", i+1, "total", len(repos))
		}
	}

	if opts.SkipEnrich {
		logger.Info("skipping enrichment")
		return report, nil
	}

	todo, err := store.GetProjectsNeedingSummary(ctx)
	if err != nil {
		return report, err
	}
	if len(todo) == 0 {
		logger.Info("all projects already described")
		return report, nil
	}

	logger.Info("describing projects", "count", len(todo))

	var done, failed atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for _, p := range todo {
		g.Go(func() error {
			text, err := desc.Describe(gCtx, llm.ProjectInfo{
				FullName: p.FullName,
				Language: p.Language,
				Topics:   p.Topics,
			})
			if err != nil {
				logger.Warn("describing project failed", "project", p.FullName, "error", err)
				failed.Add(1)
				return nil
			}

			if err := store.UpdateSummary(gCtx, p.FullName, text); err != nil {
				logger.Warn("storing summary failed", "project", p.FullName, "error", err)
				failed.Add(1)
				return nil
			}

			done.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Described = int(done.Load())
	report.Failed = int(failed.Load())
	logger.Info("enrichment complete", "described", report.Described, "failed", report.Failed)
	return report, nil
}
