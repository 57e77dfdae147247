package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/kevinmichaelchen/portfolio/internal/llm"
	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/provider"
	"github.com/kevinmichaelchen/portfolio/internal/surrealdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	res provider.Result[[]models.RepositoryRecord]
}

func (f fakeSource) FetchAllResult(context.Context, models.SortBy) provider.Result[[]models.RepositoryRecord] {
	return f.res
}

type fakeStore struct {
	mu        sync.Mutex
	upserted  []string
	needing   []surrealdb.Project
	summaries map[string]string
}

func (s *fakeStore) InitSchema(context.Context) error { return nil }

func (s *fakeStore) UpsertProject(_ context.Context, r models.RepositoryRecord) error {
	s.upserted = append(s.upserted, r.FullName)
	return nil
}

func (s *fakeStore) GetProjectsNeedingSummary(context.Context) ([]surrealdb.Project, error) {
	return s.needing, nil
}

func (s *fakeStore) UpdateSummary(_ context.Context, fullName, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaries == nil {
		s.summaries = map[string]string{}
	}
	s.summaries[fullName] = summary
	return nil
}

type fakeDescriber struct{}

func (fakeDescriber) Describe(_ context.Context, p llm.ProjectInfo) (string, error) {
	if p.FullName == "a/broken" {
		return "", errors.New("rate limited")
	}
	return "About " + p.FullName, nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun(t *testing.T) {
	t.Parallel()

	src := fakeSource{res: provider.Result[[]models.RepositoryRecord]{Value: []models.RepositoryRecord{
		{FullName: "a/one"}, {FullName: "a/two"}, {FullName: "a/broken"},
	}}}
	store := &fakeStore{needing: []surrealdb.Project{{FullName: "a/two"}, {FullName: "a/broken"}}}

	report, err := Run(context.Background(), src, store, fakeDescriber{}, Options{}, quiet())
	require.NoError(t, err)

	assert.Equal(t, []string{"a/one", "a/two", "a/broken"}, store.upserted)
	assert.Equal(t, map[string]string{"a/two": "About a/two"}, store.summaries)
	assert.Equal(t, &Report{Archived: 3, Described: 1, Failed: 1}, report)
}

func TestRun_SkipEnrich(t *testing.T) {
	t.Parallel()

	src := fakeSource{res: provider.Result[[]models.RepositoryRecord]{Value: []models.RepositoryRecord{{FullName: "a/one"}}}}
	store := &fakeStore{needing: []surrealdb.Project{{FullName: "a/one"}}}

	report, err := Run(context.Background(), src, store, fakeDescriber{}, Options{SkipEnrich: true}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Archived)
	assert.Empty(t, store.summaries)
}

func TestRun_FetchFailureIsAnError(t *testing.T) {
	t.Parallel()

	src := fakeSource{res: provider.Result[[]models.RepositoryRecord]{Err: errors.New("HTTP 500")}}
	store := &fakeStore{}

	_, err := Run(context.Background(), src, store, fakeDescriber{}, Options{}, quiet())
	assert.ErrorContains(t, err, "HTTP 500")
	assert.Empty(t, store.upserted)
}
