package snapshot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "pinnedRepositories": [
    {"id": 1, "name": "portfolio", "stargazers_count": 4, "private": false}
  ]
}`

func TestNewLoader(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewLoader(""))
	assert.Equal(t, URLLoader{URL: "https://example.com/docs/api/github.json"}, NewLoader("https://example.com/docs/api/github.json"))
	assert.Equal(t, FileLoader{Path: "docs/api/github.json"}, NewLoader("docs/api/github.json"))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	snap, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, snap.PinnedRepositories, 1)
	assert.Equal(t, "portfolio", snap.PinnedRepositories[0].Name)

	_, err = Decode([]byte(`{"repositories": []}`))
	assert.ErrorIs(t, err, ErrMissingPinned)

	_, err = Decode([]byte(`{"pinnedRepositories": [`))
	assert.Error(t, err)
}

func TestFileLoader_WriteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "docs", "api", "github.json")
	in := &models.Snapshot{
		PinnedRepositories: []models.RepositoryRecord{{ID: 3, Name: "cli", Topics: []string{"go"}}},
		GeneratedAt:        "2024-01-01T00:00:00Z",
	}
	require.NoError(t, Write(path, in))

	out, err := FileLoader{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileLoader_Missing(t *testing.T) {
	t.Parallel()

	_, err := FileLoader{Path: filepath.Join(t.TempDir(), "nope.json")}.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestURLLoader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/api/github.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, doc)
	}))
	defer srv.Close()

	snap, err := URLLoader{URL: srv.URL + "/docs/api/github.json"}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.PinnedRepositories, 1)

	_, err = URLLoader{URL: srv.URL + "/missing.json"}.Load(context.Background())
	assert.Error(t, err)
}

type fakeFetcher struct {
	userErr error
}

func (f fakeFetcher) FetchUserResult(context.Context) provider.Result[*models.UserProfile] {
	if f.userErr != nil {
		return provider.Result[*models.UserProfile]{Err: f.userErr}
	}
	return provider.Result[*models.UserProfile]{Value: &models.UserProfile{Login: "akito-ando"}}
}

func (fakeFetcher) FetchPinnedOrFeaturedResult(context.Context) provider.Result[[]models.RepositoryRecord] {
	return provider.Result[[]models.RepositoryRecord]{Value: []models.RepositoryRecord{{Name: "pinned"}}}
}

func (fakeFetcher) FetchAllResult(_ context.Context, sort models.SortBy) provider.Result[[]models.RepositoryRecord] {
	return provider.Result[[]models.RepositoryRecord]{Value: []models.RepositoryRecord{{Name: string(sort)}}}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	snap, err := Build(context.Background(), fakeFetcher{}, now)
	require.NoError(t, err)

	assert.Equal(t, "akito-ando", snap.User.Login)
	assert.Equal(t, "pinned", snap.PinnedRepositories[0].Name)
	assert.Equal(t, "updated", snap.Repositories[0].Name)
	assert.Equal(t, "2024-06-01T00:30:00Z", snap.GeneratedAt)

	_, err = Build(context.Background(), fakeFetcher{userErr: errors.New("rate limited")}, now)
	assert.ErrorContains(t, err, "rate limited")
}
