package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kevinmichaelchen/portfolio/internal/models"
	"github.com/kevinmichaelchen/portfolio/internal/showcase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	pinned []models.RepositoryRecord
	byName map[string]*models.RepositoryRecord
	user   *models.UserProfile

	mu    sync.Mutex
	sorts []models.SortBy
}

func (f *fakeProvider) FetchPinnedOrFeatured(context.Context) []models.RepositoryRecord {
	return f.pinned
}

func (f *fakeProvider) FetchAll(_ context.Context, sort models.SortBy) []models.RepositoryRecord {
	f.mu.Lock()
	f.sorts = append(f.sorts, sort)
	f.mu.Unlock()
	return f.pinned
}

func (f *fakeProvider) FetchFallbackSnapshot(context.Context) *models.Snapshot {
	return nil
}

func (f *fakeProvider) FetchUser(context.Context) *models.UserProfile {
	return f.user
}

func (f *fakeProvider) FetchRepository(_ context.Context, name string) *models.RepositoryRecord {
	return f.byName[name]
}

func newTestServer(t *testing.T, p *fakeProvider) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(p, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestProjects(t *testing.T) {
	t.Parallel()

	goLang, ts := "Go", "TypeScript"
	p := &fakeProvider{pinned: []models.RepositoryRecord{
		{Name: "api", Language: &goLang, Stars: 20},
		{Name: "site", Language: &ts, Stars: 2},
	}}
	srv := newTestServer(t, p)

	var all ProjectsResponse
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/projects", &all))
	assert.Equal(t, showcase.TierPinned, all.Tier)
	assert.Equal(t, []string{"Go", "TypeScript"}, all.Languages)
	assert.Len(t, all.Projects, 2)

	var featured ProjectsResponse
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/projects?filter=featured", &featured))
	require.Len(t, featured.Projects, 1)
	assert.Equal(t, "api", featured.Projects[0].Name)
	assert.Equal(t, []string{"Go", "TypeScript"}, featured.Languages)
}

func TestProjects_NoData(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeProvider{})

	var body ProjectsResponse
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/projects", &body))
	assert.Equal(t, showcase.TierNone, body.Tier)
	assert.Empty(t, body.Projects)
}

func TestRepos(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{pinned: []models.RepositoryRecord{{Name: "api"}}}
	srv := newTestServer(t, p)

	var repos []models.RepositoryRecord
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/repos?sort=created", &repos))
	assert.Len(t, repos, 1)

	var errBody errorResponse
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/repos?sort=size", &errBody))
	assert.Contains(t, errBody.Error, "unknown sort")

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []models.SortBy{models.SortCreated}, p.sorts)
}

func TestRepoAndUser(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{
		byName: map[string]*models.RepositoryRecord{"api": {ID: 3, Name: "api"}},
		user:   &models.UserProfile{Login: "akito-ando"},
	}
	srv := newTestServer(t, p)

	var repo models.RepositoryRecord
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/repos/api", &repo))
	assert.Equal(t, int64(3), repo.ID)
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/repos/missing", nil))

	var user models.UserProfile
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/user", &user))
	assert.Equal(t, "akito-ando", user.Login)

	empty := newTestServer(t, &fakeProvider{})
	assert.Equal(t, http.StatusNotFound, get(t, empty.URL+"/api/user", nil))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeProvider{})
	var body map[string]string
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}
