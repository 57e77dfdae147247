// Package snapshot reads and writes the static fallback document used when
// the GitHub API is unreachable.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/models"
)

const maxSnapshotSize = 5 << 20

var ErrMissingPinned = errors.New("snapshot has no pinnedRepositories field")

// FileLoader reads a snapshot from a local path.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(_ context.Context) (*models.Snapshot, error) {
	//nolint:gosec // path comes from configuration
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", l.Path, err)
	}
	return Decode(data)
}

// URLLoader fetches a snapshot over HTTP.
type URLLoader struct {
	URL    string
	Client *http.Client
}

func (l URLLoader) Load(ctx context.Context) (*models.Snapshot, error) {
	hc := l.Client
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot %s: %w", l.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching snapshot %s: status %d", l.URL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", l.URL, err)
	}
	return Decode(data)
}

// Loader is implemented by FileLoader and URLLoader.
type Loader interface {
	Load(ctx context.Context) (*models.Snapshot, error)
}

// NewLoader picks a loader from the source string: http(s) URLs are
// fetched, anything else is read from disk. An empty source yields nil.
func NewLoader(source string) Loader {
	switch {
	case source == "":
		return nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return URLLoader{URL: source}
	default:
		return FileLoader{Path: source}
	}
}

// Decode parses a snapshot document. A document without a
// pinnedRepositories array is rejected.
func Decode(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.PinnedRepositories == nil {
		return nil, ErrMissingPinned
	}
	return &snap, nil
}

// Write stores snap as indented JSON, creating parent directories.
func Write(path string, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
