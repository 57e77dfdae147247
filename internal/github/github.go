package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kevinmichaelchen/portfolio/internal/models"
)

const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultGraphQLURL = "https://api.github.com/graphql"

	// PageSize is the per_page value sent on repository listings.
	PageSize = 50
	// PinLimit is how many pinned items the profile page can show.
	PinLimit = 6

	defaultTimeout  = 10 * time.Second
	userAgent       = "portfolio/1.0"
	maxResponseSize = 10 << 20
)

// ErrPinsUnavailable is returned by PinnedRepos when the client has no
// token. GitHub only exposes pinned items through the authenticated
// GraphQL API.
var ErrPinsUnavailable = errors.New("pinned repositories require a GitHub token")

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GitHub API returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is a thin wrapper around the GitHub REST and GraphQL APIs.
type Client struct {
	baseURL    string
	graphqlURL string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

func WithGraphQLURL(u string) Option {
	return func(c *Client) { c.graphqlURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client. An empty token means unauthenticated REST
// calls and no pin tier.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		graphqlURL: DefaultGraphQLURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUser fetches GET /users/{handle}.
func (c *Client) GetUser(ctx context.Context, handle string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(handle), nil, &user); err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", handle, err)
	}
	return &user, nil
}

// ListRepos fetches one page of the handle's repositories sorted
// server-side, newest/largest first. The result is unfiltered.
func (c *Client) ListRepos(ctx context.Context, handle string, sort models.SortBy) ([]models.RepositoryRecord, error) {
	q := url.Values{}
	q.Set("sort", string(sort))
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(PageSize))
	q.Set("type", "all")

	var repos []models.RepositoryRecord
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(handle)+"/repos", q, &repos); err != nil {
		return nil, fmt.Errorf("listing repos for %s: %w", handle, err)
	}
	return repos, nil
}

// GetRepo fetches GET /repos/{handle}/{name}.
func (c *Client) GetRepo(ctx context.Context, handle, name string) (*models.RepositoryRecord, error) {
	var repo models.RepositoryRecord
	path := "/repos/" + url.PathEscape(handle) + "/" + url.PathEscape(name)
	if err := c.getJSON(ctx, path, nil, &repo); err != nil {
		return nil, fmt.Errorf("fetching repo %s/%s: %w", handle, name, err)
	}
	return &repo, nil
}

const pinnedQuery = `
query($login: String!, $first: Int!) {
  user(login: $login) {
    pinnedItems(first: $first, types: REPOSITORY) {
      nodes {
        ... on Repository {
          databaseId
          name
          nameWithOwner
          description
          url
          isPrivate
          stargazerCount
          forkCount
          updatedAt
          primaryLanguage { name }
          repositoryTopics(first: 20) {
            nodes { topic { name } }
          }
        }
      }
    }
  }
}
`

// PinnedRepos returns the repositories pinned on the handle's profile, in
// pin order.
func (c *Client) PinnedRepos(ctx context.Context, handle string) ([]models.RepositoryRecord, error) {
	if c.token == "" {
		return nil, ErrPinsUnavailable
	}

	body, err := c.doGraphQL(ctx, pinnedQuery, map[string]any{
		"login": handle,
		"first": PinLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching pinned repos for %s: %w", handle, err)
	}

	var data pinnedData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parsing pinned repos: %w", err)
	}
	if data.User == nil {
		return nil, fmt.Errorf("user %s not found", handle)
	}

	repos := make([]models.RepositoryRecord, 0, len(data.User.PinnedItems.Nodes))
	for _, node := range data.User.PinnedItems.Nodes {
		repos = append(repos, nodeToRecord(node))
	}
	return repos, nil
}

// --- internal ---

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type pinnedData struct {
	User *struct {
		PinnedItems struct {
			Nodes []repoNode `json:"nodes"`
		} `json:"pinnedItems"`
	} `json:"user"`
}

type repoNode struct {
	DatabaseID      int64   `json:"databaseId"`
	Name            string  `json:"name"`
	NameWithOwner   string  `json:"nameWithOwner"`
	Description     *string `json:"description"`
	URL             string  `json:"url"`
	IsPrivate       bool    `json:"isPrivate"`
	StargazerCount  int     `json:"stargazerCount"`
	ForkCount       int     `json:"forkCount"`
	UpdatedAt       string  `json:"updatedAt"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	RepositoryTopics struct {
		Nodes []struct {
			Topic struct {
				Name string `json:"name"`
			} `json:"topic"`
		} `json:"nodes"`
	} `json:"repositoryTopics"`
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("parsing GraphQL response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.String(),
			Body:       string(respBody),
		}
	}
	return respBody, nil
}

func nodeToRecord(n repoNode) models.RepositoryRecord {
	r := models.RepositoryRecord{
		ID:          n.DatabaseID,
		Name:        n.Name,
		FullName:    n.NameWithOwner,
		Description: n.Description,
		URL:         n.URL,
		Stars:       n.StargazerCount,
		Forks:       n.ForkCount,
		UpdatedAt:   n.UpdatedAt,
		Private:     n.IsPrivate,
	}

	if n.PrimaryLanguage != nil {
		lang := n.PrimaryLanguage.Name
		r.Language = &lang
	}

	topics := []string{}
	for _, t := range n.RepositoryTopics.Nodes {
		topics = append(topics, t.Topic.Name)
	}
	r.Topics = topics

	return r
}
