package models

import (
	"fmt"
	"strings"
)

// RepositoryRecord mirrors the repository object returned by the GitHub REST
// API. The snapshot document uses the same shape.
type RepositoryRecord struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description *string  `json:"description"`
	URL         string   `json:"html_url"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	UpdatedAt   string   `json:"updated_at"`
	Private     bool     `json:"private"`
}

type UserProfile struct {
	Login       string  `json:"login"`
	ID          int64   `json:"id"`
	AvatarURL   string  `json:"avatar_url"`
	URL         string  `json:"html_url"`
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	PublicRepos int     `json:"public_repos"`
	Followers   int     `json:"followers"`
	Following   int     `json:"following"`
}

// Snapshot is the pre-published fallback document served next to the site.
type Snapshot struct {
	User               *UserProfile       `json:"user,omitempty"`
	PinnedRepositories []RepositoryRecord `json:"pinnedRepositories"`
	Repositories       []RepositoryRecord `json:"repositories,omitempty"`
	GeneratedAt        string             `json:"generatedAt,omitempty"`
}

// SortBy is the server-side sort field for repository listings.
type SortBy string

const (
	SortUpdated SortBy = "updated"
	SortStars   SortBy = "stars"
	SortCreated SortBy = "created"
)

func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortUpdated, "":
		return SortUpdated, nil
	case SortStars, "popularity":
		return SortStars, nil
	case SortCreated:
		return SortCreated, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want updated, stars or created)", s)
	}
}

// PublicOnly drops private records, keeping order.
func PublicOnly(repos []RepositoryRecord) []RepositoryRecord {
	out := make([]RepositoryRecord, 0, len(repos))
	for _, r := range repos {
		if !r.Private {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a copy that shares no mutable state with r.
func (r RepositoryRecord) Clone() RepositoryRecord {
	out := r
	if r.Description != nil {
		d := *r.Description
		out.Description = &d
	}
	if r.Language != nil {
		l := *r.Language
		out.Language = &l
	}
	if r.Topics != nil {
		out.Topics = append([]string(nil), r.Topics...)
	}
	return out
}

func CloneRecords(repos []RepositoryRecord) []RepositoryRecord {
	out := make([]RepositoryRecord, len(repos))
	for i, r := range repos {
		out[i] = r.Clone()
	}
	return out
}

func (u UserProfile) Clone() UserProfile {
	out := u
	if u.Name != nil {
		n := *u.Name
		out.Name = &n
	}
	if u.Bio != nil {
		b := *u.Bio
		out.Bio = &b
	}
	return out
}
