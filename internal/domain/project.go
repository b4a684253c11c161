// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"strings"
	"time"
)

// Repository is the raw shape of one organization repository as returned by the hosting API.
type Repository struct {
	Name        string
	Description string
	HTMLURL     string
	Private     bool
	Visibility  string
	HasPages    bool
	CreatedAt   time.Time
}

// ProjectRecord is one published notebook as stored in the projects table.
// It is the core domain entity of this application.
type ProjectRecord struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	RepoURL     string    `json:"repo_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExclusionReason names the first publish rule a repository failed.
type ExclusionReason string

const (
	Included      ExclusionReason = ""
	NotPublic     ExclusionReason = "private"
	ExcludedName  ExclusionReason = "excluded"
	NoPages       ExclusionReason = "no_pages"
	NoDescription ExclusionReason = "no_description"
)

// PublishRule decides which repositories become projects and where they are served.
type PublishRule struct {
	// BaseURL is the site root every project URL hangs off, e.g. https://research.datadesk.eco/.
	BaseURL string
	// ExcludedName is the index site's own repository.
	ExcludedName string
}

// NewPublishRule returns a rule with the base URL normalized to a trailing slash.
func NewPublishRule(baseURL, excludedName string) PublishRule {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return PublishRule{BaseURL: baseURL, ExcludedName: excludedName}
}

// Check reports whether r is publishable and, if not, the first rule it fails.
func (p PublishRule) Check(r Repository) (bool, ExclusionReason) {
	switch {
	case !isPublic(r):
		return false, NotPublic
	case r.Name == p.ExcludedName:
		return false, ExcludedName
	case !r.HasPages:
		return false, NoPages
	case r.Description == "":
		return false, NoDescription
	}
	return true, Included
}

// Project maps a repository onto its published record. The URL is always derived from the name.
func (p PublishRule) Project(r Repository) ProjectRecord {
	return ProjectRecord{
		Name:        r.Name,
		Description: r.Description,
		URL:         p.URL(r.Name),
		RepoURL:     r.HTMLURL,
		CreatedAt:   r.CreatedAt,
	}
}

// URL returns the published address of the named project.
func (p PublishRule) URL(name string) string {
	return p.BaseURL + name + "/"
}

// Select filters and projects repos in their original order.
// The returned slice is never nil; tally counts exclusions by reason.
func (p PublishRule) Select(repos []Repository) ([]ProjectRecord, map[ExclusionReason]int) {
	records := make([]ProjectRecord, 0, len(repos))
	tally := make(map[ExclusionReason]int)
	for _, r := range repos {
		ok, reason := p.Check(r)
		if !ok {
			tally[reason]++
			continue
		}
		records = append(records, p.Project(r))
	}
	return records, tally
}

func isPublic(r Repository) bool {
	if r.Private {
		return false
	}
	return r.Visibility == "" || r.Visibility == "public"
}
