// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST client.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/data-desk-eco/notebook-index/internal/domain"
)

// pageSize is the largest page the repositories endpoint accepts.
const pageSize = 100

// DefaultPageConcurrency bounds how many pages are requested at once.
const DefaultPageConcurrency = 4

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// FetchOrgRepositories returns every repository owned by org, all pages materialized.
	FetchOrgRepositories(ctx context.Context, org string) ([]domain.Repository, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient      *github.Client
	pageConcurrency int
	logger          *log.Logger
}

// gatewayOptions configures NewGitHubGateway.
type gatewayOptions struct {
	baseURL string
}

// Option applies a configuration to NewGitHubGateway.
type Option func(*gatewayOptions)

// WithBaseURL points the REST client at another API root, e.g. a GitHub Enterprise server.
// An empty value keeps https://api.github.com/.
func WithBaseURL(baseURL string) Option {
	return func(o *gatewayOptions) { o.baseURL = baseURL }
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// An empty token is rejected with domain.ErrAuthentication.
func NewGitHubGateway(token string, pageConcurrency int, logger *log.Logger, opts ...Option) (*GitHubGateway, error) {
	var o gatewayOptions
	for _, opt := range opts {
		opt(&o)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no GitHub token configured (set GITHUB_TOKEN or GH_TOKEN)", domain.ErrAuthentication)
	}
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	if pageConcurrency < 1 {
		pageConcurrency = DefaultPageConcurrency
	}
	restClient := github.NewClient(httpClient)
	if o.baseURL != "" {
		if !strings.HasSuffix(o.baseURL, "/") {
			o.baseURL += "/"
		}
		baseURL, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", o.baseURL, err)
		}
		restClient.BaseURL = baseURL
	}
	return &GitHubGateway{
		restClient:      restClient,
		pageConcurrency: pageConcurrency,
		logger:          logger,
	}, nil
}

// FetchOrgRepositories lists the organization's repositories. The first page tells us how
// many pages exist; the rest are fetched concurrently and stitched back together in page order.
func (g *GitHubGateway) FetchOrgRepositories(ctx context.Context, org string) ([]domain.Repository, error) {
	g.logger.Printf("Fetching repositories of %s using REST API...", org)

	first, resp, err := g.listPage(ctx, org, 1)
	if err != nil {
		return nil, err
	}

	var pages [][]*github.Repository
	switch {
	case resp.LastPage > 1:
		pages, err = g.fetchRemainingPages(ctx, org, first, resp.LastPage)
		if err != nil {
			return nil, err
		}
	default:
		// No "last" relation: walk the "next" links one by one.
		pages = [][]*github.Repository{first}
		for resp.NextPage != 0 {
			var page []*github.Repository
			g.logger.Printf("  Fetching page %d of repositories...", resp.NextPage)
			page, resp, err = g.listPage(ctx, org, resp.NextPage)
			if err != nil {
				return nil, err
			}
			pages = append(pages, page)
		}
	}

	var repos []domain.Repository
	for _, page := range pages {
		for _, r := range page {
			repos = append(repos, toRepository(r))
		}
	}
	g.logger.Printf("Completed fetching %d repositories across %d page(s).", len(repos), len(pages))
	return repos, nil
}

func (g *GitHubGateway) fetchRemainingPages(ctx context.Context, org string, first []*github.Repository, lastPage int) ([][]*github.Repository, error) {
	pages := make([][]*github.Repository, lastPage)
	pages[0] = first

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.pageConcurrency)
	for page := 2; page <= lastPage; page++ {
		eg.Go(func() error {
			g.logger.Printf("  Fetching page %d/%d of repositories...", page, lastPage)
			repos, _, err := g.listPage(egCtx, org, page)
			if err != nil {
				return err
			}
			pages[page-1] = repos
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (g *GitHubGateway) listPage(ctx context.Context, org string, page int) ([]*github.Repository, *github.Response, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		ListOptions: github.ListOptions{Page: page, PerPage: pageSize},
	}
	repos, resp, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, nil, classify(fmt.Errorf("failed to list repositories of %s (page %d): %w", org, page, err))
	}
	return repos, resp, nil
}

// classify tags err with the domain error kind it represents.
func classify(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	case errors.As(err, &respErr) && respErr.Response != nil &&
		(respErr.Response.StatusCode == http.StatusUnauthorized || respErr.Response.StatusCode == http.StatusForbidden):
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
}

func toRepository(r *github.Repository) domain.Repository {
	return domain.Repository{
		Name:        r.GetName(),
		Description: r.GetDescription(),
		HTMLURL:     r.GetHTMLURL(),
		Private:     r.GetPrivate(),
		Visibility:  r.GetVisibility(),
		HasPages:    r.GetHasPages(),
		CreatedAt:   r.GetCreatedAt().Time,
	}
}
