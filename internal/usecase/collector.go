// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"

	"github.com/data-desk-eco/notebook-index/internal/domain"
	"github.com/data-desk-eco/notebook-index/internal/gateway"
)

// Collection is the outcome of one collect step.
type Collection struct {
	Records  []domain.ProjectRecord
	Fetched  int
	Excluded map[domain.ExclusionReason]int
}

// Collector turns an organization's repositories into publishable project records.
type Collector struct {
	fetcher gateway.Fetcher
	rule    domain.PublishRule
	logger  *log.Logger
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, rule domain.PublishRule, logger *log.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		rule:    rule,
		logger:  logger,
	}
}

// Collect fetches every repository of org, then filters and projects them in API order.
// An empty result is valid and is returned as an empty, non-nil slice.
func (c *Collector) Collect(ctx context.Context, org string) (*Collection, error) {
	repos, err := c.fetcher.FetchOrgRepositories(ctx, org)
	if err != nil {
		return nil, err
	}

	records, excluded := c.rule.Select(repos)
	c.logger.Printf("Usecase: %d of %d repositories are publishable.", len(records), len(repos))
	for reason, n := range excluded {
		c.logger.Printf("  excluded %d (%s)", n, reason)
	}

	return &Collection{
		Records:  records,
		Fetched:  len(repos),
		Excluded: excluded,
	}, nil
}
