package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/data-desk-eco/notebook-index/internal/domain"
)

// State is where a refresh run currently stands.
type State string

const (
	StateNotRun    State = "not_run"
	StateCollected State = "collected"
	StateWritten   State = "written"
	StateFailed    State = "failed"
)

// Writer replaces the projects table with exactly the given records.
type Writer interface {
	Replace(ctx context.Context, records []domain.ProjectRecord) error
	Path() string
}

// Refresher is the use case behind `refresh`: collect, then replace the table.
// It never retries; a failed run is re-run from scratch by the caller.
type Refresher struct {
	collector *Collector
	writer    Writer
	org       string
	logger    *log.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// NewRefresher creates a new Refresher instance.
func NewRefresher(collector *Collector, writer Writer, org string, logger *log.Logger) *Refresher {
	return &Refresher{
		collector: collector,
		writer:    writer,
		org:       org,
		logger:    logger,
		now:       time.Now,
		state:     StateNotRun,
	}
}

// State reports the state reached by the most recent Refresh call.
func (r *Refresher) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Refresher) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Refresh runs the whole collection before the first write, so the table is only ever
// replaced by a complete set. Errors keep their domain kind for errors.Is.
func (r *Refresher) Refresh(ctx context.Context) (*domain.RunSummary, error) {
	start := r.now()
	r.setState(StateNotRun)
	r.logger.Printf("[1/2] Collecting projects of %s...", r.org)

	collection, err := r.collector.Collect(ctx, r.org)
	if err != nil {
		r.setState(StateFailed)
		return nil, fmt.Errorf("collect %s: %w", r.org, err)
	}
	r.setState(StateCollected)

	r.logger.Printf("[2/2] Writing %d projects to %s...", len(collection.Records), r.writer.Path())
	var warnings []string
	if err := r.writer.Replace(ctx, collection.Records); err != nil {
		// A flush failure happens after commit: the new table is already published.
		if !errors.Is(err, domain.ErrFlushIncomplete) {
			r.setState(StateFailed)
			return nil, fmt.Errorf("write %s: %w", r.writer.Path(), err)
		}
		r.logger.Printf("  warning: %v", err)
		warnings = append(warnings, err.Error())
	}
	r.setState(StateWritten)

	end := r.now()
	median, oldest := domain.AgeStats(collection.Records, end)
	r.logger.Println("Usecase: Refresh complete.")
	return &domain.RunSummary{
		Org:            r.org,
		Destination:    r.writer.Path(),
		Fetched:        collection.Fetched,
		Published:      len(collection.Records),
		Excluded:       collection.Excluded,
		MedianAgeDays:  median,
		OldestAgeDays:  oldest,
		ElapsedSeconds: end.Sub(start).Seconds(),
		Warnings:       warnings,
	}, nil
}
