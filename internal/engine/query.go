package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"q5engine/internal/metrics"
	"q5engine/internal/models"
)

// Query is one invocation of the regional revenue query. Dates are
// YYYY-MM-DD; the window is [StartDate, EndDate).
type Query struct {
	Region    string
	StartDate string
	EndDate   string
	Threads   int
}

// Window validates the query and returns its date window.
func (q Query) Window() (Window, error) {
	if q.Region == "" {
		return Window{}, invalidQuery("region name is required")
	}
	if q.Threads < 1 {
		return Window{}, invalidQuery("thread count must be at least 1, got %d", q.Threads)
	}
	start, err := ParseDate(q.StartDate)
	if err != nil {
		return Window{}, invalidQuery("start date: %v", err)
	}
	end, err := ParseDate(q.EndDate)
	if err != nil {
		return Window{}, invalidQuery("end date: %v", err)
	}
	return Window{Start: start, End: end}, nil
}

// Report is the outcome of Execute.
type Report struct {
	ID      string
	Query   Query
	Result  Result
	Stats   models.QueryStats
	Elapsed time.Duration
}

// Execute resolves the dimensions and runs the partitioned aggregation.
func Execute(ctx context.Context, t *Tables, q Query) (*Report, error) {
	start := time.Now()
	id := uuid.NewString()
	log := slog.With("query_id", id)

	w, err := q.Window()
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	log.Debug("resolving dimensions", "region", q.Region, "start", q.StartDate, "end", q.EndDate)
	dims := ResolveDimensions(t, q.Region, w)
	if len(dims.NationOfInterest) == 0 {
		log.Info("no nations in region", "region", q.Region)
	}

	result, aggStats, err := Aggregate(ctx, &t.LineItems, dims, q.Threads)
	if err != nil {
		status := "error"
		if errors.Is(err, ErrInvalidQuery) {
			status = "invalid"
		}
		metrics.QueriesTotal.WithLabelValues(status).Inc()
		log.Error("aggregation failed", "error", err)
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.QueriesTotal.WithLabelValues("ok").Inc()
	metrics.QueryDuration.Observe(elapsed.Seconds())
	metrics.LineItemsScanned.Add(float64(aggStats.Scanned))
	metrics.LineItemsMatched.Add(float64(aggStats.Matched))

	log.Info("query complete",
		"region", q.Region,
		"threads", q.Threads,
		"rows", aggStats.Scanned,
		"matched", aggStats.Matched,
		"nations", len(result),
		"elapsed", elapsed,
	)

	stats := models.QueryStats{
		Threads:       aggStats.Threads,
		RowsScanned:   aggStats.Scanned,
		RowsMatched:   aggStats.Matched,
		ValidOrders:   len(dims.ValidOrders),
		RegionNations: len(dims.NationOfInterest),
		Elapsed:       elapsed.String(),
	}
	return &Report{ID: id, Query: q, Result: result, Stats: stats, Elapsed: elapsed}, nil
}
