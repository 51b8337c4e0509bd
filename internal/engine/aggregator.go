package engine

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
)

// cancelCheckInterval is how many rows a worker scans between checks for a
// failed sibling.
const cancelCheckInterval = 1 << 14

// NationTotal accumulates one nation's revenue and matched lineitem count.
type NationTotal struct {
	Revenue   float64
	LineItems int
}

// Result maps nation name to its total.
type Result map[string]NationTotal

func (r Result) Revenue(nation string) float64 {
	return r[nation].Revenue
}

// Partition is the half-open row range [Start, End) owned by one worker.
type Partition struct {
	Start int
	End   int
}

func (p Partition) Len() int {
	return p.End - p.Start
}

// Partitions splits n rows into t contiguous ranges of n/t rows; the last
// range absorbs the remainder. With t > n all but the last range are empty.
func Partitions(n, t int) []Partition {
	if t < 1 {
		t = 1
	}
	chunkSize := n / t
	parts := make([]Partition, t)
	for i := 0; i < t; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if i == t-1 {
			end = n
		}
		if end < start {
			end = start
		}
		parts[i] = Partition{Start: start, End: end}
	}
	return parts
}

type partialAgg struct {
	byNation Result
	scanned  int
	matched  int
}

// AggregateStats describes one scan.
type AggregateStats struct {
	Threads int
	Scanned int
	Matched int
}

// Aggregate scans the lineitems in numWorkers partitions concurrently and
// merges the per-worker results. Every worker is joined before the merge.
// A non-finite price or discount fails the whole aggregation.
func Aggregate(ctx context.Context, li *LineItems, d *Dimensions, numWorkers int) (Result, AggregateStats, error) {
	if numWorkers < 1 {
		return nil, AggregateStats{}, invalidQuery("thread count must be at least 1, got %d", numWorkers)
	}

	parts := Partitions(li.Len(), numWorkers)
	partials := make([]*partialAgg, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			p, err := scanPartition(gctx, li, d, part)
			partials[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, AggregateStats{}, err
	}

	// Merge Phase (single goroutine, partition order)
	final := make(Result)
	stats := AggregateStats{Threads: numWorkers}
	for _, p := range partials {
		for nation, s := range p.byNation {
			acc := final[nation]
			acc.Revenue += s.Revenue
			acc.LineItems += s.LineItems
			final[nation] = acc
		}
		stats.Scanned += p.scanned
		stats.Matched += p.matched
	}
	return final, stats, nil
}

func scanPartition(ctx context.Context, li *LineItems, d *Dimensions, part Partition) (*partialAgg, error) {
	p := &partialAgg{byNation: make(Result)}

	// Capture slice headers and maps for the hot loop
	orderKeys := li.OrderKeys
	suppKeys := li.SuppKeys
	prices := li.ExtendedPrices
	discounts := li.Discounts
	validOrders := d.ValidOrders
	custOfOrder := d.CustomerOfOrder
	custNation := d.NationOfCustomer
	suppNation := d.NationOfSupplier
	interest := d.NationOfInterest

	for j := part.Start; j < part.End; j++ {
		if (j-part.Start)%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return p, err
			}
		}
		p.scanned++

		orderKey := orderKeys[j]
		if _, ok := validOrders[orderKey]; !ok {
			continue
		}
		custKey, ok := custOfOrder[orderKey]
		if !ok {
			continue
		}
		cNation, ok := custNation[custKey]
		if !ok {
			continue
		}
		sNation, ok := suppNation[suppKeys[j]]
		if !ok {
			continue
		}
		if cNation != sNation {
			continue
		}
		name, ok := interest[sNation]
		if !ok {
			continue
		}

		price, discount := prices[j], discounts[j]
		if !isFinite(price) || !isFinite(discount) {
			return p, &FormatError{
				Table: "lineitem",
				Row:   j + 1,
				Err:   errNonFinite(price, discount),
			}
		}

		s := p.byNation[name]
		s.Revenue += price * (1 - discount)
		s.LineItems++
		p.byNation[name] = s
		p.matched++
	}
	return p, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
