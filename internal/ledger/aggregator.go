package ledger

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
)

// Aggregator merges one-off entries and resolved recurring charges into
// day-indexed signed totals. All arithmetic is on integer minor units;
// expenses come out negative, income positive.
type Aggregator struct {
	entries  EntryStore
	resolver *Resolver
}

func NewAggregator(entries EntryStore, resolver *Resolver) *Aggregator {
	return &Aggregator{entries: entries, resolver: resolver}
}

// Aggregate returns a mapping from date to signed total for every day in
// [start, end] that has activity. Days without entries or charges are
// absent from the map and implicitly total zero.
//
// Two bulk retrievals cover the whole range: one for entries, one for
// candidate charges. The charges are then placed on their matching days
// in memory, one day per month at most.
func (a *Aggregator) Aggregate(ctx context.Context, ownerID int64, start, end core.Date) (map[core.Date]int64, error) {
	totals := make(map[core.Date]int64)
	if ownerID <= 0 || end.Before(start) {
		return totals, nil
	}

	var (
		entries []core.LedgerEntry
		charges []core.RecurringCharge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = a.entries.ListEntriesInRange(gctx, ownerID, start, end)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		charges, err = a.resolver.Candidates(gctx, ownerID, start, end)
		if err != nil {
			return fmt.Errorf("resolve candidates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate [%s, %s]: %w", start, end, err)
	}

	for _, e := range entries {
		totals[e.Date] += e.Signed()
	}

	for _, c := range charges {
		for _, d := range chargeDaysInRange(c, start, end) {
			totals[d] -= c.Amount.Cents
		}
	}

	return totals, nil
}

// chargeDaysInRange returns the dates within [start, end] on which the
// charge fires. A month whose last day is before the charge's day of
// month contributes nothing; there is no end-of-month rollover.
func chargeDaysInRange(c core.RecurringCharge, start, end core.Date) []core.Date {
	var days []core.Date

	year, month := start.Year(), start.Month()
	for {
		first := core.NewDate(year, month, 1)
		if first.After(end) {
			break
		}
		if c.DayOfMonth <= core.DaysInMonth(year, month) {
			d := core.NewDate(year, month, c.DayOfMonth)
			if !d.Before(start) && !d.After(end) && c.ActiveOn(d) {
				days = append(days, d)
			}
		}
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return days
}

// DailyTotal returns the signed total for a single date.
func (a *Aggregator) DailyTotal(ctx context.Context, ownerID int64, d core.Date) (int64, error) {
	totals, err := a.Aggregate(ctx, ownerID, d, d)
	if err != nil {
		return 0, err
	}
	return totals[d], nil
}

// WeekTotal returns the signed total over the 7-day window starting at start.
func (a *Aggregator) WeekTotal(ctx context.Context, ownerID int64, start core.Date) (int64, error) {
	totals, err := a.Aggregate(ctx, ownerID, start, start.AddDays(6))
	if err != nil {
		return 0, err
	}
	return sumTotals(totals), nil
}

// MonthTotal returns the signed total over every day of the given month.
func (a *Aggregator) MonthTotal(ctx context.Context, ownerID int64, year, month int) (int64, error) {
	first := core.NewDate(year, month, 1)
	last := core.NewDate(year, month, core.DaysInMonth(year, month))
	totals, err := a.Aggregate(ctx, ownerID, first, last)
	if err != nil {
		return 0, err
	}
	return sumTotals(totals), nil
}

func sumTotals(totals map[core.Date]int64) int64 {
	var sum int64
	for _, v := range totals {
		sum += v
	}
	return sum
}
