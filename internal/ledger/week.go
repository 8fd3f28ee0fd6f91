package ledger

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
)

type (
	// DaySummary is one day's full detail: the one-off entries dated on
	// the day, the recurring charges firing on it, and the signed total of
	// both.
	DaySummary struct {
		Date    core.Date
		Entries []core.LedgerEntry
		Charges []core.RecurringCharge
		Total   int64
	}

	// WeekView is seven consecutive DaySummaries starting on a Sunday.
	WeekView struct {
		Start core.Date
		Days  []DaySummary
		Total int64
	}
)

// DefaultWeekStart returns the Sunday on or before today, the anchor used
// when a week is requested without an explicit start date.
func DefaultWeekStart() core.Date {
	return core.SundayOnOrBefore(core.Today())
}

// BuildDay assembles the detail view for a single date.
func (a *Aggregator) BuildDay(ctx context.Context, ownerID int64, d core.Date) (DaySummary, error) {
	summary := DaySummary{Date: d}
	if ownerID <= 0 {
		return summary, nil
	}

	entries, err := a.entries.ListEntriesOn(ctx, ownerID, d)
	if err != nil {
		return DaySummary{}, fmt.Errorf("build day %s: %w", d, err)
	}
	charges, err := a.resolver.Resolve(ctx, ownerID, d)
	if err != nil {
		return DaySummary{}, fmt.Errorf("build day %s: %w", d, err)
	}

	summary.Entries = entries
	summary.Charges = charges
	for _, e := range entries {
		summary.Total += e.Signed()
	}
	for _, c := range charges {
		summary.Total -= c.Amount.Cents
	}
	return summary, nil
}

// BuildWeek assembles the seven-day view starting at start. Entries and
// charge candidates are fetched once for the whole window and distributed
// onto their days in memory.
func (a *Aggregator) BuildWeek(ctx context.Context, ownerID int64, start core.Date) (WeekView, error) {
	view := WeekView{Start: start, Days: make([]DaySummary, 0, daysPerWeek)}
	end := start.AddDays(daysPerWeek - 1)

	if ownerID <= 0 {
		for d := start; !d.After(end); d = d.AddDays(1) {
			view.Days = append(view.Days, DaySummary{Date: d})
		}
		return view, nil
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
		return WeekView{}, fmt.Errorf("build week at %s: %w", start, err)
	}

	byDay := make(map[core.Date][]core.LedgerEntry, len(entries))
	for _, e := range entries {
		byDay[e.Date] = append(byDay[e.Date], e)
	}

	for d := start; !d.After(end); d = d.AddDays(1) {
		summary := DaySummary{Date: d, Entries: byDay[d]}
		for _, c := range charges {
			if c.ActiveOn(d) {
				summary.Charges = append(summary.Charges, c)
			}
		}
		for _, e := range summary.Entries {
			summary.Total += e.Signed()
		}
		for _, c := range summary.Charges {
			summary.Total -= c.Amount.Cents
		}
		view.Total += summary.Total
		view.Days = append(view.Days, summary)
	}
	return view, nil
}
