package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/internly/internly/internal/utils"
	"github.com/internly/internly/pkg/allowance"
	log "github.com/sirupsen/logrus"
)

// Aggregator turns attendance entries and approved leaves into a claim breakdown.
type Aggregator struct {
	repo  Repository
	clock utils.Clock
}

func NewAggregator(repo Repository, clock utils.Clock) *Aggregator {
	return &Aggregator{repo: repo, clock: clock}
}

// Breakdown counts the intern's days for the period. A month key covers that calendar month,
// the END_OF_PROGRAM key covers the whole internship. Days outside the internship are not counted.
func (a *Aggregator) Breakdown(ctx context.Context, internId int, periodKey allowance.PeriodKey) (allowance.Breakdown, error) {
	internship, err := a.repo.GetInternship(ctx, internId)
	if err != nil {
		if errors.Is(err, ErrInternshipNotFound) {
			return allowance.Breakdown{}, fmt.Errorf("%w: intern %d: %w", allowance.ErrValidation, internId, err)
		}
		return allowance.Breakdown{}, err
	}

	from, to := internship.window(truncateToDay(a.clock.Now()).AddDate(0, 0, 1))
	if !periodKey.IsEndOfProgram() {
		monthStart, monthEnd, err := periodKey.MonthRange()
		if err != nil {
			return allowance.Breakdown{}, err
		}
		from, to = maxTime(from, monthStart), minTime(to, monthEnd)
	}
	if !from.Before(to) {
		log.Debugf("period %s is outside of internship of intern %d", periodKey, internId)
		return allowance.Breakdown{}, nil
	}

	entries, err := a.repo.GetEntries(ctx, internId, from, to)
	if err != nil {
		return allowance.Breakdown{}, err
	}
	leaves, err := a.repo.GetApprovedLeaves(ctx, internId, from, to)
	if err != nil {
		return allowance.Breakdown{}, err
	}

	breakdown := countWorkDays(entries)
	breakdown.Leaves = countLeaveDays(leaves, from, to)
	return breakdown, nil
}

// countWorkDays counts one day per date. Entries come ordered by recording time, so the
// latest entry recorded for a date decides its work mode.
func countWorkDays(entries []Entry) allowance.Breakdown {
	modes := make(map[time.Time]WorkMode, len(entries))
	for _, entry := range entries {
		modes[truncateToDay(entry.Date)] = entry.WorkMode
	}
	var breakdown allowance.Breakdown
	for _, mode := range modes {
		switch mode {
		case WorkFromOffice:
			breakdown.Wfo++
		case WorkFromHome:
			breakdown.Wfh++
		}
	}
	return breakdown
}

// countLeaveDays counts distinct calendar days of the leaves within [from, to).
func countLeaveDays(leaves []Leave, from time.Time, to time.Time) int {
	days := make(map[time.Time]struct{})
	for _, leave := range leaves {
		start := maxTime(truncateToDay(leave.StartDate), from)
		end := minTime(truncateToDay(leave.EndDate).AddDate(0, 0, 1), to)
		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			days[day] = struct{}{}
		}
	}
	return len(days)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
