package allowance

import (
	"fmt"
	"strconv"
	"time"
)

type PeriodKey string

// EndOfProgramKey is the period key of the single claim kept in END_OF_PROGRAM payout mode.
const EndOfProgramKey PeriodKey = "END_OF_PROGRAM"

const monthKeyLayout = "2006-01"

// MonthKey returns the calendar-month period key ("2025-03") of the given date.
func MonthKey(date time.Time) PeriodKey {
	return PeriodKey(date.Format(monthKeyLayout))
}

// ParsePeriodKey accepts either a "YYYY-MM" month key or the END_OF_PROGRAM sentinel.
func ParsePeriodKey(s string) (PeriodKey, error) {
	if PeriodKey(s) == EndOfProgramKey {
		return EndOfProgramKey, nil
	}
	if _, err := time.Parse(monthKeyLayout, s); err != nil {
		return "", fmt.Errorf("%w: period key %q must be YYYY-MM or %s", ErrValidation, s, EndOfProgramKey)
	}
	return PeriodKey(s), nil
}

func (k PeriodKey) IsEndOfProgram() bool {
	return k == EndOfProgramKey
}

// MonthRange returns the first day of the month and the first day of the following month (exclusive), in UTC.
func (k PeriodKey) MonthRange() (time.Time, time.Time, error) {
	start, err := time.Parse(monthKeyLayout, string(k))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q is not a month period key", ErrValidation, k)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// MatchesFrequency reports whether the key has the shape used by the given payout mode.
func (k PeriodKey) MatchesFrequency(frequency PayoutFrequency) bool {
	if frequency == EndOfProgram {
		return k.IsEndOfProgram()
	}
	return !k.IsEndOfProgram()
}

type ClaimId struct {
	InternId  int
	PeriodKey PeriodKey
}

// String returns the record key: "{internId}_{periodKey}" for monthly claims and
// "{internId}" for the end-of-program claim.
func (id ClaimId) String() string {
	if id.PeriodKey.IsEndOfProgram() {
		return strconv.Itoa(id.InternId)
	}
	return fmt.Sprintf("%d_%s", id.InternId, id.PeriodKey)
}
