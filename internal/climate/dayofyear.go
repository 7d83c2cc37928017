package climate

import "time"

// DaysPerYear is the number of day-of-year buckets. February 29 never gets one.
const DaysPerYear = 365

// lastFebDay is the ordinal of February 28 in any year.
const lastFebDay = 59

// DayOfYear returns the 1-based bucket of d with February 29 removed from the
// count, so dates after it in a leap year shift down by one and December 31
// is always 365. It returns false for February 29 itself.
func DayOfYear(d Date) (int, bool) {
	if d.IsLeapDay() {
		return 0, false
	}
	n := d.YearDay()
	if isLeap(d.Year()) && n > lastFebDay {
		n--
	}
	return n, true
}

func isLeap(year int) bool {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366
}
