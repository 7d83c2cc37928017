package climate

import (
	"fmt"
	"sort"
)

// series is one element's values keyed by day number since the Unix epoch.
// A date reported more than once keeps every value.
type series map[int64][]float64

// actual returns the mean of the values recorded on day, summed in ascending
// order so the result does not depend on input order.
func (s series) actual(day int64) *float64 {
	vs, ok := s[day]
	if !ok {
		return nil
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return ptr(sum / float64(len(vs)))
}

// sortValues orders the values of every date ascending.
func (s series) sortValues() {
	for _, vs := range s {
		sort.Float64s(vs)
	}
}

// bucketStats accumulates one element's values for a single day-of-year.
type bucketStats struct {
	sum    float64
	n      int
	lo, hi float64
}

func (b *bucketStats) add(v float64) {
	if b.n == 0 || v < b.lo {
		b.lo = v
	}
	if b.n == 0 || v > b.hi {
		b.hi = v
	}
	b.sum += v
	b.n++
}

func (b bucketStats) mean() *float64 {
	if b.n == 0 {
		return nil
	}
	return ptr(b.sum / float64(b.n))
}

func (b bucketStats) min() *float64 {
	if b.n == 0 {
		return nil
	}
	return ptr(b.lo)
}

func (b bucketStats) max() *float64 {
	if b.n == 0 {
		return nil
	}
	return ptr(b.hi)
}

// Aggregate turns one station's raw observations into a table covering
// [start, end]. Each row carries the actual TMIN/TMAX of that date and the
// average and record statistics of its day-of-year bucket, computed over
// every observation supplied regardless of the requested range. Duplicate
// observations of one date and element all count towards the statistics and
// the actual value is their mean. Dates with nothing defined, and every
// February 29, are omitted.
//
// stationID may be empty, in which case the station of each observation is
// not checked.
func Aggregate(stationID string, obs []Observation, start, end Date) (Table, error) {
	if start.After(end.Time) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: empty observation stream", ErrDataUnavailable)
	}

	tmin := make(series)
	tmax := make(series)
	for _, o := range obs {
		if stationID != "" && o.StationID != "" && o.StationID != stationID {
			return nil, fmt.Errorf("%w: got %s while aggregating %s", ErrMixedStations, o.StationID, stationID)
		}
		switch o.Element {
		case ElementTMin:
			day := dayNumber(o.Date)
			tmin[day] = append(tmin[day], float64(o.Value)/10)
		case ElementTMax:
			day := dayNumber(o.Date)
			tmax[day] = append(tmax[day], float64(o.Value)/10)
		}
	}
	if len(tmin) == 0 && len(tmax) == 0 {
		return nil, fmt.Errorf("%w: no TMIN or TMAX elements", ErrDataUnavailable)
	}
	tmin.sortValues()
	tmax.sortValues()

	lows := bucketize(tmin)
	highs := bucketize(tmax)

	days := int(dayNumber(end)-dayNumber(start)) + 1
	table := make(Table, 0, days)
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		bucket, ok := DayOfYear(d)
		if !ok {
			continue
		}
		key := dayNumber(d)
		row := DailyRecord{
			Date:           d,
			RecordMinTemp:  lows[bucket].min(),
			AverageMinTemp: lows[bucket].mean(),
			AverageMaxTemp: highs[bucket].mean(),
			RecordMaxTemp:  highs[bucket].max(),
			ActualLow:      tmin.actual(key),
			ActualHigh:     tmax.actual(key),
		}
		if row.empty() {
			continue
		}
		table = append(table, row)
	}

	return table, nil
}

// bucketize folds a series into per-bucket statistics, skipping February 29.
// Values are accumulated in date order, then value order, so any permutation
// of the input sums identically.
func bucketize(s series) [DaysPerYear + 1]bucketStats {
	keys := make([]int64, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var buckets [DaysPerYear + 1]bucketStats
	for _, k := range keys {
		bucket, ok := DayOfYear(fromDayNumber(k))
		if !ok {
			continue
		}
		for _, v := range s[k] {
			buckets[bucket].add(v)
		}
	}
	return buckets
}

const secondsPerDay = 24 * 60 * 60

func dayNumber(d Date) int64 {
	return d.Unix() / secondsPerDay
}

func fromDayNumber(n int64) Date {
	return NewDate(1970, 1, 1).AddDays(int(n))
}
