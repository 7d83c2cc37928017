package climate

import "time"

const halfDay = 12 * time.Hour

// ChartRows brackets every row of t with left and right markers half a day
// either side of its date.
func ChartRows(t Table) []ChartRow {
	rows := make([]ChartRow, len(t))
	for i, r := range t {
		rows[i] = ChartRow{
			DailyRecord: r,
			Left:        r.Date.Add(-halfDay),
			Right:       r.Date.Add(halfDay),
		}
	}
	return rows
}
