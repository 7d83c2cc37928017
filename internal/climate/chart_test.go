package climate

import (
	"testing"
	"time"
)

func TestChartRows(t *testing.T) {
	table := Table{
		{Date: NewDate(2020, time.January, 1), ActualLow: ptr(-1)},
		{Date: NewDate(2020, time.January, 2), ActualHigh: ptr(4)},
	}

	rows := ChartRows(table)
	if len(rows) != len(table) {
		t.Fatalf("expected %d rows, got %d", len(table), len(rows))
	}

	left := time.Date(2019, time.December, 31, 12, 0, 0, 0, time.UTC)
	right := time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC)
	if !rows[0].Left.Equal(left) || !rows[0].Right.Equal(right) {
		t.Fatalf("unexpected markers %s..%s", rows[0].Left, rows[0].Right)
	}
	if rows[1].Right.Sub(rows[1].Left) != 24*time.Hour {
		t.Fatalf("expected a one-day band, got %s", rows[1].Right.Sub(rows[1].Left))
	}
	if *rows[1].ActualHigh != 4 {
		t.Fatalf("expected statistics to be carried over, got %+v", rows[1])
	}
}
