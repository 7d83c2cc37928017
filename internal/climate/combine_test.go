package climate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func stationDaily(id string, from, to Date, low, high int) []Observation {
	out := daily(from, to, low, high)
	for i := range out {
		out[i].StationID = id
	}
	return out
}

func TestCombine(t *testing.T) {
	from := NewDate(2020, time.January, 1)
	to := NewDate(2020, time.January, 10)

	inputs := []StationObservations{
		{StationID: "USW00012839", Observations: stationDaily("USW00012839", from, to, 200, 280)},
		{StationID: "USW00094846", Observations: stationDaily("USW00094846", from, to.AddDays(-5), -80, 10)},
	}

	records, err := Combine(context.Background(), inputs, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 10+5 {
		t.Fatalf("expected 15 records, got %d", len(records))
	}

	for i, r := range records {
		wantID := "USW00012839"
		if i >= 10 {
			wantID = "USW00094846"
		}
		if r.StationID != wantID {
			t.Fatalf("record %d: expected station %s, got %s", i, wantID, r.StationID)
		}
		if i > 0 && records[i-1].StationID == r.StationID && !r.Date.After(records[i-1].Date.Time) {
			t.Fatalf("record %d: dates not ascending within station block", i)
		}
	}
	mustFloat(t, "miami actual_low", records[0].ActualLow, 20)
	mustFloat(t, "chicago actual_low", records[10].ActualLow, -8)
}

func TestCombineReportsFailingStation(t *testing.T) {
	day := NewDate(2020, time.January, 1)
	inputs := []StationObservations{
		{StationID: "USW00012839", Observations: stationDaily("USW00012839", day, day, 200, 280)},
		{StationID: "USW00023174"},
	}

	_, err := Combine(context.Background(), inputs, day, day)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestCombineEmpty(t *testing.T) {
	day := NewDate(2020, time.January, 1)
	records, err := Combine(context.Background(), nil, day, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
