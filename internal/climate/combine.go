package climate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// StationObservations is the input of one station to Combine.
type StationObservations struct {
	StationID    string
	Observations []Observation
}

// Combine aggregates each station over the same range concurrently and
// concatenates the results in input order, tagging every row with its
// station. Stations share no state; the first failure is returned.
func Combine(ctx context.Context, inputs []StationObservations, start, end Date) ([]StationRecord, error) {
	tables := make([]Table, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := Aggregate(in.StationID, in.Observations, start, end)
			if err != nil {
				return fmt.Errorf("station %s: %w", in.StationID, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, t := range tables {
		total += len(t)
	}

	combined := make([]StationRecord, 0, total)
	for i, t := range tables {
		for _, row := range t {
			combined = append(combined, StationRecord{
				StationID:   inputs[i].StationID,
				DailyRecord: row,
			})
		}
	}
	return combined, nil
}
