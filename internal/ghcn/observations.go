package ghcn

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/station-climate/internal/climate"
)

// Column positions of the by_station CSV files:
// ID,DATE,ELEMENT,DATA_VALUE,M_FLAG,Q_FLAG,S_FLAG,OBS_TIME
const (
	colID = iota
	colDate
	colElement
	colValue
	colMFlag
	colQFlag
)

// ParseStats summarizes one ParseObservations run.
type ParseStats struct {
	Rows    int
	Kept    int
	Skipped int
	Flagged int
	// Ignored counts rows of elements not listed in ParseOptions.Elements.
	Ignored int
}

// ParseOptions tunes ParseObservations.
type ParseOptions struct {
	// StationID, when set, drops rows belonging to any other station.
	StationID string
	// DropFlagged drops rows whose quality flag is set (failed a QC check).
	DropFlagged bool
	// Elements, when set, keeps only these elements.
	Elements []climate.Element
}

// ParseObservations reads a GHCN-Daily by_station CSV file. A header row is
// optional. Rows that cannot be parsed are skipped and counted.
func ParseObservations(r io.Reader, opts ParseOptions) ([]climate.Observation, ParseStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var (
		stats ParseStats
		out   []climate.Observation
	)

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Rows++
				stats.Skipped++
				continue
			}
			return nil, stats, fmt.Errorf("read observations: %w", err)
		}

		if stats.Rows == 0 && strings.EqualFold(strings.TrimSpace(rec[colID]), "ID") {
			continue
		}
		stats.Rows++

		obs, ok := parseRecord(rec)
		if !ok {
			stats.Skipped++
			continue
		}
		if opts.StationID != "" && obs.StationID != opts.StationID {
			stats.Skipped++
			continue
		}
		if len(opts.Elements) > 0 && !slices.Contains(opts.Elements, obs.Element) {
			stats.Ignored++
			continue
		}
		if obs.QualityFlag != "" {
			stats.Flagged++
			if opts.DropFlagged {
				continue
			}
		}

		out = append(out, obs)
		stats.Kept++
	}

	return out, stats, nil
}

func parseRecord(rec []string) (climate.Observation, bool) {
	if len(rec) <= colValue {
		return climate.Observation{}, false
	}

	date, err := parseObsDate(strings.TrimSpace(rec[colDate]))
	if err != nil {
		return climate.Observation{}, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(rec[colValue]))
	if err != nil {
		return climate.Observation{}, false
	}

	obs := climate.Observation{
		StationID: strings.TrimSpace(rec[colID]),
		Date:      date,
		Element:   climate.Element(strings.TrimSpace(rec[colElement])),
		Value:     value,
	}
	if len(rec) > colQFlag {
		obs.QualityFlag = strings.TrimSpace(rec[colQFlag])
	}
	return obs, true
}

func parseObsDate(s string) (climate.Date, error) {
	layout := "20060102"
	if strings.Contains(s, "-") {
		layout = "2006-01-02"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return climate.Date{}, err
	}
	return climate.DateOf(t), nil
}
