package climate

import (
	"encoding/json"
	"time"
)

// Element is a GHCN-Daily element tag such as TMAX or TMIN.
type Element string

const (
	ElementTMax Element = "TMAX"
	ElementTMin Element = "TMIN"
)

// Distribution selects whether a table is returned as aggregated or smoothed.
type Distribution string

const (
	Discrete Distribution = "Discrete"
	Smoothed Distribution = "Smoothed"
)

const dateLayout = "2006-01-02"

// Date is a calendar day stored as midnight UTC. It marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// IsLeapDay reports whether d is February 29.
func (d Date) IsLeapDay() bool {
	return d.Month() == time.February && d.Day() == 29
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Observation is a single raw station reading as published by GHCN-Daily.
// Value is in tenths of a degree Celsius for temperature elements.
type Observation struct {
	StationID   string  `json:"station_id"`
	Date        Date    `json:"date"`
	Element     Element `json:"element"`
	Value       int     `json:"value"`
	QualityFlag string  `json:"quality_flag,omitempty"`
}

// DailyRecord is one row of an aggregated station table. Nil fields are
// undefined for that date and serialize as null.
type DailyRecord struct {
	Date           Date     `json:"date"`
	RecordMinTemp  *float64 `json:"record_min_temp"`
	AverageMinTemp *float64 `json:"average_min_temp"`
	ActualLow      *float64 `json:"actual_low"`
	ActualHigh     *float64 `json:"actual_high"`
	AverageMaxTemp *float64 `json:"average_max_temp"`
	RecordMaxTemp  *float64 `json:"record_max_temp"`
}

// Table is a station's aggregated rows in ascending date order.
type Table []DailyRecord

// StationRecord is a DailyRecord tagged with the station it belongs to.
type StationRecord struct {
	StationID string `json:"id"`
	DailyRecord
}

// ChartRow is a DailyRecord bracketed by half-day markers for bar and band
// rendering.
type ChartRow struct {
	DailyRecord
	Left  time.Time `json:"left"`
	Right time.Time `json:"right"`
}

// City maps a display city to the station that represents it.
type City struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	StationID string `json:"station_id"`
}

// Statistics lists the statistic columns in display order.
var Statistics = []string{
	"record_min_temp",
	"average_min_temp",
	"actual_low",
	"actual_high",
	"average_max_temp",
	"record_max_temp",
}

// columns returns pointers to the six statistic fields in Statistics order.
func (r *DailyRecord) columns() [6]**float64 {
	return [6]**float64{
		&r.RecordMinTemp,
		&r.AverageMinTemp,
		&r.ActualLow,
		&r.ActualHigh,
		&r.AverageMaxTemp,
		&r.RecordMaxTemp,
	}
}

func (r DailyRecord) empty() bool {
	for _, c := range r.columns() {
		if *c != nil {
			return false
		}
	}
	return true
}

func ptr(v float64) *float64 {
	return &v
}

// Station is one entry of the GHCN-Daily station catalog.
type Station struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
	State     string  `json:"state,omitempty"`
	Name      string  `json:"name"`
	GSNFlag   string  `json:"gsn_flag,omitempty"`
	HCNFlag   string  `json:"hcn_flag,omitempty"`
	WMOID     string  `json:"wmo_id,omitempty"`
}

// TableKey identifies a cached aggregation.
type TableKey struct {
	StationID string
	Start     Date
	End       Date
}
