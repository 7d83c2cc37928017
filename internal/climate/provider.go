package climate

import "context"

// ObservationSource abstracts where raw station observations come from
// (e.g. the NOAA GHCN-Daily bucket).
type ObservationSource interface {
	FetchObservations(ctx context.Context, stationID string) ([]Observation, error)
}

// ObservationStore caches raw observations per station.
type ObservationStore interface {
	SaveObservations(ctx context.Context, stationID string, obs []Observation) error
	LoadObservations(ctx context.Context, stationID string) ([]Observation, error)
}

// TableStore memoizes aggregated, unsmoothed tables.
type TableStore interface {
	SaveTable(key TableKey, t Table)
	GetTable(key TableKey) (Table, bool)
	Invalidate(stationID string)
}

// StationCatalog finds stations by name or position.
type StationCatalog interface {
	Search(ctx context.Context, fragments ...string) ([]Station, error)
	Nearest(ctx context.Context, lat, lon float64) (Station, error)
}

// Geocoder resolves a free-text place to coordinates.
type Geocoder interface {
	Locate(ctx context.Context, place string) (lat, lon float64, err error)
}
