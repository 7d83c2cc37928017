package climate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Deps bundles the collaborators of a Service. Everything but Source is optional.
type Deps struct {
	Source   ObservationSource
	Cache    ObservationStore
	Tables   TableStore
	Catalog  StationCatalog
	Geocoder Geocoder
}

// Service fetches station observations, caches them, and serves aggregated
// climate tables per station and city.
type Service struct {
	source   ObservationSource
	cache    ObservationStore
	tables   TableStore
	catalog  StationCatalog
	geocoder Geocoder

	cities       []City
	historyStart Date
}

// NewService creates a new Service. Observations dated before historyStart
// are never aggregated and ranges starting before it are rejected; a zero
// historyStart keeps all.
func NewService(deps Deps, cities []City, historyStart Date) *Service {
	return &Service{
		source:       deps.Source,
		cache:        deps.Cache,
		tables:       deps.Tables,
		catalog:      deps.Catalog,
		geocoder:     deps.Geocoder,
		cities:       cities,
		historyStart: historyStart,
	}
}

// Cities returns the configured cities.
func (s *Service) Cities() []City {
	return s.cities
}

// City looks up a configured city by key.
func (s *Service) City(key string) (City, error) {
	for _, c := range s.cities {
		if c.Key == key {
			return c, nil
		}
	}
	return City{}, fmt.Errorf("%w: %q", ErrUnknownCity, key)
}

// Observations returns a station's observations, preferring the cache and
// falling back to the source on a miss.
func (s *Service) Observations(ctx context.Context, stationID string) ([]Observation, error) {
	if s.cache != nil {
		obs, err := s.cache.LoadObservations(ctx, stationID)
		if err == nil && len(obs) > 0 {
			return obs, nil
		}
		slog.Debug("observation cache miss", "station", stationID, "err", err)
	}
	return s.fetch(ctx, stationID)
}

// Refresh re-reads a station from the source, replacing whatever is cached.
func (s *Service) Refresh(ctx context.Context, stationID string) error {
	_, err := s.fetch(ctx, stationID)
	return err
}

func (s *Service) fetch(ctx context.Context, stationID string) ([]Observation, error) {
	if s.source == nil {
		return nil, fmt.Errorf("no observation source configured")
	}

	started := time.Now()
	obs, err := s.source.FetchObservations(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", stationID, err)
	}
	slog.Info("fetched observations",
		"station", stationID,
		"count", len(obs),
		"took", time.Since(started).Round(time.Millisecond),
	)

	if s.cache != nil {
		if err := s.cache.SaveObservations(ctx, stationID, obs); err != nil {
			slog.Warn("caching observations failed", "station", stationID, "err", err)
		}
	}
	if s.tables != nil {
		s.tables.Invalidate(stationID)
	}
	return obs, nil
}

// Table aggregates a station over [start, end] and smooths it when the
// Smoothed distribution is requested.
func (s *Service) Table(ctx context.Context, stationID string, start, end Date, dist Distribution) (Table, error) {
	if err := s.checkRange(start, end); err != nil {
		return nil, err
	}

	key := TableKey{StationID: stationID, Start: start, End: end}
	table, ok := s.cachedTable(key)
	if !ok {
		obs, err := s.Observations(ctx, stationID)
		if err != nil {
			return nil, err
		}
		table, err = Aggregate(stationID, s.withinHistory(obs), start, end)
		if err != nil {
			return nil, err
		}
		if s.tables != nil {
			s.tables.SaveTable(key, table)
		}
	}

	if dist == Smoothed {
		return Smooth(table, DefaultWindow, DefaultOrder)
	}
	return table, nil
}

// checkRange rejects inverted ranges and ranges reaching before the history
// start, whose observations are never loaded.
func (s *Service) checkRange(start, end Date) error {
	if start.After(end.Time) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	if !s.historyStart.IsZero() && start.Before(s.historyStart.Time) {
		return fmt.Errorf("%w: %s is before history start %s", ErrInvalidRange, start, s.historyStart)
	}
	return nil
}

func (s *Service) cachedTable(key TableKey) (Table, bool) {
	if s.tables == nil {
		return nil, false
	}
	return s.tables.GetTable(key)
}

func (s *Service) withinHistory(obs []Observation) []Observation {
	if s.historyStart.IsZero() {
		return obs
	}
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !o.Date.Before(s.historyStart.Time) {
			kept = append(kept, o)
		}
	}
	return kept
}

// YearChart returns the chart rows of a city for January 1 to December 31 of year.
func (s *Service) YearChart(ctx context.Context, cityKey string, year int, dist Distribution) (City, []ChartRow, error) {
	city, err := s.City(cityKey)
	if err != nil {
		return City{}, nil, err
	}

	start := NewDate(year, time.January, 1)
	end := NewDate(year, time.December, 31)
	table, err := s.Table(ctx, city.StationID, start, end, dist)
	if err != nil {
		return city, nil, err
	}
	return city, ChartRows(table), nil
}

// Combined fetches every station concurrently and combines their tables.
func (s *Service) Combined(ctx context.Context, stationIDs []string, start, end Date) ([]StationRecord, error) {
	if err := s.checkRange(start, end); err != nil {
		return nil, err
	}

	inputs := make([]StationObservations, len(stationIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range stationIDs {
		g.Go(func() error {
			obs, err := s.Observations(gctx, id)
			if err != nil {
				return err
			}
			inputs[i] = StationObservations{StationID: id, Observations: s.withinHistory(obs)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Combine(ctx, inputs, start, end)
}

// SearchStations returns catalog stations whose name contains any fragment.
func (s *Service) SearchStations(ctx context.Context, fragments ...string) ([]Station, error) {
	if s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	return s.catalog.Search(ctx, fragments...)
}

// NearestStation geocodes place and returns the closest catalog station.
func (s *Service) NearestStation(ctx context.Context, place string) (Station, error) {
	if s.geocoder == nil {
		return Station{}, ErrGeocoderUnavailable
	}
	if s.catalog == nil {
		return Station{}, ErrCatalogUnavailable
	}

	lat, lon, err := s.geocoder.Locate(ctx, place)
	if err != nil {
		return Station{}, fmt.Errorf("geocode %q: %w", place, err)
	}
	slog.Debug("geocoded place", "place", place, "lat", lat, "lon", lon)

	return s.catalog.Nearest(ctx, lat, lon)
}
