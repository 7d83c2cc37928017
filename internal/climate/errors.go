package climate

import "errors"

var (
	// ErrInvalidRange is returned when a requested start date is after its end date.
	ErrInvalidRange = errors.New("invalid date range: start is after end")

	// ErrDataUnavailable is returned when the observations carry no TMIN or TMAX values.
	ErrDataUnavailable = errors.New("no temperature observations available")

	// ErrInsufficientSamples is returned when a table has fewer rows than the smoothing window.
	ErrInsufficientSamples = errors.New("not enough rows for smoothing window")

	// ErrMixedStations is returned when one aggregation receives observations from more than one station.
	ErrMixedStations = errors.New("observations belong to more than one station")

	// ErrInvalidWindow is returned for a smoothing window that is not odd and positive or not above the order.
	ErrInvalidWindow = errors.New("invalid smoothing window or polynomial order")

	// ErrNonUniformSpacing is returned when a table to smooth skips a day.
	ErrNonUniformSpacing = errors.New("table rows are not consecutive days")

	// ErrUnknownCity is returned for a city key that is not configured.
	ErrUnknownCity = errors.New("unknown city")

	// ErrCatalogUnavailable is returned when station lookups run without a catalog.
	ErrCatalogUnavailable = errors.New("station catalog not configured")

	// ErrGeocoderUnavailable is returned when a nearest-station lookup runs without a geocoder.
	ErrGeocoderUnavailable = errors.New("geocoder not configured")

	// ErrStationNotFound is returned when no catalog station matches a lookup.
	ErrStationNotFound = errors.New("no matching station")
)
