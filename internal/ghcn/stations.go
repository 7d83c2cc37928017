package ghcn

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/i474232898/station-climate/internal/climate"
	"github.com/i474232898/station-climate/internal/common"
)

const earthRadiusKm = 6371.0

// Catalog is an in-memory copy of ghcnd-stations.txt.
type Catalog struct {
	stations []climate.Station
	byID     map[string]int
}

// NewCatalog builds a catalog from already parsed stations.
func NewCatalog(stations []climate.Station) *Catalog {
	c := &Catalog{
		stations: stations,
		byID:     make(map[string]int, len(stations)),
	}
	for i, s := range stations {
		c.byID[s.ID] = i
	}
	return c
}

// ParseCatalog reads the fixed-width station list. Lines too short to hold
// an id and coordinates are ignored.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var stations []climate.Station

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 256), 1<<20)
	for sc.Scan() {
		if s, ok := parseStationLine(sc.Text()); ok {
			stations = append(stations, s)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read station catalog: %w", err)
	}
	return NewCatalog(stations), nil
}

// field returns the trimmed 1-based inclusive column range [from, to] of line.
func field(line string, from, to int) string {
	if from > len(line) {
		return ""
	}
	to = min(to, len(line))
	return strings.TrimSpace(line[from-1 : to])
}

func parseStationLine(line string) (climate.Station, bool) {
	id := field(line, 1, 11)
	if id == "" {
		return climate.Station{}, false
	}
	lat, err := strconv.ParseFloat(field(line, 13, 20), 64)
	if err != nil {
		return climate.Station{}, false
	}
	lon, err := strconv.ParseFloat(field(line, 22, 30), 64)
	if err != nil {
		return climate.Station{}, false
	}
	elev, _ := strconv.ParseFloat(field(line, 32, 37), 64)

	return climate.Station{
		ID:        id,
		Latitude:  lat,
		Longitude: lon,
		Elevation: elev,
		State:     field(line, 39, 40),
		Name:      field(line, 42, 71),
		GSNFlag:   field(line, 73, 75),
		HCNFlag:   field(line, 77, 79),
		WMOID:     field(line, 81, 85),
	}, true
}

// Len returns the number of stations.
func (c *Catalog) Len() int {
	return len(c.stations)
}

// Get looks up a station by id.
func (c *Catalog) Get(id string) (climate.Station, bool) {
	i, ok := c.byID[id]
	if !ok {
		return climate.Station{}, false
	}
	return c.stations[i], true
}

// Search returns stations whose name contains any of the fragments, in
// catalog order.
func (c *Catalog) Search(fragments ...string) []climate.Station {
	var out []climate.Station
	for _, s := range c.stations {
		if common.ContainsAnyFold(s.Name, fragments...) {
			out = append(out, s)
		}
	}
	return out
}

// Nearest returns the station closest to (lat, lon) by great-circle distance.
func (c *Catalog) Nearest(lat, lon float64) (climate.Station, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, s := range c.stations {
		if d := haversineKm(lat, lon, s.Latitude, s.Longitude); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return climate.Station{}, false
	}
	return c.stations[best], true
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// RemoteCatalog downloads the catalog on first use and keeps it in memory.
// It implements climate.StationCatalog.
type RemoteCatalog struct {
	client *Client

	mu      sync.Mutex
	catalog *Catalog
}

// NewRemoteCatalog creates a lazily loaded catalog backed by client.
func NewRemoteCatalog(client *Client) *RemoteCatalog {
	return &RemoteCatalog{client: client}
}

func (r *RemoteCatalog) load(ctx context.Context) (*Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return r.catalog, nil
	}
	c, err := r.client.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}
	r.catalog = c
	return c, nil
}

func (r *RemoteCatalog) Search(ctx context.Context, fragments ...string) ([]climate.Station, error) {
	c, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Search(fragments...), nil
}

func (r *RemoteCatalog) Nearest(ctx context.Context, lat, lon float64) (climate.Station, error) {
	c, err := r.load(ctx)
	if err != nil {
		return climate.Station{}, err
	}
	s, ok := c.Nearest(lat, lon)
	if !ok {
		return climate.Station{}, climate.ErrStationNotFound
	}
	return s, nil
}
