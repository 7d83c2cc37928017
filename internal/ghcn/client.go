package ghcn

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/station-climate/internal/climate"
)

// DefaultBaseURL is the public, anonymous-read NOAA GHCN-Daily bucket.
const DefaultBaseURL = "https://noaa-ghcn-pds.s3.amazonaws.com"

// Client reads station files and the station catalog from a GHCN-Daily
// bucket. It implements climate.ObservationSource.
type Client struct {
	baseURL     string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
	dropFlagged bool
	elements    []climate.Element
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(client *http.Client, baseURL string, dropFlagged bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit:     newBreaker("ghcn"),
		dropFlagged: dropFlagged,
	}
}

// WithBackoff replaces the retry policy.
func (c *Client) WithBackoff(b BackoffConfig) *Client {
	c.httpCfg.Backoff = b
	return c
}

// WithElements restricts fetched observations to the given elements.
func (c *Client) WithElements(elements ...climate.Element) *Client {
	c.elements = elements
	return c
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	u := c.baseURL + path
	return doRequestWithResilience(ctx, c.httpCfg, c.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	})
}

// FetchObservations downloads and parses the full history of one station.
func (c *Client) FetchObservations(ctx context.Context, stationID string) ([]climate.Observation, error) {
	if stationID == "" {
		return nil, fmt.Errorf("station id is required")
	}

	resp, err := c.get(ctx, "/csv/by_station/"+url.PathEscape(stationID)+".csv")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	obs, stats, err := ParseObservations(resp.Body, ParseOptions{
		StationID:   stationID,
		DropFlagged: c.dropFlagged,
		Elements:    c.elements,
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", stationID, err)
	}
	if stats.Skipped > 0 || stats.Flagged > 0 || stats.Ignored > 0 {
		slog.Debug("parsed station file",
			"station", stationID,
			"rows", stats.Rows,
			"kept", stats.Kept,
			"skipped", stats.Skipped,
			"flagged", stats.Flagged,
			"ignored", stats.Ignored,
		)
	}
	return obs, nil
}

// FetchCatalog downloads and parses ghcnd-stations.txt.
func (c *Client) FetchCatalog(ctx context.Context) (*Catalog, error) {
	resp, err := c.get(ctx, "/ghcnd-stations.txt")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	catalog, err := ParseCatalog(resp.Body)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded station catalog", "stations", catalog.Len())
	return catalog, nil
}
