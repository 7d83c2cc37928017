package ghcn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/station-climate/internal/climate"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

func TestFetchObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/csv/by_station/USW00094846.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/", false).WithBackoff(fastBackoff)
	obs, err := c.FetchObservations(context.Background(), "USW00094846")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 4 {
		t.Fatalf("expected 4 observations, got %d", len(obs))
	}
}

func TestFetchObservationsFiltersElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, false).
		WithBackoff(fastBackoff).
		WithElements(climate.ElementTMin, climate.ElementTMax)
	obs, err := c.FetchObservations(context.Background(), "USW00094846")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 temperature observations, got %d", len(obs))
	}
}

func TestFetchObservationsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, false).WithBackoff(fastBackoff)
	if _, err := c.FetchObservations(context.Background(), "USW00094846"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestFetchObservationsGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, false).WithBackoff(fastBackoff)
	_, err := c.FetchObservations(context.Background(), "USW00094846")
	if !errors.Is(err, errServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	if n := calls.Load(); n != int32(fastBackoff.MaxRetries+1) {
		t.Fatalf("expected %d attempts, got %d", fastBackoff.MaxRetries+1, n)
	}
}

func TestFetchObservationsUnknownStation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, false).WithBackoff(fastBackoff)
	_, err := c.FetchObservations(context.Background(), "XXX00000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected no retries for a missing station, got %d attempts", n)
	}
}

func TestFetchObservationsHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.Client(), srv.URL, false)
	if _, err := c.FetchObservations(ctx, "USW00094846"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRemoteCatalogLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ghcnd-stations.txt" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		_, _ = w.Write([]byte(sampleCatalog))
	}))
	defer srv.Close()

	rc := NewRemoteCatalog(NewClient(srv.Client(), srv.URL, false).WithBackoff(fastBackoff))

	got, err := rc.Search(context.Background(), "OHARE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "USW00094846" {
		t.Fatalf("unexpected search result %+v", got)
	}

	s, err := rc.Nearest(context.Background(), 25.79, -80.32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "USW00012839" {
		t.Fatalf("expected Miami, got %s", s.ID)
	}

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected the catalog to be downloaded once, got %d", n)
	}
}
