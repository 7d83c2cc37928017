package httpapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/station-climate/internal/climate"
	"github.com/i474232898/station-climate/internal/ghcn"
	"github.com/i474232898/station-climate/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *climate.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"cities": service.Cities(),
		})
	})

	v1.Get("/stations", func(c *fiber.Ctx) error {
		q := stationsQuery{Q: strings.TrimSpace(c.Query("q"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stations, err := service.SearchStations(c.UserContext(), q.Q)
		if err != nil {
			return toFiberError(err, "failed to search stations")
		}
		return c.JSON(fiber.Map{
			"query":    q.Q,
			"stations": stations,
		})
	})

	v1.Get("/stations/nearest", func(c *fiber.Ctx) error {
		q := nearestQuery{City: strings.TrimSpace(c.Query("city"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		station, err := service.NearestStation(c.UserContext(), q.City)
		if err != nil {
			return toFiberError(err, "failed to find nearest station")
		}
		return c.JSON(station)
	})

	v1.Get("/climate", func(c *fiber.Ctx) error {
		var req climateQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		dist := climate.Distribution(req.Distribution)
		city, rows, err := service.YearChart(c.UserContext(), req.City, req.Year, dist)
		if err != nil {
			return toFiberError(err, "failed to build climate chart")
		}

		return c.JSON(fiber.Map{
			"city":         city,
			"title":        "Weather data for " + city.Title + " " + strconv.Itoa(req.Year),
			"year":         req.Year,
			"distribution": dist,
			"x_range": fiber.Map{
				"start": climate.NewDate(req.Year, time.January, 1),
				"end":   climate.NewDate(req.Year, time.December, 31),
			},
			"columns": climate.Statistics,
			"rows":    rows,
		})
	})

	v1.Get("/climate/combined", func(c *fiber.Ctx) error {
		var req combinedQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Combined(c.UserContext(), req.Stations, req.From, req.To)
		if err != nil {
			return toFiberError(err, "failed to combine stations")
		}

		if req.Format == "csv" {
			body, err := combinedCSV(records)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to encode csv")
			}
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
			c.Set(fiber.HeaderContentDisposition, `attachment; filename="combined_stations.csv"`)
			return c.Send(body)
		}

		return c.JSON(fiber.Map{
			"stations": req.Stations,
			"from":     req.From,
			"to":       req.To,
			"records":  records,
		})
	})
}

// toFiberError maps service errors onto HTTP status codes.
func toFiberError(err error, fallback string) error {
	switch {
	case errors.Is(err, climate.ErrInvalidRange):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, climate.ErrUnknownCity),
		errors.Is(err, climate.ErrDataUnavailable),
		errors.Is(err, climate.ErrStationNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, ghcn.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, climate.ErrInsufficientSamples),
		errors.Is(err, climate.ErrNonUniformSpacing):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, climate.ErrCatalogUnavailable),
		errors.Is(err, climate.ErrGeocoderUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		slog.Error(fallback, "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

// stationsQuery holds query parameters for the station search endpoint.
type stationsQuery struct {
	Q string `validate:"required,min=2"`
}

// nearestQuery holds query parameters for the nearest-station endpoint.
type nearestQuery struct {
	City string `validate:"required"`
}

// climateQuery holds query parameters for the chart endpoint.
type climateQuery struct {
	City         string `validate:"required"`
	Year         int    `validate:"gte=1800,lte=2100"`
	Distribution string `validate:"oneof=Discrete Smoothed"`
}

func (q *climateQuery) bind(c *fiber.Ctx) error {
	q.City = strings.TrimSpace(c.Query("city"))
	q.Distribution = c.Query("distribution", string(climate.Discrete))

	yearStr := c.Query("year")
	if yearStr == "" {
		return errors.New("year query parameter is required")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return errors.New("year must be an integer")
	}
	q.Year = year
	return nil
}

// combinedQuery holds query parameters for the combined-stations endpoint.
type combinedQuery struct {
	Stations []string     `validate:"required,min=1,max=20,dive,required"`
	From     climate.Date `validate:"-"`
	To       climate.Date `validate:"-"`
	Format   string       `validate:"oneof=json csv"`
}

func (q *combinedQuery) bind(c *fiber.Ctx) error {
	for _, id := range strings.Split(c.Query("stations"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			q.Stations = append(q.Stations, id)
		}
	}
	q.Format = c.Query("format", "json")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := climate.ParseDate(fromStr)
	if err != nil {
		return errors.New("invalid from date; use YYYY-MM-DD")
	}
	to, err := climate.ParseDate(toStr)
	if err != nil {
		return errors.New("invalid to date; use YYYY-MM-DD")
	}
	if from.After(to.Time) {
		return climate.ErrInvalidRange
	}

	q.From = from
	q.To = to
	return nil
}

// combinedCSV renders combined records in the layout of the cached
// combined_stations.csv file.
func combinedCSV(records []climate.StationRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"DATE", "actual_low", "actual_high", "record_min_temp", "average_min_temp", "average_max_temp", "record_max_temp", "ID"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			r.Date.String(),
			formatTemp(r.ActualLow),
			formatTemp(r.ActualHigh),
			formatTemp(r.RecordMinTemp),
			formatTemp(r.AverageMinTemp),
			formatTemp(r.AverageMaxTemp),
			formatTemp(r.RecordMaxTemp),
			r.StationID,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatTemp(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
