package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/wave-energy/internal/domain"
)

// EnergyService is the interface the handlers query.
type EnergyService interface {
	Locations() ([]domain.Location, error)
	DateKeys(from, to int) ([]int, error)
	EnergyForLocation(ctx context.Context, name string, from, to int) (*domain.WideTable, error)
}

// Handler handles HTTP requests for wave energy tables.
type Handler struct {
	service EnergyService
}

// NewHandler creates a new HTTP handler.
func NewHandler(service EnergyService) *Handler {
	return &Handler{service: service}
}

// LocationResponse is one entry of GET /v1/locations.
type LocationResponse struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"` // On the grid's 0–360 axis.
}

// EnergyRow is one timestamp of an energy table. Missing values are null.
type EnergyRow struct {
	Time   string              `json:"time"`
	Values map[string]*float64 `json:"values"`
}

// EnergyResponse is the response of GET /v1/locations/:name/energy.
type EnergyResponse struct {
	Location string      `json:"location"`
	Columns  []string    `json:"columns"`
	Rows     []EnergyRow `json:"rows"`
	Count    int         `json:"count"`
}

// GetLocations handles GET /v1/locations.
func (h *Handler) GetLocations(c *gin.Context) {
	locations, err := h.service.Locations()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	response := make([]LocationResponse, len(locations))
	for i, loc := range locations {
		response[i] = LocationResponse{
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": response,
		"count":     len(response),
	})
}

// GetDates handles GET /v1/dates.
func (h *Handler) GetDates(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	keys, err := h.service.DateKeys(from, to)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dates": keys,
		"count": len(keys),
	})
}

// GetEnergy handles GET /v1/locations/:name/energy?from=YYYYMM&to=YYYYMM.
func (h *Handler) GetEnergy(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	table, err := h.service.EnergyForLocation(c.Request.Context(), c.Param("name"), from, to)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	rows := make([]EnergyRow, table.Len())
	for i, ts := range table.Index {
		values := make(map[string]*float64, len(table.Columns))
		for _, col := range table.Columns {
			if cell := table.Cell(i, col); cell.Valid {
				v := cell.Value
				values[col] = &v
			} else {
				values[col] = nil
			}
		}
		rows[i] = EnergyRow{Time: ts.Time().Format(time.RFC3339), Values: values}
	}

	c.JSON(http.StatusOK, EnergyResponse{
		Location: table.Location,
		Columns:  table.Columns,
		Rows:     rows,
		Count:    len(rows),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseRange reads the optional from/to date key bounds, answering 400 on bad input.
func parseRange(c *gin.Context) (int, int, bool) {
	bounds := [2]int{}
	for i, name := range []string{"from", "to"} {
		s := c.Query(name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: %q", name, s)})
			return 0, 0, false
		}
		bounds[i] = v
	}
	if bounds[0] != 0 && bounds[1] != 0 && bounds[0] > bounds[1] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return 0, 0, false
	}
	return bounds[0], bounds[1], true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrLocationNotFound), errors.Is(err, domain.ErrDateDiscovery):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
