// Package routing resolves driving routes between two coordinates.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/models"
)

// Resolver turns an origin/destination pair into a driving route.
type Resolver interface {
	Resolve(ctx context.Context, origin, dest models.Coord) (*models.Route, error)
}

// OSRMResolver performs route lookups against an OSRM HTTP server.
type OSRMResolver struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewOSRMResolver(endpoint string, client *http.Client, logger *slog.Logger) *OSRMResolver {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &OSRMResolver{endpoint: endpoint, client: client, logger: logger}
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Resolve queries /route/v1/driving and returns the first route with its
// full GeoJSON geometry.
func (o *OSRMResolver) Resolve(ctx context.Context, origin, dest models.Coord) (*models.Route, error) {
	// OSRM takes lon,lat pairs
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		o.endpoint, origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build route request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &apperrors.NetworkError{Op: "route lookup", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &apperrors.NetworkError{Op: "route lookup", Err: err}
	}

	var out osrmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &apperrors.RouteResolutionError{Status: resp.Status}
		}
		return nil, &apperrors.RouteResolutionError{Status: "InvalidResponse", Err: err}
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		status := out.Code
		if status == "" {
			status = resp.Status
		}
		o.logger.Warn("routing provider returned no route",
			slog.String("code", status),
			slog.String("message", out.Message),
		)
		return nil, &apperrors.RouteResolutionError{Status: status}
	}

	r := out.Routes[0]
	points := make([]models.Coord, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		points = append(points, models.Coord{Lat: c[1], Lng: c[0]})
	}

	return &models.Route{
		Points:          points,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, nil
}
