// Package backend talks to the Carnest REST API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/metrics"
	"github.com/carnest/carnest-go/internal/models"
)

const (
	ridesPath        = "/api/ride/search/"
	rideDetailPath   = "/api/ride/%d/"
	vehiclesPath     = "/api/vehicle/"
	govtIDTypesPath  = "/api/user/govt-id-types/"
	userProfilePath  = "/api/user/profile/"
	maxResponseBytes = 5 << 20
	userAgent        = "carnest-go/1.0"
)

type Client interface {
	FetchRideList(ctx context.Context, search *models.RideSearch) ([]models.Ride, error)
	FetchRideByID(ctx context.Context, id int64, token string) (*models.RideDetail, error)
	FetchVehicleList(ctx context.Context, token string) ([]models.Vehicle, error)
	FetchGovtIDTypes(ctx context.Context, token string) ([]models.GovtIDType, error)
	FetchUserProfile(ctx context.Context, token string) (*models.Profile, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.Recorder
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, rec metrics.Recorder) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		metrics:    rec,
	}
}

func (c *client) FetchRideList(ctx context.Context, search *models.RideSearch) ([]models.Ride, error) {
	q := url.Values{}
	if search != nil {
		if search.GoingFrom != "" {
			q.Set("going_from", search.GoingFrom)
		}
		if search.GoingTo != "" {
			q.Set("going_to", search.GoingTo)
		}
		if search.Date != "" {
			q.Set("date", search.Date)
		}
		if search.Seats > 0 {
			q.Set("seats", strconv.Itoa(search.Seats))
		}
	}

	var resp models.RideListResponse
	if err := c.get(ctx, "ride_list", ridesPath, q, "", &resp); err != nil {
		return nil, err
	}
	if resp.Rides == nil {
		resp.Rides = []models.Ride{}
	}
	return resp.Rides, nil
}

func (c *client) FetchRideByID(ctx context.Context, id int64, token string) (*models.RideDetail, error) {
	var detail models.RideDetail
	if err := c.get(ctx, "ride_detail", fmt.Sprintf(rideDetailPath, id), nil, token, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *client) FetchVehicleList(ctx context.Context, token string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := c.get(ctx, "vehicle_list", vehiclesPath, nil, token, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *client) FetchGovtIDTypes(ctx context.Context, token string) ([]models.GovtIDType, error) {
	var types []models.GovtIDType
	if err := c.get(ctx, "govt_id_types", govtIDTypesPath, nil, token, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (c *client) FetchUserProfile(ctx context.Context, token string) (*models.Profile, error) {
	var profile models.Profile
	if err := c.get(ctx, "user_profile", userProfilePath, nil, token, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// get performs an authenticated GET and decodes a 2xx JSON body into out.
// Non-2xx responses become *APIError, transport failures *NetworkError.
func (c *client) get(ctx context.Context, endpoint, path string, query url.Values, token string, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(endpoint, "network_error", time.Since(start))
		c.logger.Error("backend request failed",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return &apperrors.NetworkError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendCall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &apperrors.NetworkError{Op: "GET " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := apperrors.FromResponse(resp.StatusCode, body)
		c.logger.Warn("backend returned error",
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", apiErr.Message),
		)
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
