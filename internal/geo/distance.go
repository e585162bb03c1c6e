package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/pkg/retry"
)

var (
	ErrNoRoutes       = errors.New("routing service returned no routes")
	ErrRoutingRequest = errors.New("routing request failed")
)

// Estimate is a driving-distance estimate between two coordinates.
type Estimate struct {
	DistanceKM  float64
	DurationMin float64
}

// DistanceProvider computes driving distance and duration between two
// coordinates. Implementations may fail or be slow; callers decide whether a
// failure is fatal.
type DistanceProvider interface {
	DistanceAndDuration(ctx context.Context, from, to common.Location) (Estimate, error)
}

type directionsResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
	Code string `json:"code"`
}

// MapboxClient implements DistanceProvider against the Mapbox Directions API.
type MapboxClient struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client

	budget retry.Budget
}

func NewMapboxClient(baseURL, accessToken string, budget retry.Budget) *MapboxClient {
	return &MapboxClient{
		BaseURL:     baseURL,
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		budget:      budget,
	}
}

func (m *MapboxClient) DistanceAndDuration(ctx context.Context, from, to common.Location) (Estimate, error) {
	var est Estimate

	err := retry.Do(ctx, m.budget, transientHTTP, func(ctx context.Context) error {
		e, err := m.fetch(ctx, from, to)
		if err != nil {
			return err
		}
		est = e
		return nil
	})
	if err != nil {
		return Estimate{}, domainerrors.NewUpstreamUnavailable("distance provider", err)
	}
	return est, nil
}

func (m *MapboxClient) fetch(ctx context.Context, from, to common.Location) (Estimate, error) {
	url := fmt.Sprintf(
		"%s/directions/v5/mapbox/driving/%f,%f;%f,%f?access_token=%s&overview=false",
		m.BaseURL, from.Lng, from.Lat, to.Lng, to.Lat, m.AccessToken,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: %v", ErrRoutingRequest, err)
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return Estimate{}, &upstreamError{err: fmt.Errorf("%w: %v", ErrRoutingRequest, err), transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Estimate{}, &upstreamError{
			err:       fmt.Errorf("%w: status %d", ErrRoutingRequest, resp.StatusCode),
			transient: resp.StatusCode >= 500,
		}
	}

	var result directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Estimate{}, fmt.Errorf("%w: %v", ErrRoutingRequest, err)
	}

	if result.Code != "Ok" || len(result.Routes) == 0 {
		return Estimate{}, fmt.Errorf("%w (code: %s)", ErrNoRoutes, result.Code)
	}

	route := result.Routes[0]
	return Estimate{
		DistanceKM:  route.Distance / 1000.0,
		DurationMin: route.Duration / 60.0,
	}, nil
}

// upstreamError tags an HTTP failure as retryable or not. Transport errors and
// 5xx responses are transient; 4xx and malformed bodies are permanent.
type upstreamError struct {
	err       error
	transient bool
}

func (e *upstreamError) Error() string { return e.err.Error() }
func (e *upstreamError) Unwrap() error { return e.err }

func transientHTTP(err error) bool {
	var ue *upstreamError
	if errors.As(err, &ue) {
		return ue.transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
