package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"courier-dispatch/internal/common"
	domainerrors "courier-dispatch/internal/errors"
	"courier-dispatch/internal/pkg/retry"
)

var (
	ErrNoGeocodeResult = errors.New("no geocoding results for address")
	ErrGeocodeRequest  = errors.New("geocoding request failed")
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (common.Location, error)
}

type geocodeResponse struct {
	Items []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
	} `json:"items"`
}

// GeocodingClient implements Geocoder against a HERE-style geocoding API.
type GeocodingClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	budget retry.Budget
}

func NewGeocodingClient(baseURL, apiKey string, budget retry.Budget) *GeocodingClient {
	return &GeocodingClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		budget:     budget,
	}
}

func (g *GeocodingClient) Geocode(ctx context.Context, address string) (common.Location, error) {
	var loc common.Location

	err := retry.Do(ctx, g.budget, transientHTTP, func(ctx context.Context) error {
		l, err := g.fetch(ctx, address)
		if err != nil {
			return err
		}
		loc = l
		return nil
	})
	if err != nil {
		return common.Location{}, domainerrors.GeocodeFailed(address, err)
	}
	return loc, nil
}

func (g *GeocodingClient) fetch(ctx context.Context, address string) (common.Location, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("apiKey", g.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return common.Location{}, fmt.Errorf("%w: %v", ErrGeocodeRequest, err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return common.Location{}, &upstreamError{err: fmt.Errorf("%w: %v", ErrGeocodeRequest, err), transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return common.Location{}, &upstreamError{
			err:       fmt.Errorf("%w: status %d", ErrGeocodeRequest, resp.StatusCode),
			transient: resp.StatusCode >= 500,
		}
	}

	var result geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return common.Location{}, fmt.Errorf("%w: %v", ErrGeocodeRequest, err)
	}

	// An empty result set means the address itself is unresolvable; retrying
	// would not help.
	if len(result.Items) == 0 {
		return common.Location{}, fmt.Errorf("%w: %q", ErrNoGeocodeResult, address)
	}

	pos := result.Items[0].Position
	if err := common.ValidateLatLng(pos.Lat, pos.Lng); err != nil {
		return common.Location{}, err
	}
	return common.NewLocation(pos.Lat, pos.Lng), nil
}
