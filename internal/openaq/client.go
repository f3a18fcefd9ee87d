// Package openaq implements the metadata fetcher against the OpenAQ locations API.
package openaq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const ModuleLocationClient = "openaq"

// locationLimit caps the number of results requested per city.
const locationLimit = 1000

// LocationClient fetches location metadata for a city's bounding box.
type LocationClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewLocationClient creates a LocationClient for the configured API endpoint.
func NewLocationClient(cfg *config.Config) (*LocationClient, error) {
	if cfg.Aircast.Ingest.APIEndpoint == "" {
		return nil, exception.NewConfigurationError(ModuleLocationClient, "api_endpoint is not configured", nil)
	}
	return &LocationClient{
		endpoint: strings.TrimRight(cfg.Aircast.Ingest.APIEndpoint, "/"),
		apiKey:   cfg.Aircast.Ingest.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// FetchLocations issues a single GET to the locations endpoint with the city's
// bounding box and a result cap, and builds a LocationMetadata record for every
// result object, keyed by identifier. A response with zero results yields an
// empty mapping, not an error. A non-success status yields an upstream request
// error which propagates to the caller; there is no retry here.
func (c *LocationClient) FetchLocations(ctx context.Context, city string, bbox config.BoundingBox) (map[int64]LocationMetadata, error) {
	params := url.Values{}
	params.Set("bbox", bbox.QueryValue())
	params.Set("limit", fmt.Sprintf("%d", locationLimit))

	reqURL := fmt.Sprintf("%s/v3/locations?%s", c.endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, exception.NewPipelineError(ModuleLocationClient, "failed to create locations request", err, false, false)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, exception.NewPipelineError(ModuleLocationClient, "locations API call failed", err, false, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		bodyString := strings.TrimSpace(string(bodyBytes))
		errMsg := fmt.Sprintf("error response from locations API for city '%s': status code %d", city, resp.StatusCode)
		isRetryable := resp.StatusCode >= 500
		return nil, exception.NewUpstreamRequestError(ModuleLocationClient, errMsg, errors.New(bodyString), isRetryable)
	}

	var payload locationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, exception.NewPipelineError(ModuleLocationClient, "failed to decode locations response", err, false, false)
	}

	metadata := make(map[int64]LocationMetadata, len(payload.Results))
	for _, loc := range payload.Results {
		metadata[loc.ID] = LocationMetadata{
			LocationID:   loc.ID,
			LocationName: loc.Name,
			Country:      loc.Country.Name,
			Provider:     loc.Provider.Name,
		}
	}

	logger.Infof("Fetched metadata for %d locations in %s.", len(metadata), city)
	return metadata, nil
}
