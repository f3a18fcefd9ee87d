package openaq_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/openaq"
	"github.com/tidewind/aircast/internal/support/util/exception"
)

func newTestClient(t *testing.T, endpoint, apiKey string) *openaq.LocationClient {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Aircast.Ingest.APIEndpoint = endpoint
	cfg.Aircast.Ingest.APIKey = apiKey

	client, err := openaq.NewLocationClient(cfg)
	if err != nil {
		t.Fatalf("Failed to create location client: %v", err)
	}
	return client
}

func TestFetchLocations_BuildsRequestAndParsesResponse(t *testing.T) {
	var gotQuery, gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{"id": 42, "name": "Wellington Central", "country": {"name": "New Zealand"}, "provider": {"name": "AirNow"}},
				{"id": 7, "name": "Karori", "country": {"name": "New Zealand"}, "provider": {"name": "NIWA"}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "test-key")
	bbox := config.BoundingBox{West: 174.69, South: -41.35, East: 174.82, North: -41.24}

	metadata, err := client.FetchLocations(context.Background(), "Wellington", bbox)
	assert.NoError(t, err)

	assert.Equal(t, "/v3/locations", gotPath)
	assert.Contains(t, gotQuery, "bbox=174.69%2C-41.35%2C174.82%2C-41.24")
	assert.Contains(t, gotQuery, "limit=1000")
	assert.Equal(t, "test-key", gotKey)

	assert.Len(t, metadata, 2)
	assert.Equal(t, "Wellington Central", metadata[42].LocationName)
	assert.Equal(t, "AirNow", metadata[42].Provider)
	assert.Equal(t, "New Zealand", metadata[7].Country)
}

func TestFetchLocations_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	metadata, err := client.FetchLocations(context.Background(), "Nowhere", config.BoundingBox{})
	assert.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestFetchLocations_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.FetchLocations(context.Background(), "Wellington", config.BoundingBox{})
	assert.Error(t, err)

	var perr *exception.PipelineError
	assert.ErrorAs(t, err, &perr)
	assert.True(t, perr.IsRetryable())
}

func TestFetchLocations_ClientErrorIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.FetchLocations(context.Background(), "Wellington", config.BoundingBox{})
	assert.Error(t, err)

	var perr *exception.PipelineError
	assert.ErrorAs(t, err, &perr)
	assert.False(t, perr.IsRetryable())
}

func TestNewLocationClient_RequiresEndpoint(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Aircast.Ingest.APIEndpoint = ""
	_, err := openaq.NewLocationClient(cfg)
	assert.Error(t, err)
}
