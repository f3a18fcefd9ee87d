// Package credentials exchanges a delegation token for temporary object-store
// credentials via a Knox IDBroker gateway.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/support/util/exception"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

const ModuleCredentials = "credentials"

const (
	tokenPath       = "/gateway/dt/knoxtoken/api/v1/token"
	credentialsPath = "/gateway/aws-cab/cab/api/v1/credentials"
	defaultRegion   = "us-east-1"
)

// Credentials are the temporary keys returned by the IDBroker gateway.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type credentialsResponse struct {
	Credentials struct {
		AccessKeyID     string `json:"AccessKeyId"`
		SecretAccessKey string `json:"SecretAccessKey"`
		SessionToken    string `json:"SessionToken"`
	} `json:"Credentials"`
}

// Broker fetches temporary credentials from an IDBroker gateway.
type Broker struct {
	endpoint        string
	delegationToken string
	client          *http.Client
}

// NewBroker creates a Broker from the credentials configuration. It returns
// nil when no endpoint is configured, meaning ambient credentials are used.
func NewBroker(cfg config.CredentialsConfig) *Broker {
	if cfg.IDBrokerEndpoint == "" {
		return nil
	}
	return &Broker{
		endpoint:        cfg.IDBrokerEndpoint,
		delegationToken: cfg.DelegationToken,
		client:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Broker) getJSON(ctx context.Context, url, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return exception.NewConfigurationError(ModuleCredentials, fmt.Sprintf("failed to build request for %s", url), err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
		req.Header.Set("cache-control", "no-cache")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return exception.NewUpstreamRequestError(ModuleCredentials, fmt.Sprintf("request to '%s' failed", url), err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return exception.NewUpstreamRequestError(
			ModuleCredentials,
			fmt.Sprintf("unexpected status %d from '%s'", resp.StatusCode, url),
			nil,
			resp.StatusCode >= 500,
		)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return exception.NewUpstreamRequestError(ModuleCredentials, fmt.Sprintf("failed to decode response from '%s'", url), err, false)
	}
	return nil
}

// Fetch obtains an access token from the gateway and exchanges it for
// temporary credentials.
func (b *Broker) Fetch(ctx context.Context) (*Credentials, error) {
	var token tokenResponse
	if err := b.getJSON(ctx, b.endpoint+tokenPath, b.delegationToken, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, exception.NewUpstreamRequestError(ModuleCredentials, "token endpoint returned an empty access token", nil, false)
	}

	var creds credentialsResponse
	if err := b.getJSON(ctx, b.endpoint+credentialsPath, token.AccessToken, &creds); err != nil {
		return nil, err
	}

	logger.Infof("Obtained temporary storage credentials from IDBroker.")
	return &Credentials{
		AccessKeyID:     creds.Credentials.AccessKeyID,
		SecretAccessKey: creds.Credentials.SecretAccessKey,
		SessionToken:    creds.Credentials.SessionToken,
		Region:          defaultRegion,
	}, nil
}

// Apply exports the credentials into the process environment so that storage
// clients pick them up through the default credential chain.
func (c *Credentials) Apply() error {
	pairs := map[string]string{
		"AWS_ACCESS_KEY_ID":     c.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": c.SecretAccessKey,
		"AWS_SESSION_TOKEN":     c.SessionToken,
		"AWS_DEFAULT_REGION":    c.Region,
	}
	for key, value := range pairs {
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}
