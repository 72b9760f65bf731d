// Package geoapi talks to the public "what is my address" and geolocation services.
package geoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/metrics"
	"github.com/evyataryagoni/ipgeobot/internal/models"
)

const (
	DefaultSelfIPURL = "https://api.ipify.org?format=json"
	DefaultGeoAPIURL = "https://ipapi.co/%s/json/"
	DefaultTimeout   = 10 * time.Second

	// ipapi.co answers 403 to requests without a user agent
	userAgent = "ipgeobot/1.0"

	endpointSelf = "self"
	endpointGeo  = "geo"
)

// HTTPClient is the subset of *http.Client the lookup needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the endpoints and the per-call timeout
type Config struct {
	SelfIPURL string        // returns {"ip": "..."}
	GeoAPIURL string        // template, %s is replaced with the address
	Timeout   time.Duration // applied to each outbound call separately
}

// Client resolves an IPQuery into a GeoRecord.
// It makes at most two sequential calls and never retries.
type Client struct {
	cfg     Config
	http    HTTPClient
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// selfResponse is the payload of the self-discovery service
type selfResponse struct {
	IP string `json:"ip"`
}

// geoResponse is the payload of the geolocation service.
// Error is kept raw: ipapi.co sends `true`, other services send a string.
type geoResponse struct {
	models.GeoRecord
	Error  json.RawMessage `json:"error,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// NewClient creates a lookup client. httpClient, m and log may be nil.
func NewClient(cfg Config, httpClient HTTPClient, m *metrics.Metrics, log *logger.Logger) *Client {
	if cfg.SelfIPURL == "" {
		cfg.SelfIPURL = DefaultSelfIPURL
	}
	if cfg.GeoAPIURL == "" {
		cfg.GeoAPIURL = DefaultGeoAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		metrics: m,
		logger:  log.WithComponent("GeoClient"),
	}
}

// Lookup runs self-discovery when the query has no address,
// then the geolocation call. Any failure ends the lookup.
func (c *Client) Lookup(ctx context.Context, query models.IPQuery) models.LookupResult {
	address := query.Address

	if query.IsSelf() {
		var resp selfResponse
		if err := c.getJSON(ctx, endpointSelf, c.cfg.SelfIPURL, &resp); err != nil {
			c.logger.Warn().Err(err).Msg("Self-address discovery failed")
			return models.Failure(Classify(err))
		}
		if resp.IP == "" {
			return models.Failure(models.LookupError{
				Kind:   models.ErrUnknown,
				Detail: "self-address service returned no address",
			})
		}
		address = resp.IP
		c.logger.Debug().Str("ip", address).Msg("Discovered own address")
	}

	var resp geoResponse
	geoURL := strings.Replace(c.cfg.GeoAPIURL, "%s", url.PathEscape(address), 1)
	if err := c.getJSON(ctx, endpointGeo, geoURL, &resp); err != nil {
		c.logger.Warn().Err(err).Str("ip", address).Msg("Geolocation request failed")
		return models.Failure(Classify(err))
	}

	if reportsError(resp.Error) {
		c.logger.Warn().
			Str("ip", address).
			Str("reason", resp.Reason).
			Msg("Geolocation service reported an error")
		return models.Failure(models.LookupError{
			Kind:    models.ErrRemoteReported,
			Address: address,
		})
	}

	record := resp.GeoRecord
	return models.Success(&record)
}

// getJSON performs one GET bounded by the configured timeout and decodes the body.
// Non-2xx responses are still decoded because the services describe errors in JSON.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("cannot build a request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.OutboundRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status code %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("cannot parse a response: %w", err)
	}

	return nil
}

// reportsError treats any error value except null and false as an error indicator
func reportsError(raw json.RawMessage) bool {
	value := strings.TrimSpace(string(raw))
	return value != "" && value != "null" && value != "false"
}
