package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/miniurl/miniurl/internal/shortener"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public ip-api JSON endpoint.
const DefaultBaseURL = "http://ip-api.com/json"

// Client resolves IP addresses to locations via an ip-api compatible
// provider. Lookups are advisory: any failure degrades to the Unknown
// sentinel for whichever fields are unavailable, and no error is returned.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a geolocation client against the given provider base URL
// with a per-lookup timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Lookup resolves the location of an IP address.
func (c *Client) Lookup(ctx context.Context, ip string) shortener.Location {
	unknown := shortener.Location{
		City:    shortener.UnknownLocation,
		Region:  shortener.UnknownLocation,
		Country: shortener.UnknownLocation,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, ip), nil)
	if err != nil {
		c.logger.Warn("geolocation request failed", zap.String("ip", ip), zap.Error(err))

		return unknown
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))

		return unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("geolocation provider returned non-OK status",
			zap.String("ip", ip),
			zap.Int("status", resp.StatusCode),
		)

		return unknown
	}

	var data struct {
		Status     string `json:"status"`
		City       string `json:"city"`
		RegionName string `json:"regionName"`
		Country    string `json:"country"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.logger.Warn("geolocation decode failed", zap.String("ip", ip), zap.Error(err))

		return unknown
	}

	if data.Status != "" && data.Status != "success" {
		return unknown
	}

	loc := shortener.Location{
		City:    data.City,
		Region:  data.RegionName,
		Country: data.Country,
	}

	if loc.City == "" {
		loc.City = shortener.UnknownLocation
	}

	if loc.Region == "" {
		loc.Region = shortener.UnknownLocation
	}

	if loc.Country == "" {
		loc.Country = shortener.UnknownLocation
	}

	return loc
}
