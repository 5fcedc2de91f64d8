// Package woocommerce serves the store ports from a WooCommerce shop over its REST API.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	restPath     = "/wp-json/wc/v3"
	trackingPath = "/wp-json/wc-shipment-tracking/v3"
	userAgent    = "MainStem-Bridge/1.0"
	maxBodyBytes = 8 << 20
)

// APIError is a non-2xx answer from the shop.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce: status %d: %s %s", e.StatusCode, e.Code, e.Message)
}

type Config struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	// Transport overrides the default transport. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the WooCommerce REST API with consumer key basic auth.
// It implements OrderRepository, ShipmentTracker and ProductCatalog.
type Client struct {
	httpClient     *http.Client
	storeURL       string
	consumerKey    string
	consumerSecret string
	metrics        *Metrics
}

func New(cfg Config, metrics *Metrics) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, errors.New("woocommerce: store URL is required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, errors.New("woocommerce: consumer key and secret are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		storeURL:       strings.TrimSuffix(cfg.StoreURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		metrics:        metrics,
	}, nil
}

// do sends a request and decodes a 2xx JSON body into out. endpoint labels metrics.
func (c *Client) do(ctx context.Context, endpoint, method, url string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, endpoint, 0, start)
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.record(ctx, endpoint, resp.StatusCode, start)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload wooError
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		return resp.Header, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) record(ctx context.Context, endpoint string, status int, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordRequest(ctx, endpoint, status, time.Since(start).Seconds())
}

func (c *Client) restURL(path string) string {
	return c.storeURL + restPath + path
}

func orderPath(id int64) string {
	return "/orders/" + strconv.FormatInt(id, 10)
}
