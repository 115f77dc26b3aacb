// Package loki fetches log lines from a Grafana Loki instance so the
// analyzer can run over aggregated logs instead of local files.
package loki

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/logsleuth/logsleuth/internal/logger"
)

const (
	// DefaultURL is the standard local Loki endpoint.
	DefaultURL = "http://localhost:3100"

	// DefaultQuery selects the application job stream.
	DefaultQuery = `{job="application"}`

	// DefaultLimit caps entries per query.
	DefaultLimit = 1000

	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second
)

var (
	levelPattern   = regexp.MustCompile(`(ERROR|WARNING|INFO|DEBUG|CRITICAL)`)
	servicePattern = regexp.MustCompile(`services\.(\w+)`)
)

// Config holds Loki connection settings.
type Config struct {
	// URL is the Loki base URL.
	URL string

	// Username and Password enable basic auth when both are set.
	Username string
	Password string

	// Timeout for HTTP requests. Zero means DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// DefaultConfig returns a config pointing at a local Loki.
func DefaultConfig() Config {
	return Config{
		URL:     DefaultURL,
		Timeout: DefaultTimeout,
	}
}

// Entry is one log line fetched from Loki, with the level and service
// pulled out of the message text when present.
type Entry struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Level     string            `json:"level"`
	Service   string            `json:"service"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Client talks to the Loki HTTP API.
type Client struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// New creates a Client for the given config.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid Loki URL %q: %w", cfg.URL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // Opt-in for self-signed Loki deployments
		}
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log: logger.New("loki", nil),
	}, nil
}

// SetVerbose wires debug logging to the CLI verbose flag.
func (c *Client) SetVerbose(verbose func() bool) {
	c.log = logger.NewWithCallback("loki", verbose)
}

// QueryRange runs a LogQL query over [start, end] and returns the matching
// entries in stream order. A limit below one falls back to DefaultLimit.
func (c *Client) QueryRange(ctx context.Context, query string, start, end time.Time, limit int) ([]Entry, error) {
	if query == "" {
		query = DefaultQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("start", strconv.FormatInt(start.UnixNano(), 10))
	params.Set("end", strconv.FormatInt(end.UnixNano(), 10))
	params.Set("limit", strconv.Itoa(limit))

	var decoded queryRangeResponse
	if err := c.get(ctx, "/loki/api/v1/query_range", params, &decoded); err != nil {
		return nil, err
	}

	var entries []Entry
	for _, stream := range decoded.Data.Result {
		for _, value := range stream.Values {
			if len(value) < 2 {
				continue
			}
			ns, err := strconv.ParseInt(value[0], 10, 64)
			if err != nil {
				c.log.Debug("skipping entry with bad timestamp %q: %v", value[0], err)
				continue
			}
			entries = append(entries, newEntry(time.Unix(0, ns), value[1], stream.Stream))
		}
	}

	c.log.Debug("query %q returned %d entries", query, len(entries))
	return entries, nil
}

// Fetch queries the preset time range ending now. Recognized ranges are
// "1h", "24h", "7d" and "30d"; anything else falls back to the last hour.
func (c *Client) Fetch(ctx context.Context, timeRange, query string, limit int) ([]Entry, error) {
	d, ok := Since(timeRange)
	if !ok {
		d = time.Hour
	}
	end := time.Now().UTC()
	return c.QueryRange(ctx, query, end.Add(-d), end, limit)
}

// TestConnection reports whether Loki answers its labels endpoint. It never
// returns an error; unreachable means false.
func (c *Client) TestConnection(ctx context.Context) bool {
	err := c.get(ctx, "/loki/api/v1/labels", nil, &struct{}{})
	if err != nil {
		c.log.Debug("connection test failed: %v", err)
	}
	return err == nil
}

// Since maps a preset time range token to its duration.
func Since(timeRange string) (time.Duration, bool) {
	switch timeRange {
	case "1h":
		return time.Hour, true
	case "24h":
		return 24 * time.Hour, true
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// SinceValues lists the accepted --since tokens for CLI help and errors.
func SinceValues() []string {
	return []string{"1h", "24h", "7d", "30d"}
}

// ToLogText joins entries into one analyzable text block, one line per
// entry, preserving order.
func ToLogText(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Message)
	}
	return strings.Join(lines, "\n")
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.cfg.URL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Username != "" && c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Loki at %s: %w", c.cfg.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("loki authentication failed (status %d): check username and password", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("loki request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Loki response: %w", err)
	}
	return nil
}

func newEntry(ts time.Time, message string, labels map[string]string) Entry {
	level := "info"
	if m := levelPattern.FindStringSubmatch(message); m != nil {
		level = strings.ToLower(m[1])
	}

	service := "unknown"
	if m := servicePattern.FindStringSubmatch(message); m != nil {
		service = m[1]
	} else if s, ok := labels["service"]; ok && s != "" {
		service = s
	}

	return Entry{
		Timestamp: ts,
		Message:   message,
		Level:     level,
		Service:   service,
		Labels:    labels,
	}
}

// queryRangeResponse mirrors the payload of /loki/api/v1/query_range for
// stream result types.
type queryRangeResponse struct {
	Status string `json:"status"`
	Data   struct {
		ResultType string         `json:"resultType"`
		Result     []streamResult `json:"result"`
	} `json:"data"`
}

type streamResult struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}
