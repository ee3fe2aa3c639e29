// Package mfapi fetches NAV data from the public mutual fund endpoints:
// per-scheme history as JSON and the bulk latest-NAV text feed. Both are
// normalized to NavPoints; the analytics core never sees wire formats.
package mfapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/domain"
)

// Upstream date layouts: the history feed is day-first numeric, the bulk
// feed spells the month out.
const (
	historyDateLayout = "02-01-2006"
	bulkDateLayout    = "02-Jan-2006"
)

// Client talks to the NAV endpoints with bounded retries.
type Client struct {
	baseURL string
	bulkURL string
	client  *http.Client
	retries int
	backoff time.Duration
	log     zerolog.Logger
}

// NewClient creates a NAV feed client. baseURL gets the scheme code
// appended; bulkURL is fetched as-is.
func NewClient(baseURL, bulkURL string, timeout time.Duration, retries int, backoff time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		bulkURL: bulkURL,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: backoff,
		log:     log.With().Str("client", "mfapi").Logger(),
	}
}

// historyResponse is the per-scheme feed envelope. NAV values and dates
// arrive as strings.
type historyResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Date string `json:"date"`
		Nav  string `json:"nav"`
	} `json:"data"`
}

// FetchSeries fetches the full NAV history for one scheme. Malformed rows
// are skipped and counted; an empty feed is an error because the scheme
// code most likely does not exist upstream.
func (c *Client) FetchSeries(ctx context.Context, instrumentID string) ([]domain.NavPoint, error) {
	url := c.baseURL + instrumentID

	body, err := c.getWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("history fetch for %s failed: %w", instrumentID, err)
	}
	defer body.Close()

	var parsed historyResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse history for %s: %w", instrumentID, err)
	}

	points := make([]domain.NavPoint, 0, len(parsed.Data))
	skipped := 0
	for _, row := range parsed.Data {
		date, err := time.Parse(historyDateLayout, row.Date)
		if err != nil {
			skipped++
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Nav), 64)
		if err != nil || value <= 0 {
			skipped++
			continue
		}
		points = append(points, domain.NavPoint{Date: domain.DateOnly(date), Value: value})
	}

	if skipped > 0 {
		c.log.Debug().Str("instrument", instrumentID).Int("skipped", skipped).Msg("Skipped malformed history rows")
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no usable NAV history for %s", instrumentID)
	}
	return points, nil
}

// FetchBulkLatest fetches the bulk feed and returns the latest NavPoint per
// scheme code. The feed is semicolon-delimited with interleaved section
// headers; anything that does not parse as a data line is skipped.
func (c *Client) FetchBulkLatest(ctx context.Context) (map[string]domain.NavPoint, error) {
	body, err := c.getWithRetry(ctx, c.bulkURL)
	if err != nil {
		return nil, fmt.Errorf("bulk fetch failed: %w", err)
	}
	defer body.Close()

	latest := make(map[string]domain.NavPoint)
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		id, point, ok := parseBulkLine(scanner.Text())
		if !ok {
			continue
		}
		latest[id] = point
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bulk feed: %w", err)
	}

	c.log.Info().Int("instruments", len(latest)).Msg("Parsed bulk NAV feed")
	return latest, nil
}

// parseBulkLine parses one data line of the bulk feed:
// code;isin1;isin2;name;nav;date
func parseBulkLine(line string) (string, domain.NavPoint, bool) {
	fields := strings.Split(line, ";")
	if len(fields) < 6 {
		return "", domain.NavPoint{}, false
	}

	id := strings.TrimSpace(fields[0])
	if id == "" {
		return "", domain.NavPoint{}, false
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil || value <= 0 {
		return "", domain.NavPoint{}, false
	}

	date, err := time.Parse(bulkDateLayout, strings.TrimSpace(fields[5]))
	if err != nil {
		return "", domain.NavPoint{}, false
	}

	return id, domain.NavPoint{Date: domain.DateOnly(date), Value: value}, true
}

// getWithRetry performs a GET with bounded retries and linear backoff.
// Only transport errors and 5xx responses are retried.
func (c *Client) getWithRetry(ctx context.Context, url string) (io.ReadCloser, error) {
	var retErr error
	attempts := c.retries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}

		if err == nil {
			resp.Body.Close()
			retErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode < 500 {
				return nil, retErr
			}
		} else {
			retErr = err
		}

		if attempt < attempts {
			c.log.Debug().Err(retErr).Str("url", url).Int("attempt", attempt).Msg("Retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
	}

	return nil, retErr
}
