package nse

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brainless/getmarket/internal/config"
	"github.com/brainless/getmarket/internal/models"
)

// ErrNotTrading is returned when no bhavcopy exists for the requested
// date. The exchange publishes nothing on weekends and holidays, so a
// missing file is a legitimate outcome, not a transport failure.
var ErrNotTrading = errors.New("no bhavcopy published for date")

// Client downloads daily bhavcopy archives from the NSE historical
// data site.
type Client struct {
	httpClient *http.Client
	cfg        config.NSEConfig
	logger     *zap.Logger
}

// NewClient creates a bhavcopy client from the given source configuration.
func NewClient(cfg config.NSEConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// FileName returns the bhavcopy archive name for a date, e.g.
// cm15JAN2025bhav.csv.zip.
func FileName(date time.Time) string {
	return "cm" + strings.ToUpper(date.Format("02Jan2006")) + "bhav.csv.zip"
}

// FileName returns the archive name for a date; it satisfies the
// ingest.Source contract.
func (c *Client) FileName(date time.Time) string {
	return FileName(date)
}

// Parse decodes a bhavcopy payload; it satisfies the ingest.Source
// contract.
func (c *Client) Parse(payload []byte, date time.Time) ([]models.StockRecord, int, error) {
	return ParseBhavcopy(payload, date)
}

// BhavcopyURL builds the deterministic download URL for a date:
// {base}/content/historical/EQUITIES/{YYYY}/{MM}/cm{DD}{MMM}{YYYY}bhav.csv.zip
func (c *Client) BhavcopyURL(date time.Time) string {
	return fmt.Sprintf("%s/content/historical/EQUITIES/%04d/%02d/%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), date.Year(), int(date.Month()), FileName(date))
}

// Fetch downloads the bhavcopy for a date and returns the decompressed
// CSV bytes. A 404 from the source maps to ErrNotTrading. Transport
// failures and non-2xx statuses are retried with exponential backoff up
// to the configured attempt ceiling; request timeouts count as attempts
// too.
func (c *Client) Fetch(ctx context.Context, date time.Time) ([]byte, error) {
	url := c.BhavcopyURL(date)

	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		payload, err := c.fetchOnce(ctx, url)
		if err == nil {
			return payload, nil
		}
		if errors.Is(err, ErrNotTrading) || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		c.logger.Warn("bhavcopy fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("fetch bhavcopy for %s: %w", date.Format("2006-01-02"), lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotTrading
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	payload, err := decompress(body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("downloaded file is empty")
	}
	return payload, nil
}

// sleepBackoff waits retryBackoff * 2^(attempt-1) with ±25% jitter, or
// returns early if the context is cancelled.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	backoff := c.cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	delay := backoff << (attempt - 1)
	jitter := time.Duration(rand.Int64N(int64(delay)/2+1)) - delay/4
	delay += jitter

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// decompress unwraps a ZIP payload, returning the first file member.
// Plain CSV payloads pass through untouched.
func decompress(body []byte) ([]byte, error) {
	if !bytes.HasPrefix(body, []byte("PK\x03\x04")) {
		return body, nil
	}

	r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip member %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read zip member %s: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("zip archive contains no files")
}
