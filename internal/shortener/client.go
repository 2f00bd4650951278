// Package shortener shortens outbound links through an HTTP link service.
package shortener

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// Client calls the link service. A nil Client returns links unchanged.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      *logger.Logger
}

type shortenRequest struct {
	URL string `json:"url"`
}

type shortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

func NewClient(cfg config.ShortenerConfig, log *logger.Logger) *Client {
	if !cfg.IsShortenerEnabled() {
		return nil
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.GetShortenerURL(), "/"),
		token:    cfg.GetShortenerToken(),
		http:     &http.Client{Timeout: 5 * time.Second},
		log:      log,
	}
}

// Shorten returns the short form of longURL, or longURL itself when the service
// cannot be reached or answers badly.
func (c *Client) Shorten(ctx context.Context, longURL string) string {
	if c == nil {
		return longURL
	}

	short, err := c.shorten(ctx, longURL)
	if err != nil {
		c.log.Warn("link shortening failed, using long url", "error", err)
		return longURL
	}
	return short
}

func (c *Client) shorten(ctx context.Context, longURL string) (string, error) {
	body, err := json.Marshal(shortenRequest{URL: longURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("shortener request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("shortener returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode shortener response: %w", err)
	}
	if out.ShortURL == "" {
		return "", fmt.Errorf("shortener returned an empty url")
	}
	return out.ShortURL, nil
}
