// Package crm pushes new leads to the external CRM.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

const tokenKey = "leads"

var errUnauthorized = errors.New("crm rejected access token")

// LeadPayload is the record sent to the CRM for a new lead.
type LeadPayload struct {
	ExternalID string `json:"externalId"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Source     string `json:"source,omitempty"`
	SubSource  string `json:"subSource,omitempty"`
	BookingURL string `json:"bookingUrl,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Stage      string `json:"stage"`
}

// Client talks to the CRM REST API. A nil Client is disabled.
type Client struct {
	baseURL string
	tokens  *TokenCache
	http    *http.Client
	log     *logger.Logger
}

// NewClient returns nil when the CRM is not configured.
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	if !cfg.IsCRMEnabled() {
		return nil
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GetCRMClientID(),
		ClientSecret: cfg.GetCRMClientSecret(),
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.GetCRMTokenURL()},
	}
	return NewClientWithTokens(cfg.GetCRMBaseURL(), NewTokenCache(OAuthRefresher(oauthCfg, cfg.GetCRMRefreshToken())), log)
}

// NewClientWithTokens creates a Client using an existing token cache.
func NewClientWithTokens(baseURL string, tokens *TokenCache, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// PushLead creates the lead in the CRM. A rejected token is refreshed and the request
// retried once.
func (c *Client) PushLead(ctx context.Context, lead LeadPayload) error {
	if c == nil {
		return nil
	}

	err := c.post(ctx, "/leads", lead)
	if errors.Is(err, errUnauthorized) {
		c.tokens.Invalidate(tokenKey)
		err = c.post(ctx, "/leads", lead)
	}
	if err != nil {
		return err
	}

	c.log.Info("lead pushed to crm", "external_id", lead.ExternalID)
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	token, err := c.tokens.Get(ctx, tokenKey)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal crm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("crm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
