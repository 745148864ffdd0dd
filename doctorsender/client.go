package doctorsender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to the DoctorSender campaign API. All calls go through a
// client-side rate limiter: the API throttles aggressively and a burst of
// dashboard actions must not get the account blocked.
type Client struct {
	baseURL    string
	apiKey     string
	account    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a DoctorSender API client. rps caps outbound requests
// per second (burst of 1).
func NewClient(baseURL, apiKey, account string, rps float64) *Client {
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		account: account,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// CampaignRequest is the payload for creating a campaign draft.
type CampaignRequest struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	FromName string `json:"from_name"`
	ListName string `json:"list_name"`
	HTMLBody string `json:"html_body"`
	Category string `json:"category,omitempty"`
}

// CampaignResponse is returned by campaign create/schedule calls.
type CampaignResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
}

// CampaignStats is the delivery statistics payload.
type CampaignStats struct {
	CampaignID string `json:"campaign_id"`
	Sent       int64  `json:"sent"`
	Delivered  int64  `json:"delivered"`
	Opens      int64  `json:"opens"`
	Clicks     int64  `json:"clicks"`
	Bounces    int64  `json:"bounces"`
}

// CreateCampaign creates a campaign draft on the DoctorSender side.
func (c *Client) CreateCampaign(ctx context.Context, req CampaignRequest) (*CampaignResponse, error) {
	var out CampaignResponse
	if err := c.post(ctx, "/api/v1/campaigns", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBat triggers a BAT ("bon à tirer") test send of the campaign to the
// reviewer addresses.
func (c *Client) SendBat(ctx context.Context, campaignID string, recipients []string) error {
	body := map[string]interface{}{
		"recipients": recipients,
	}
	path := fmt.Sprintf("/api/v1/campaigns/%s/test", campaignID)
	return c.post(ctx, path, body, nil)
}

// ScheduleCampaign schedules an approved campaign for delivery at sendAt.
func (c *Client) ScheduleCampaign(ctx context.Context, campaignID string, sendAt time.Time) (*CampaignResponse, error) {
	body := map[string]interface{}{
		"send_at": sendAt.UTC().Format(time.RFC3339),
	}
	var out CampaignResponse
	path := fmt.Sprintf("/api/v1/campaigns/%s/schedule", campaignID)
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStats fetches delivery statistics for a campaign.
func (c *Client) GetStats(ctx context.Context, campaignID string) (*CampaignStats, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/campaigns/%s/stats", c.baseURL, campaignID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var out CampaignStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// HealthCheck verifies the API is reachable with the configured credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/ping", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-DS-Account", c.account)
}
