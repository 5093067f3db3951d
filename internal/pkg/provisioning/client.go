package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

const organizationsPath = "/api/v1/organizations"

// Client calls the platform backend that owns organizations and users.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// OrganizationRequest is the backend's create-organization body.
type OrganizationRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	Firstname            string `json:"firstname"`
	Lastname             string `json:"lastname"`
	PlanTier             string `json:"plan_tier"`
	StripeCustomerID     string `json:"stripe_customer_id"`
	StripeSubscriptionID string `json:"stripe_subscription_id"`
}

// Organization is the backend's answer. Raw keeps the full body for callers
// that pass it through.
type Organization struct {
	Raw          json.RawMessage
	AccessToken  string
	RefreshToken string
	User         json.RawMessage
}

// BackendError is a non-2xx answer from the backend.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend status=%d message=%s", e.StatusCode, e.Message)
}

// AlreadyExists reports the backend's duplicate-account answer.
func (e *BackendError) AlreadyExists() bool {
	return e.StatusCode == http.StatusConflict && strings.Contains(strings.ToLower(e.Message), "already exists")
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// NewClientFromEnv returns nil when API_URL is unset.
func NewClientFromEnv() *Client {
	base := env.GetEnv("API_URL", "")
	if strings.TrimSpace(base) == "" {
		return nil
	}
	return NewClient(base, 15*time.Second)
}

func (c *Client) CreateOrganization(ctx context.Context, in OrganizationRequest) (*Organization, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+organizationsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{StatusCode: resp.StatusCode, Message: backendMessage(body)}
	}

	var parsed struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		User         json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode organization response: %w", err)
	}
	return &Organization{
		Raw:          json.RawMessage(body),
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		User:         parsed.User,
	}, nil
}

func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "Unknown error"
}
