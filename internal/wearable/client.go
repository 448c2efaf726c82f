package wearable

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

	"github.com/cenk2025/hardpath/internal/models"
)

// Vendor defaults.
const (
	DefaultAPIURL    = "https://api.tryterra.co/v2"
	DefaultWidgetURL = "https://widget.tryterra.co"
)

var (
	// ErrVendorNotConfigured is returned when the vendor API key or developer id is missing.
	ErrVendorNotConfigured = errors.New("wearable vendor not configured")
	// ErrNoSession is returned when the vendor answers without a session id.
	ErrNoSession = errors.New("wearable vendor did not return a session id")
)

// ClientConfig holds vendor API settings.
type ClientConfig struct {
	APIURL    string
	WidgetURL string
	APIKey    string
	DevID     string
	Timeout   time.Duration
}

// Client calls the wearable integration vendor.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a vendor client, filling in default URLs.
func NewClient(config ClientConfig) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.WidgetURL == "" {
		config.WidgetURL = DefaultWidgetURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	config.APIURL = strings.TrimRight(config.APIURL, "/")
	config.WidgetURL = strings.TrimRight(config.WidgetURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.config.APIKey != "" && c.config.DevID != ""
}

// AuthSession is a vendor authorization handoff.
type AuthSession struct {
	SessionID string `json:"session_id"`
	AuthURL   string `json:"auth_url"`
}

type generateAuthTokenRequest struct {
	Providers   string `json:"providers"`
	ReferenceID string `json:"reference_id"`
}

type generateAuthTokenResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// GenerateAuthToken asks the vendor for a widget session that lets the patient
// authorize provider. referenceID is echoed back on every webhook for that account.
func (c *Client) GenerateAuthToken(ctx context.Context, provider models.Provider, referenceID string) (*AuthSession, error) {
	if !c.Configured() {
		return nil, ErrVendorNotConfigured
	}

	body, err := json.Marshal(generateAuthTokenRequest{Providers: string(provider), ReferenceID: referenceID})
	if err != nil {
		return nil, fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL+"/auth/generateAuthToken", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("dev-id", c.config.DevID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send auth request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read auth response: %w", err)
	}

	var out generateAuthTokenResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.SessionID == "" {
		snippet := string(raw)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrNoSession, resp.StatusCode, snippet)
	}

	return &AuthSession{
		SessionID: out.SessionID,
		AuthURL:   c.config.WidgetURL + "/session/" + out.SessionID,
	}, nil
}
