package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SlackConfig holds Slack webhook configuration.
type SlackConfig struct {
	WebhookURL string // Slack incoming webhook URL
}

// Validate validates the Slack configuration.
func (c *SlackConfig) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("webhook URL must use HTTPS")
	}
	return nil
}

// SlackNotifier posts notifications to a Slack incoming webhook.
type SlackNotifier struct {
	config     SlackConfig
	httpClient *http.Client
}

// NewSlackNotifier creates a new Slack notifier.
func NewSlackNotifier(config SlackConfig) (*SlackNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid slack config: %w", err)
	}
	return &SlackNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name returns "slack".
func (s *SlackNotifier) Name() string {
	return "slack"
}

// Send posts n to Slack.
func (s *SlackNotifier) Send(ctx context.Context, n *Notification) error {
	return postJSON(ctx, s.httpClient, "slack", s.config.WebhookURL, s.buildPayload(n))
}

// Close is a no-op for Slack notifier.
func (s *SlackNotifier) Close() error {
	return nil
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func (s *SlackNotifier) buildPayload(n *Notification) slackMessage {
	emoji := levelEmoji(n.Level)

	fields := []slackText{
		{Type: "mrkdwn", Text: fmt.Sprintf("*Level:*\n%s %s", emoji, strings.ToUpper(string(n.Level)))},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Reported:*\n%s", formatTime(n.Timestamp))},
	}
	if n.Severity != "" {
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Severity:*\n%s", n.Severity)})
	}
	if len(n.Symptoms) > 0 {
		fields = append(fields, slackText{Type: "mrkdwn", Text: fmt.Sprintf("*Symptoms:*\n%s", strings.Join(n.Symptoms, ", "))})
	}

	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: truncate(emoji+" "+n.Title(), 150), Emoji: true}},
		{Type: "section", Fields: fields},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: n.Reason}},
		{Type: "context", Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("Patient ID: `%s`", n.PatientID)}}},
	}

	return slackMessage{Text: n.Title(), Blocks: blocks}
}

// postJSON sends payload to a chat webhook and expects a 2xx answer.
func postJSON(ctx context.Context, client *http.Client, channel, url string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s API error: status %d, body: %s", channel, resp.StatusCode, string(body))
	}
	return nil
}

// truncate truncates a string to max bytes with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
