package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenk2025/hardpath/internal/risk"
)

// TeamsConfig holds Microsoft Teams webhook configuration.
type TeamsConfig struct {
	WebhookURL string // Teams incoming webhook URL
}

// Validate validates the Teams configuration.
func (c *TeamsConfig) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("webhook URL must use HTTPS")
	}
	return nil
}

// TeamsNotifier posts notifications to Microsoft Teams as Adaptive Cards.
type TeamsNotifier struct {
	config     TeamsConfig
	httpClient *http.Client
}

// NewTeamsNotifier creates a new Teams notifier.
func NewTeamsNotifier(config TeamsConfig) (*TeamsNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid teams config: %w", err)
	}
	return &TeamsNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name returns "teams".
func (t *TeamsNotifier) Name() string {
	return "teams"
}

// Send posts n to Teams.
func (t *TeamsNotifier) Send(ctx context.Context, n *Notification) error {
	return postJSON(ctx, t.httpClient, "teams", t.config.WebhookURL, t.buildPayload(n))
}

// Close is a no-op for Teams notifier.
func (t *TeamsNotifier) Close() error {
	return nil
}

type teamsMessage struct {
	Type        string            `json:"type"`
	Attachments []teamsAttachment `json:"attachments"`
}

type teamsAttachment struct {
	ContentType string       `json:"contentType"`
	ContentURL  *string      `json:"contentUrl"`
	Content     adaptiveCard `json:"content"`
}

type adaptiveCard struct {
	Schema  string `json:"$schema"`
	Type    string `json:"type"`
	Version string `json:"version"`
	Body    []any  `json:"body"`
}

type textBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Color  string `json:"color,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
}

type factSet struct {
	Type  string `json:"type"`
	Facts []fact `json:"facts"`
}

type fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type container struct {
	Type  string `json:"type"`
	Style string `json:"style,omitempty"`
	Items []any  `json:"items"`
}

func (t *TeamsNotifier) buildPayload(n *Notification) teamsMessage {
	facts := []fact{
		{Title: "Level", Value: strings.ToUpper(string(n.Level))},
		{Title: "Patient", Value: fmt.Sprintf("%s (%s)", n.PatientName, n.PatientID)},
		{Title: "Reported", Value: formatTime(n.Timestamp)},
	}
	if n.Severity != "" {
		facts = append(facts, fact{Title: "Severity", Value: n.Severity})
	}
	if len(n.Symptoms) > 0 {
		facts = append(facts, fact{Title: "Symptoms", Value: strings.Join(n.Symptoms, ", ")})
	}

	body := []any{
		container{
			Type:  "Container",
			Style: teamsLevelStyle(n.Level),
			Items: []any{
				textBlock{Type: "TextBlock", Text: levelEmoji(n.Level) + " " + n.Title(), Size: "Large", Weight: "Bolder", Wrap: true},
			},
		},
		factSet{Type: "FactSet", Facts: facts},
		textBlock{Type: "TextBlock", Text: n.Reason, Wrap: true},
	}

	return teamsMessage{
		Type: "message",
		Attachments: []teamsAttachment{{
			ContentType: "application/vnd.microsoft.card.adaptive",
			Content: adaptiveCard{
				Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
				Type:    "AdaptiveCard",
				Version: "1.4",
				Body:    body,
			},
		}},
	}
}

// teamsLevelStyle maps a risk level to an Adaptive Card container style.
func teamsLevelStyle(level risk.Level) string {
	switch level {
	case risk.LevelCritical, risk.LevelHigh:
		return "attention"
	case risk.LevelModerate, risk.LevelMedium:
		return "warning"
	case risk.LevelLow, risk.LevelNone:
		return "good"
	default:
		return "default"
	}
}
