// Package alerts delivers security alerts raised by the gateway to the
// configured notification channels.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"sync"
	"time"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/config"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"go.uber.org/zap"
)

// Alert describes a security event worth notifying about.
type Alert struct {
	Category  string                 `json:"category"`
	Severity  models.Severity        `json:"severity"`
	Message   string                 `json:"message"`
	CallerID  string                 `json:"caller_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Channel defines the interface for alert delivery.
type Channel interface {
	Send(ctx context.Context, alert *Alert) error
	Type() string
}

// WebhookChannel sends alerts via HTTP POST to a generic endpoint.
type WebhookChannel struct {
	URL     string
	Timeout time.Duration
	client  *http.Client
}

// NewWebhookChannel creates a webhook alert channel.
func NewWebhookChannel(url string, timeout time.Duration) *WebhookChannel {
	return &WebhookChannel{
		URL:     url,
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

func (w *WebhookChannel) Type() string {
	return "webhook"
}

func (w *WebhookChannel) Send(ctx context.Context, alert *Alert) error {
	jsonData, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// ChatChannel posts alerts to a team chat incoming-webhook.
type ChatChannel struct {
	WebhookURL string
	Timeout    time.Duration
	client     *http.Client
}

// NewChatChannel creates a chat webhook alert channel.
func NewChatChannel(webhookURL string, timeout time.Duration) *ChatChannel {
	return &ChatChannel{
		WebhookURL: webhookURL,
		Timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *ChatChannel) Type() string {
	return "chat"
}

func (c *ChatChannel) Send(ctx context.Context, alert *Alert) error {
	payload := map[string]interface{}{
		"text": fmt.Sprintf("Security alert: %s", alert.Message),
		"attachments": []map[string]interface{}{
			{
				"color": severityColor(alert.Severity),
				"fields": []map[string]interface{}{
					{"title": "Category", "value": alert.Category, "short": true},
					{"title": "Severity", "value": string(alert.Severity), "short": true},
					{"title": "Caller", "value": alert.CallerID, "short": true},
				},
				"ts": alert.Timestamp.Unix(),
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send chat notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func severityColor(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "#8B0000"
	case models.SeverityHigh:
		return "#FF0000"
	case models.SeverityMedium:
		return "#FFA500"
	default:
		return "#FFFF00"
	}
}

// EmailChannel delivers alerts over SMTP.
type EmailChannel struct {
	Host string
	Port int
	User string
	Pass string
	From string
	To   string
}

// NewEmailChannel creates an SMTP alert channel.
func NewEmailChannel(cfg config.SMTPConfig, to string) *EmailChannel {
	return &EmailChannel{
		Host: cfg.Host,
		Port: cfg.Port,
		User: cfg.Username,
		Pass: cfg.Password,
		From: cfg.FromAddress,
		To:   to,
	}
}

func (e *EmailChannel) Type() string {
	return "email"
}

func (e *EmailChannel) Send(ctx context.Context, alert *Alert) error {
	msg := fmt.Sprintf("To: %s\r\nSubject: [%s] Security alert: %s\r\n\r\nCategory: %s\nCaller: %s\nTime: %s\n\n%s\r\n",
		e.To, alert.Severity, alert.Category,
		alert.Category, alert.CallerID, alert.Timestamp.Format(time.RFC3339), alert.Message)

	auth := smtp.PlainAuth("", e.User, e.Pass, e.Host)
	addr := fmt.Sprintf("%s:%d", e.Host, e.Port)
	if err := smtp.SendMail(addr, auth, e.From, []string{e.To}, []byte(msg)); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

// SMSChannel delivers alerts as text messages via Twilio.
type SMSChannel struct {
	client *twilio.RestClient
	From   string
	To     string
}

// NewSMSChannel creates a Twilio SMS alert channel.
func NewSMSChannel(cfg config.TwilioConfig, to string) *SMSChannel {
	return &SMSChannel{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		From: cfg.FromNumber,
		To:   to,
	}
}

func (s *SMSChannel) Type() string {
	return "sms"
}

func (s *SMSChannel) Send(ctx context.Context, alert *Alert) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(s.To)
	params.SetFrom(s.From)
	params.SetBody(fmt.Sprintf("[%s] %s: %s", alert.Severity, alert.Category, alert.Message))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send alert SMS: %w", err)
	}
	return nil
}

// LogChannel writes alerts to the application log. Used as the default
// channel when no external delivery is configured.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a log-based alert channel.
func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (l *LogChannel) Type() string {
	return "log"
}

func (l *LogChannel) Send(ctx context.Context, alert *Alert) error {
	l.logger.Warn("security alert",
		zap.String("category", alert.Category),
		zap.String("severity", string(alert.Severity)),
		zap.String("caller_id", alert.CallerID),
		zap.String("message", alert.Message))
	return nil
}

// Dispatcher fans alerts out to the configured channels. Delivery runs
// in the background so a slow channel never blocks request handling.
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewDispatcher builds a dispatcher from configuration. The log channel
// is always included so alerts are never silently dropped.
func NewDispatcher(cfg config.AlertsConfig, logger *zap.Logger) *Dispatcher {
	channels := []Channel{NewLogChannel(logger)}
	if cfg.Enabled {
		if cfg.WebhookURL != "" {
			channels = append(channels, NewWebhookChannel(cfg.WebhookURL, cfg.Timeout))
		}
		if cfg.ChatWebhook != "" {
			channels = append(channels, NewChatChannel(cfg.ChatWebhook, cfg.Timeout))
		}
		if cfg.EmailTo != "" && cfg.SMTP.Host != "" {
			channels = append(channels, NewEmailChannel(cfg.SMTP, cfg.EmailTo))
		}
		if cfg.SMSNumber != "" && cfg.Twilio.AccountSID != "" {
			channels = append(channels, NewSMSChannel(cfg.Twilio, cfg.SMSNumber))
		}
	}
	return &Dispatcher{channels: channels, logger: logger}
}

// NewDispatcherWithChannels builds a dispatcher over explicit channels,
// for tests.
func NewDispatcherWithChannels(logger *zap.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger}
}

// Trigger queues the alert for delivery to every channel and returns
// without waiting. Failures are logged and do not affect the outcome
// of the request they relate to.
func (d *Dispatcher) Trigger(ctx context.Context, alert *Alert) {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	// Delivery outlives the request, so detach from its cancellation.
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, ch := range d.channels {
			if err := ch.Send(ctx, alert); err != nil {
				d.logger.Error("alert delivery failed",
					zap.String("channel", ch.Type()),
					zap.String("category", alert.Category),
					zap.Error(err))
			}
		}
	}()
}

// Drain blocks until every queued alert has been delivered.
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}
