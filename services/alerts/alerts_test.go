package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/config"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"go.uber.org/zap"
)

func testAlert() *Alert {
	return &Alert{
		Category: "threat_detected",
		Severity: models.SeverityHigh,
		Message:  "threat score above threshold",
		CallerID: "caller-1",
	}
}

func TestWebhookChannel_Send(t *testing.T) {
	var received Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, 5*time.Second)
	require.NoError(t, ch.Send(context.Background(), testAlert()))

	assert.Equal(t, "threat_detected", received.Category)
	assert.Equal(t, models.SeverityHigh, received.Severity)
	assert.Equal(t, "caller-1", received.CallerID)
}

func TestWebhookChannel_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, 5*time.Second)
	err := ch.Send(context.Background(), testAlert())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestChatChannel_PayloadShape(t *testing.T) {
	var payload struct {
		Text        string `json:"text"`
		Attachments []struct {
			Color  string `json:"color"`
			Fields []struct {
				Title string `json:"title"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"attachments"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alert := testAlert()
	alert.Timestamp = time.Now().UTC()
	ch := NewChatChannel(srv.URL, 5*time.Second)
	require.NoError(t, ch.Send(context.Background(), alert))

	assert.Contains(t, payload.Text, "threat score above threshold")
	require.Len(t, payload.Attachments, 1)
	assert.Equal(t, "#FF0000", payload.Attachments[0].Color)
}

func TestSeverityColor(t *testing.T) {
	assert.Equal(t, "#8B0000", severityColor(models.SeverityCritical))
	assert.Equal(t, "#FF0000", severityColor(models.SeverityHigh))
	assert.Equal(t, "#FFA500", severityColor(models.SeverityMedium))
	assert.Equal(t, "#FFFF00", severityColor(models.SeverityLow))
}

type recordingChannel struct {
	name string
	mu   sync.Mutex
	sent []*Alert
	err  error
}

func (c *recordingChannel) Send(ctx context.Context, alert *Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, alert)
	return c.err
}

func (c *recordingChannel) Type() string { return c.name }

func (c *recordingChannel) delivered() []*Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Alert, len(c.sent))
	copy(out, c.sent)
	return out
}

func TestDispatcher_FanOut(t *testing.T) {
	a := &recordingChannel{name: "a"}
	b := &recordingChannel{name: "b"}
	d := NewDispatcherWithChannels(zap.NewNop(), a, b)

	d.Trigger(context.Background(), testAlert())
	d.Drain()

	assert.Len(t, a.delivered(), 1)
	assert.Len(t, b.delivered(), 1)
}

func TestDispatcher_ContinuesPastFailingChannel(t *testing.T) {
	failing := &recordingChannel{name: "failing", err: errors.New("smtp down")}
	healthy := &recordingChannel{name: "healthy"}
	d := NewDispatcherWithChannels(zap.NewNop(), failing, healthy)

	d.Trigger(context.Background(), testAlert())
	d.Drain()

	assert.Len(t, failing.delivered(), 1)
	assert.Len(t, healthy.delivered(), 1)
}

func TestDispatcher_StampsTimestamp(t *testing.T) {
	ch := &recordingChannel{name: "a"}
	d := NewDispatcherWithChannels(zap.NewNop(), ch)

	alert := testAlert()
	require.True(t, alert.Timestamp.IsZero())
	d.Trigger(context.Background(), alert)
	d.Drain()

	sent := ch.delivered()
	require.Len(t, sent, 1)
	assert.False(t, sent[0].Timestamp.IsZero())
}

func TestDispatcher_DeliverySurvivesRequestCancellation(t *testing.T) {
	received := make(chan *Alert, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		received <- &alert
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcherWithChannels(zap.NewNop(), NewWebhookChannel(srv.URL, 5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	d.Trigger(ctx, testAlert())
	cancel()
	d.Drain()

	select {
	case alert := <-received:
		assert.Equal(t, "threat_detected", alert.Category)
	default:
		t.Fatal("alert was not delivered")
	}
}

func TestNewDispatcher_AlwaysIncludesLogChannel(t *testing.T) {
	d := NewDispatcher(config.AlertsConfig{Enabled: false}, zap.NewNop())

	require.Len(t, d.channels, 1)
	assert.Equal(t, "log", d.channels[0].Type())
}

func TestNewDispatcher_ConfiguredChannels(t *testing.T) {
	d := NewDispatcher(config.AlertsConfig{
		Enabled:     true,
		WebhookURL:  "http://alerts.internal/hook",
		ChatWebhook: "http://chat.internal/hook",
		EmailTo:     "secops@example.com",
		SMTP:        config.SMTPConfig{Host: "smtp.example.com", Port: 587},
		SMSNumber:   "+15550001111",
		Twilio:      config.TwilioConfig{AccountSID: "AC123", AuthToken: "t", FromNumber: "+15550002222"},
		Timeout:     5 * time.Second,
	}, zap.NewNop())

	types := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		types = append(types, ch.Type())
	}
	assert.ElementsMatch(t, []string{"log", "webhook", "chat", "email", "sms"}, types)
}

func TestLogChannel_NeverFails(t *testing.T) {
	ch := NewLogChannel(zap.NewNop())
	assert.NoError(t, ch.Send(context.Background(), testAlert()))
}
