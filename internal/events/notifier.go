package events

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-stock/internal/resilience"
)

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, ev Event) error {
	n.Logger.Info().
		Str("event_id", ev.ID.String()).
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID.String()).
		RawJSON("payload", ev.Payload).
		Msg("domain event")
	return nil
}

// WebhookNotifier posts events to a single HTTP endpoint, signed with a shared secret.
type WebhookNotifier struct {
	URL    string
	Secret string
	Client *http.Client
	Now    func() time.Time
}

// NewWebhookNotifier builds a notifier whose client is traced with otelhttp
// and retries 5xx responses behind a circuit breaker.
func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport := &resilience.Transport{
		Base:        otelhttp.NewTransport(http.DefaultTransport),
		Breaker:     resilience.NewBreaker("events_webhook", 5, 0.5, 30*time.Second),
		Attempts:    3,
		BaseBackoff: 200 * time.Millisecond,
		Jitter:      0.2,
	}
	return &WebhookNotifier{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: timeout, Transport: transport},
	}
}

type webhookPayload struct {
	EventID     string          `json:"event_id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregate_id"`
	Data        json.RawMessage `json:"data"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	if n == nil || n.URL == "" {
		return nil
	}
	ctx, span := otel.Tracer("events.WebhookNotifier").Start(ctx, "WebhookNotifier.Notify")
	defer span.End()
	span.SetAttributes(attribute.String("event.topic", ev.Topic), attribute.String("event.id", ev.ID.String()))

	body, err := json.Marshal(webhookPayload{
		EventID:     ev.ID.String(),
		Topic:       ev.Topic,
		AggregateID: ev.AggregateID.String(),
		Data:        ev.Payload,
		OccurredAt:  ev.OccurredAt,
	})
	if err != nil {
		return err
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	ts := now().Unix()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "backend-stock-events/1.0")
	req.Header.Set("X-Event-ID", ev.ID.String())
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", ComputeSignature(n.Secret, ts, ev.ID.String(), body))

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// ComputeSignature is HMAC-SHA256 over "<ts>.<eventID>.<body>" keyed with secret, hex encoded.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
