package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/events"
)

type stubStore struct {
	events []events.Event
}

func (s *stubStore) Insert(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	ev := events.Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *stubStore) ListByAggregate(_ context.Context, aggregateID uuid.UUID, _ int) ([]events.Event, error) {
	var out []events.Event
	for _, ev := range s.events {
		if ev.AggregateID == aggregateID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	aggregate := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicOrderCreated, aggregate, map[string]any{"number": 7})
	require.NoError(t, err)
	require.Len(t, store.events, 1)
	require.JSONEq(t, `{"number":7}`, string(store.events[0].Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, ev.ID, notifier.events[0].ID)
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), " ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderDeleted, uuid.Nil, nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderDeleted, uuid.New(), json.RawMessage(`{`))
	require.Error(t, err)
}

func TestEmitKeepsEventWhenNotifierFails(t *testing.T) {
	store := &stubStore{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{&captureNotifier{err: errors.New("down")}}}
	ev, err := bus.Emit(context.Background(), events.TopicOrderReconciled, uuid.New(), nil)
	require.ErrorContains(t, err, "down")
	require.NotEqual(t, uuid.Nil, ev.ID)
	require.Len(t, store.events, 1)
	require.JSONEq(t, `{}`, string(store.events[0].Payload))
}

func TestWebhookNotifierSignsBody(t *testing.T) {
	var gotSig, gotTS string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature")
		gotTS = r.Header.Get("X-Timestamp")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := events.NewWebhookNotifier(srv.URL, "s3cret", time.Second)
	n.Now = func() time.Time { return time.Unix(1700000000, 0) }
	ev := events.Event{ID: uuid.New(), Topic: events.TopicOrderCreated, AggregateID: uuid.New(), Payload: json.RawMessage(`{"a":1}`)}
	require.NoError(t, n.Notify(context.Background(), ev))

	require.Equal(t, "1700000000", gotTS)
	require.Equal(t, events.ComputeSignature("s3cret", 1700000000, ev.ID.String(), gotBody), gotSig)
	require.Contains(t, string(gotBody), `"topic":"order.created"`)
}

func TestWebhookNotifierReportsFailureStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := events.NewWebhookNotifier(srv.URL, "", 5*time.Second)
	err := n.Notify(context.Background(), events.Event{ID: uuid.New(), Topic: "t", AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)})
	require.ErrorContains(t, err, "502")
	require.EqualValues(t, 3, calls.Load(), "5xx responses are retried")
}
