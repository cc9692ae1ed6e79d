package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pos/internal/events"
)

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitFansOut(t *testing.T) {
	first := &captureNotifier{}
	second := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{first, second}}

	payload := map[string]any{"code": "4901234567894"}
	ctx := context.Background()
	event, err := bus.Emit(ctx, events.TopicProductScanned, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicProductScanned, event.Topic)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", event.ID.String())
	require.False(t, event.OccurredAt.IsZero())
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "4901234567894", decoded["code"])
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := events.NotifierFunc(func(context.Context, events.Event) error { return boom })
	capture := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{failing, capture}}

	_, err := bus.Emit(context.Background(), events.TopicCartItemAdded, nil)
	require.ErrorIs(t, err, boom)
	require.Len(t, capture.events, 1, "a failing notifier must not starve the others")
}

func TestEmitRejectsEmptyTopic(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), "  ", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidRawPayload(t *testing.T) {
	bus := events.Bus{}
	_, err := bus.Emit(context.Background(), events.TopicPurchaseCompleted, json.RawMessage("{not json"))
	require.Error(t, err)
}
