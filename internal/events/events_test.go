package events

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/Its-donkey/rel8/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "rel8.community.created", Subject("rel8", TypeCommunityCreated))
	assert.Equal(t, "rel8.community.created", Subject(" rel8. ", TypeCommunityCreated))
	assert.Equal(t, TypeCommunityCreated, Subject("", TypeCommunityCreated))
}

func TestNewEvent(t *testing.T) {
	ev, err := New(TypeProviderAssigned, "user-1", map[string]string{"request_id": "r1"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "user-1", ev.ActorID)
	assert.JSONEq(t, `{"request_id":"r1"}`, string(ev.Payload))

	_, err = New(TypeProviderAssigned, "", func() {})
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ev, err := New(TypeCommunityCreated, "", nil)
	require.NoError(t, err)
	require.NoError(t, r.Publish(context.Background(), ev))
	assert.Len(t, r.Events(), 1)
}

func TestNATSPublisherDeliversToSubscriber(t *testing.T) {
	ns, err := StartEmbedded()
	require.NoError(t, err)
	defer ns.Shutdown()

	conn, err := ConnectInProcess(ns)
	require.NoError(t, err)
	defer conn.Close()

	received := make(chan Event, 1)
	sub, err := Subscribe(conn, "rel8", func(ev Event) { received <- ev })
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()
	require.NoError(t, conn.Flush())

	pubConn, err := ConnectInProcess(ns)
	require.NoError(t, err)
	pub := NewNATSPublisher(pubConn, "rel8", logging.New("test", logging.INFO, io.Discard))

	ev, err := New(TypeCommunityCreated, "user-organizer", map[string]string{"slug": "night-owls"})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.NoError(t, pub.Close())

	select {
	case got := <-received:
		assert.Equal(t, ev.ID, got.ID)
		assert.Equal(t, TypeCommunityCreated, got.Type)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(got.Payload, &payload))
		assert.Equal(t, "night-owls", payload["slug"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNATSPublisherHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := NewNATSPublisher(nil, "rel8", nil)
	assert.ErrorIs(t, pub.Publish(ctx, Event{Type: TypeCommunityCreated}), context.Canceled)
}
