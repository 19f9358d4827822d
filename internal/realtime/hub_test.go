package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.send:
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertNothingQueued(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected payload %q", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func TestHubBroadcast(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.register <- alice
	hub.register <- bob

	hub.Broadcast([]byte("everyone"))

	assert.Equal(t, []byte("everyone"), receive(t, alice))
	assert.Equal(t, []byte("everyone"), receive(t, bob))
}

func TestHubSendToUser(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	// Two devices for alice, one for bob.
	alicePhone := newTestClient(hub, "alice")
	aliceLaptop := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.register <- alicePhone
	hub.register <- aliceLaptop
	hub.register <- bob

	hub.SendToUser("alice", []byte("private"))

	assert.Equal(t, []byte("private"), receive(t, alicePhone))
	assert.Equal(t, []byte("private"), receive(t, aliceLaptop))
	assertNothingQueued(t, bob)
}

func TestHubSendToUnknownUser(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	bob := newTestClient(hub, "bob")
	hub.register <- bob

	hub.SendToUser("nobody", []byte("lost"))

	assertNothingQueued(t, bob)
}

func TestHubUnregister(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.register <- alice
	hub.register <- bob

	hub.unregister <- alice

	// The departed client's channel is closed, the other keeps receiving.
	_, open := <-alice.send
	assert.False(t, open)

	hub.Broadcast([]byte("still here"))
	assert.Equal(t, []byte("still here"), receive(t, bob))
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	alice := newTestClient(hub, "alice")
	hub.register <- alice

	cancel()

	select {
	case _, open := <-alice.send:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for client channel to close")
	}
}
