package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.stores)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:     hub,
		storeID: "store-main",
		send:    make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.GetConnectedClients("store-main"))

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.GetConnectedClients("store-main"))
}

func TestHub_BroadcastToStore(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:     hub,
		storeID: "store-main",
		send:    make(chan []byte, 10),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	testData := map[string]string{"id": "evt-1"}
	hub.BroadcastToStore("store-main", EventIngested, testData)

	time.Sleep(50 * time.Millisecond)

	select {
	case msg := <-client.send:
		var event Event
		err := json.Unmarshal(msg, &event)
		assert.NoError(t, err)
		assert.Equal(t, EventIngested, event.Type)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Unbuffered send channel with no reader: the broadcast cannot deliver
	// and must evict the client under the lock.
	client := &Client{
		hub:     hub,
		storeID: "store-main",
		send:    make(chan []byte),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastToStore("store-main", EventIngested, map[string]string{"id": "evt-1"})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.GetConnectedClients("store-main"))
}

func TestHub_StoreIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := &Client{
		hub:     hub,
		storeID: "store-a",
		send:    make(chan []byte, 10),
	}

	client2 := &Client{
		hub:     hub,
		storeID: "store-b",
		send:    make(chan []byte, 10),
	}

	hub.register <- client1
	hub.register <- client2
	time.Sleep(50 * time.Millisecond)

	testData := map[string]string{"id": "evt-a"}
	hub.BroadcastToStore("store-a", EventAgentsTick, testData)

	time.Sleep(50 * time.Millisecond)

	select {
	case <-client1.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 should receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not receive message for store-a")
	case <-time.After(100 * time.Millisecond):
	}
}
