package ws

import (
	"encoding/json"
	"sync"
	"time"
)

type Hub struct {
	clients    map[*Client]bool
	stores     map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		stores:     make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.broadcastToStore(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.stores[client.storeID] == nil {
		h.stores[client.storeID] = make(map[*Client]bool)
	}
	h.stores[client.storeID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		delete(h.stores[client.storeID], client)

		if len(h.stores[client.storeID]) == 0 {
			delete(h.stores, client.storeID)
		}

		close(client.send)
	}
}

// broadcastToStore runs on the hub goroutine. It takes the write lock because
// a full send buffer drops the client from the maps.
func (h *Hub) broadcastToStore(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.stores[event.StoreID]
	if clients == nil {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	for client := range clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			delete(h.stores[event.StoreID], client)
		}
	}
}

func (h *Hub) BroadcastToStore(storeID string, eventType EventType, data interface{}) {
	event := Event{
		StoreID:   storeID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *Hub) GetConnectedClients(storeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.stores[storeID])
}
