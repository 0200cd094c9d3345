package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Handler upgrades the connection and subscribes it to a store's stream.
// The store is selected with the "store" query parameter; connections that
// name none fall back to the default store.
func Handler(hub *Hub, defaultStoreID string) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		storeID := c.Query("store")
		if storeID == "" {
			storeID = defaultStoreID
		}

		client := &Client{
			hub:     hub,
			conn:    c,
			storeID: storeID,
			send:    make(chan []byte, 256),
		}

		hub.register <- client

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
