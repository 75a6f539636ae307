package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// StreamEvents serves the user's change feed over server-sent events.
// Notifications and dispute messages are pushed as they are created;
// delivery is best effort, the client reconciles by re-fetching on
// reconnect.
func StreamEvents(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sub := hub.Subscribe(userID)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
				if err := w.Flush(); err != nil {
					// Client is gone.
					return
				}
			case <-keepalive.C:
				fmt.Fprint(w, ": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
