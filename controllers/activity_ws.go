package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"

	"leadpilot/models"
)

// ActivityBroadcaster fans freshly recorded audit entries out to every
// connected websocket client, so the activity log can update live instead of
// polling.
type ActivityBroadcaster struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	Logger *log.Logger
}

func NewActivityBroadcaster(logger *log.Logger) *ActivityBroadcaster {
	return &ActivityBroadcaster{
		conns:  make(map[*websocket.Conn]struct{}),
		Logger: logger,
	}
}

// Publish sends one entry to every subscriber. Dead connections are dropped.
func (b *ActivityBroadcaster) Publish(activity models.Activity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for conn := range b.conns {
		if err := conn.WriteJSON(activity); err != nil {
			b.Logger.Printf("dropping activity feed subscriber: %v", err)
			conn.Close()
			delete(b.conns, conn)
		}
	}
}

// HandleActivityFeed keeps one websocket subscribed until it disconnects.
func (b *ActivityBroadcaster) HandleActivityFeed(c *websocket.Conn) {
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
		c.Close()
	}()

	// Reads are only needed to detect the client going away.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
