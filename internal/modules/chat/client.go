package chat

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8 * 1024
)

// inboundMessage is what a connected client sends over the socket.
type inboundMessage struct {
	Message        string  `json:"message"`
	AttachmentPath *string `json:"attachment_path"`
	AttachmentType *string `json:"attachment_type"`
}

// Client is one WebSocket connection bound to a user and a delivery room.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	service    ServiceInterface
	userID     int64
	deliveryID int64

	send chan Event
}

func newClient(hub *Hub, conn *websocket.Conn, service ServiceInterface, userID, deliveryID int64) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		service:    service,
		userID:     userID,
		deliveryID: deliveryID,
		send:       make(chan Event, 32),
	}
}

// readPump consumes inbound messages and hands them to the service. A
// rejected message produces an error event on this client only; the
// connection stays open.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.deliveryID, c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var in inboundMessage
		if err := c.conn.ReadJSON(&in); err != nil {
			return
		}
		if _, err := c.service.SendMessage(context.Background(), c.userID, c.deliveryID, in); err != nil {
			select {
			case c.send <- Event{Type: EventError, Message: err.Error()}:
			default:
			}
		}
	}
}

// writePump serializes all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
