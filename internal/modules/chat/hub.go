package chat

// Event is the envelope sent to chat clients over the WebSocket.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	EventMessage = "message"
	EventError   = "error"
	EventJoined  = "joined"
)

type broadcast struct {
	deliveryID int64
	event      Event
}

type subscription struct {
	client     *Client
	deliveryID int64
}

// Hub routes chat events to the clients subscribed to each delivery's
// room. All room state is owned by the run goroutine, so registration,
// unregistration and broadcasts are serialized and every client observes
// a room's broadcasts in the same order.
type Hub struct {
	rooms map[int64]map[*Client]struct{}

	register   chan subscription
	unregister chan subscription
	broadcasts chan broadcast
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]struct{}),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		broadcasts: make(chan broadcast, 64),
	}
}

// Run processes hub events until the channel feed stops. Call it once,
// from its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			room, ok := h.rooms[sub.deliveryID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[sub.deliveryID] = room
			}
			room[sub.client] = struct{}{}
		case sub := <-h.unregister:
			if room, ok := h.rooms[sub.deliveryID]; ok {
				if _, ok := room[sub.client]; ok {
					delete(room, sub.client)
					close(sub.client.send)
					if len(room) == 0 {
						delete(h.rooms, sub.deliveryID)
					}
				}
			}
		case b := <-h.broadcasts:
			for client := range h.rooms[b.deliveryID] {
				select {
				case client.send <- b.event:
				default:
					// A wedged client gets dropped instead of blocking
					// the whole room.
					delete(h.rooms[b.deliveryID], client)
					close(client.send)
				}
			}
		}
	}
}

// Join subscribes a client to a delivery room.
func (h *Hub) Join(deliveryID int64, c *Client) {
	h.register <- subscription{client: c, deliveryID: deliveryID}
}

// Leave removes a client from a delivery room.
func (h *Hub) Leave(deliveryID int64, c *Client) {
	h.unregister <- subscription{client: c, deliveryID: deliveryID}
}

// Broadcast queues an event for every client in the delivery's room.
func (h *Hub) Broadcast(deliveryID int64, event Event) {
	h.broadcasts <- broadcast{deliveryID: deliveryID, event: event}
}
