package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event names on the wire
const (
	EventUpdateLocation = "updateLocation"
	EventLocationUpdate = "locationUpdate"
	EventError          = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 16
)

// Member describes who is on the other end of a connection. Publisher is the
// delivery person id the member may publish as, empty if none.
type Member struct {
	UserID    string
	Publisher string
}

// Message is the payload of both inbound and outbound frames
type Message struct {
	Event            string   `json:"event"`
	OrderID          string   `json:"orderId,omitempty"`
	DeliveryPersonID string   `json:"deliveryPersonId,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// Client is one subscriber connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	room   string
	member Member
	send   chan []byte
	once   sync.Once
	log    logrus.FieldLogger
}

// Attach registers conn in the room for orderID and serves it until the
// connection closes. It blocks.
func (h *Hub) Attach(conn *websocket.Conn, orderID string, member Member) {
	c := &Client{
		hub:    h,
		conn:   conn,
		room:   orderID,
		member: member,
		send:   make(chan []byte, sendBuffer),
		log:    h.log.WithFields(logrus.Fields{"order_id": orderID, "user_id": member.UserID}),
	}
	h.join(c)
	c.log.Debug("Tracking client connected")

	go c.writePump()
	c.readPump()
}

func (c *Client) closeSend() {
	c.once.Do(func() { close(c.send) })
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
		c.log.Debug("Tracking client disconnected")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("Tracking connection closed unexpectedly")
			}
			return
		}
		out, reject := c.handle(data)
		if reject != "" {
			c.reply(Message{Event: EventError, OrderID: c.room, Message: reject})
			continue
		}
		c.hub.Broadcast(c.room, out)
	}
}

// handle validates an inbound frame and returns the frame to broadcast, or a
// reason for rejecting it
func (c *Client) handle(data []byte) ([]byte, string) {
	var in Message
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, "malformed message"
	}
	if in.Event != EventUpdateLocation {
		return nil, "unknown event"
	}
	if c.member.Publisher == "" || in.DeliveryPersonID != c.member.Publisher {
		return nil, "not the assigned delivery person for this order"
	}
	if in.Lat == nil || in.Lng == nil {
		return nil, "lat and lng are required"
	}
	out, err := json.Marshal(Message{
		Event:            EventLocationUpdate,
		OrderID:          c.room,
		DeliveryPersonID: in.DeliveryPersonID,
		Lat:              in.Lat,
		Lng:              in.Lng,
	})
	if err != nil {
		return nil, "internal error"
	}
	return out, ""
}

func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// the hub lock guards send against a concurrent close
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.rooms[c.room][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
