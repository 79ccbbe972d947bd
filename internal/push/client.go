package push

import (
	"time"

	"github.com/microparty/microparty/internal/model"
)

// Buffer size for outgoing messages
const sendBufferSize = 256

// Client is one subscriber to a session's event stream. The transport
// (websocket write pump) drains Send; the hub owns closing it.
type Client struct {
	playerID    model.PlayerID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a subscriber for the given player
func NewClient(playerID model.PlayerID) *Client {
	return &Client{
		playerID:    playerID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// PlayerID returns the player this subscriber belongs to
func (c *Client) PlayerID() model.PlayerID {
	return c.playerID
}

// Receive returns the channel the transport drains. It is closed when the
// hub unregisters the client.
func (c *Client) Receive() <-chan []byte {
	return c.send
}
