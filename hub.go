package main

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// roomNotFoundCode is the close code sent when a client connects with an
// unknown room code, so the frontend can tell "no such room" apart from
// a generic failure.
const roomNotFoundCode = 4000

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
}

func newClient(conn *websocket.Conn, playerID string) *client {
	return &client{
		conn:     conn,
		send:     make(chan []byte, 8),
		playerID: playerID,
	}
}

// readPump decodes inbound messages and hands them to the room's loop.
// It returns when the connection drops, which triggers detach cleanup.
func (c *client) readPump(r *room) {
	defer func() {
		r.detach(c)
		_ = c.conn.Close()
	}()

	for {
		var msg Action
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		actor := msg.PlayerID
		if actor == "" {
			actor = c.playerID
		}

		select {
		case r.inbox <- inbound{actor: actor, msg: msg}:
		case <-r.done:
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// closeNotFound accepts the websocket handshake and then immediately
// closes with the distinguished room-not-found code.
func closeNotFound(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(roomNotFoundCode, "room not found")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}
