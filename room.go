package main

import (
	"encoding/json"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

type inbound struct {
	actor string
	msg   Action
}

// room owns one game: its state, its live connections, and the goroutine
// that serializes every mutation. All state access happens inside run(),
// so no lock guards the GameState itself.
type room struct {
	code    string
	reg     *Registry
	machine *Machine
	state   *GameState

	clients map[*client]bool

	register   chan *client
	unregister chan *client
	inbox      chan inbound

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	conns     atomic.Int32
	idleSince atomic.Int64 // unix nanos, 0 while any client is connected

	nominationAt time.Time
	voteDuration time.Duration
}

func newRoom(reg *Registry, code string) *room {
	r := &room{
		code:       code,
		reg:        reg,
		machine:    newMachine(reg.tasks, rand.New(rand.NewSource(time.Now().UnixNano()))),
		state:      newGameState(code),
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		inbox:      make(chan inbound),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	r.idleSince.Store(time.Now().UnixNano())
	return r
}

// attach registers a connection with the room loop. It reports false if
// the room already shut down, in which case the caller must refuse the
// connection.
func (r *room) attach(c *client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

func (r *room) detach(c *client) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

func (r *room) requestStop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

func (r *room) run() {
	defer close(r.done)

	for {
		select {
		case c := <-r.register:
			r.clients[c] = true
			r.conns.Store(int32(len(r.clients)))
			r.idleSince.Store(0)
			// First connected client becomes host.
			if r.state.HostID == "" {
				r.state.HostID = c.playerID
			}

		case c := <-r.unregister:
			if _, ok := r.clients[c]; ok {
				delete(r.clients, c)
				close(c.send)
			}
			r.conns.Store(int32(len(r.clients)))
			r.machine.RemovePlayer(r.state, c.playerID)
			if len(r.clients) == 0 {
				r.reg.remove(r.code)
				return
			}
			r.broadcastState()

		case in := <-r.inbox:
			if r.dispatch(in) {
				r.closeAll()
				r.reg.remove(r.code)
				return
			}

		case <-r.stop:
			r.closeAll()
			r.reg.remove(r.code)
			return
		}
	}
}

// dispatch applies one action and handles its side effects: timing the
// nomination phase, persisting resolved rounds, and broadcasting. The
// return value signals host-initiated room teardown.
func (r *room) dispatch(in inbound) bool {
	prev := r.state.Status
	out := r.machine.Apply(r.state, in.msg, in.actor)

	now := time.Now()
	if r.state.Status == StatusNomination && prev != StatusNomination {
		r.nominationAt = now
	}
	if prev == StatusNomination && r.state.Status == StatusAuction {
		r.voteDuration = now.Sub(r.nominationAt)
	}

	if out.RoundDone != nil {
		r.reg.saveRound(newRoundRecord(r.code, *out.RoundDone, r.voteDuration))
	}
	if out.Broadcast {
		r.broadcastState()
	}

	return out.CloseRoom
}

// broadcastState serializes the state once and fans it out. A client
// whose send buffer is full is pruned from the set; its player cleanup
// happens later through the normal detach path.
func (r *room) broadcastState() {
	payload, err := json.Marshal(StateMessage{Type: updateStateType, State: r.state})
	if err != nil {
		logError("marshaling state for %s: %v", r.code, err)
		return
	}

	for c := range r.clients {
		select {
		case c.send <- payload:
		default:
			delete(r.clients, c)
			close(c.send)
		}
	}
	r.conns.Store(int32(len(r.clients)))
	if len(r.clients) == 0 {
		r.idleSince.Store(time.Now().UnixNano())
	}
}

// closeAll drops every client. Closing the send channel is enough: the
// client's writePump closes the underlying connection on its way out.
func (r *room) closeAll() {
	for c := range r.clients {
		close(c.send)
		delete(r.clients, c)
	}
	r.conns.Store(0)
}
