package main

import (
	"context"
	"sync"
	"time"
)

// Registry owns all live rooms, keyed by room code. Rooms are created
// before any player connects and remove themselves when their last
// connection drops; a reaper covers rooms nobody ever joined.
type Registry struct {
	cfg     *Config
	tasks   *TaskCatalog
	history HistorySink

	mu    sync.Mutex
	rooms map[string]*room
}

func newRegistry(cfg *Config, tasks *TaskCatalog, history HistorySink) *Registry {
	reg := &Registry{
		cfg:     cfg,
		tasks:   tasks,
		history: history,
		rooms:   make(map[string]*room),
	}
	if cfg.roomTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// CreateRoom registers a fresh room under a generated code, retrying
// until the code is unused, and starts its loop.
func (reg *Registry) CreateRoom() string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var code string
	for {
		code = newRoomCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}

	rm := newRoom(reg, code)
	reg.rooms[code] = rm
	go rm.run()

	return code
}

func (reg *Registry) Lookup(code string) (*room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[code]
	return rm, ok
}

// remove is idempotent; rooms call it as they shut down.
func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, code)
}

func (reg *Registry) roomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}

// saveRound hands a resolved round to the history sink off the room's
// loop. Failures are logged and never touch room state.
func (reg *Registry) saveRound(rec RoundRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := reg.history.SaveRound(ctx, rec); err != nil {
			logError("saving round for %s: %v", rec.RoomCode, err)
			return
		}
		logf(reg.cfg, "ROOMS: Saved round %d of %s", rec.Round, rec.RoomCode)
	}()
}

// reaperLoop periodically stops rooms that have had no connections for
// longer than the configured timeout, e.g. rooms created over the API
// that nobody ever joined.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.cfg.roomTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.roomTimeout)

		reg.mu.Lock()
		var stale []*room
		for _, rm := range reg.rooms {
			idle := rm.idleSince.Load()
			if rm.conns.Load() == 0 && idle != 0 && time.Unix(0, idle).Before(cutoff) {
				stale = append(stale, rm)
			}
		}
		reg.mu.Unlock()

		for _, rm := range stale {
			logf(reg.cfg, "ROOMS: Reaping idle room %s", rm.code)
			rm.requestStop()
		}
	}
}
