package collab

import (
	"sync"
	"time"

	"github.com/constructhq/constructor/internal/logger"
)

// Registry is the process-wide lookup of rooms by identifier. Rooms are
// created lazily on first join; a room whose last participant left is
// evicted after a grace period so abandoned identifiers do not pin
// memory for the process lifetime.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	timers map[string]*time.Timer
	grace  time.Duration
}

// NewRegistry creates a registry. grace is how long an empty room is
// kept around before eviction; rejoining within the window reuses the
// room and its document.
func NewRegistry(grace time.Duration) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		timers: make(map[string]*time.Timer),
		grace:  grace,
	}
}

// GetOrCreate returns the room for id, creating it when absent. Exactly
// one room instance wins a concurrent first join. Fetching a room
// cancels any pending eviction.
func (reg *Registry) GetOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if t, ok := reg.timers[id]; ok {
		t.Stop()
		delete(reg.timers, id)
	}

	room, ok := reg.rooms[id]
	if !ok {
		room = newRoom(id)
		reg.rooms[id] = room
		logger.Info("created room %s", id)
	}
	return room
}

// Get returns the room for id without creating one.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// Release signals that a participant left the room. When the room is
// empty it is scheduled for eviction after the grace period; a join in
// the meantime cancels the eviction.
func (reg *Registry) Release(room *Room) {
	if room.Count() > 0 {
		return
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.rooms[room.ID()]; !ok {
		return
	}
	if t, ok := reg.timers[room.ID()]; ok {
		t.Stop()
	}
	id := room.ID()
	reg.timers[id] = time.AfterFunc(reg.grace, func() {
		reg.evict(id)
	})
}

func (reg *Registry) evict(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.timers, id)
	room, ok := reg.rooms[id]
	if !ok || room.Count() > 0 {
		return
	}
	delete(reg.rooms, id)
	logger.Info("evicted empty room %s", id)
}

// Stats is the global summary exposed to operators.
type Stats struct {
	RoomsCount int `json:"rooms_count"`
	TotalUsers int `json:"total_users"`
}

// Stats counts rooms and connected participants across the process.
func (reg *Registry) Stats() Stats {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	stats := Stats{RoomsCount: len(rooms)}
	for _, room := range rooms {
		stats.TotalUsers += room.Count()
	}
	return stats
}
