package events

import (
	"context"
	"sync"

	cryptex_errors "cryptex/pkg/errors"
)

// Subscriber is the addressable endpoint of one live connection.
// Deliver must return once the frame is queued or the context expires;
// Kill force-closes the connection and is called by the broker when a
// delivery attempt fails.
type Subscriber interface {
	ID() string
	Deliver(ctx context.Context, frame []byte) error
	Kill()
}

// Registry maps room names to the set of currently connected
// subscribers. Rooms are created lazily on first join and deleted when
// the last subscriber leaves. The registry holds non-owning references;
// each subscriber is owned by its connection session.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Subscriber
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]Subscriber),
	}
}

// Join adds sub to room, creating the room if absent. Joining a room
// twice with the same subscriber returns ErrAlreadyJoined so a bug in
// session teardown can never cause duplicate delivery.
func (r *Registry) Join(room string, sub Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Subscriber)
		r.rooms[room] = members
	}
	if _, ok := members[sub.ID()]; ok {
		return cryptex_errors.ErrAlreadyJoined
	}
	members[sub.ID()] = sub
	return nil
}

// Leave removes sub from room. Leaving a room the subscriber is not in
// is a no-op, so session teardown stays idempotent.
func (r *Registry) Leave(room string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sub.ID())
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// Members returns a point-in-time snapshot of the room's subscribers.
// Callers iterate the copy without holding the registry lock, so
// concurrent joins and leaves after the snapshot are not reflected.
func (r *Registry) Members(room string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	snapshot := make([]Subscriber, 0, len(members))
	for _, sub := range members {
		snapshot = append(snapshot, sub)
	}
	return snapshot
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
