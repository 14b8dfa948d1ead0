package services

import "sync"

// Registry tracks which live connections belong to which poll's
// broadcast room. Membership is process-local and transient: it is
// rebuilt purely from join commands after a restart and owns no
// durable state.
type Registry struct {
	mu sync.RWMutex

	// Room connections: pollId -> set of clients
	rooms map[string]map[*Client]struct{}

	// Reverse index: client -> pollId it currently belongs to
	membership map[*Client]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]map[*Client]struct{}),
		membership: make(map[*Client]string),
	}
}

// Join associates a client with a poll's room. Joining the same room
// twice is a no-op, so a connection is never delivered the same
// broadcast more than once. Joining a different room moves the client.
func (r *Registry) Join(pollID string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.membership[client]; ok {
		if current == pollID {
			return
		}
		r.remove(current, client)
	}

	if r.rooms[pollID] == nil {
		r.rooms[pollID] = make(map[*Client]struct{})
	}
	r.rooms[pollID][client] = struct{}{}
	r.membership[client] = pollID
}

// Leave removes the client from whatever room it is in. It is safe to
// call for clients that never joined.
func (r *Registry) Leave(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pollID, ok := r.membership[client]
	if !ok {
		return
	}
	r.remove(pollID, client)
}

// remove expects r.mu to be held.
func (r *Registry) remove(pollID string, client *Client) {
	delete(r.membership, client)
	if room, ok := r.rooms[pollID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(r.rooms, pollID)
		}
	}
}

// Clients returns a snapshot of the connections currently in a poll's
// room.
func (r *Registry) Clients(pollID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[pollID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	return clients
}

// Counts returns the number of non-empty rooms and total tracked
// connections, for metrics and health reporting.
func (r *Registry) Counts() (rooms, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.membership)
}
