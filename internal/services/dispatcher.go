package services

import (
	"encoding/json"
	"log"

	"github.com/jhalickman/live-poll/internal/models"
)

// Dispatcher fans state-change and result events out to every
// connection in a poll's room. Delivery is best-effort per connection:
// one dead or slow client never aborts delivery to the others.
//
// Per-poll ordering comes from the callers: all broadcasts for one poll
// are emitted from that poll's sequencing queue, and each client drains
// its send buffer in FIFO order.
type Dispatcher struct {
	registry *Registry
	metrics  *Metrics
}

func NewDispatcher(registry *Registry, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		metrics:  metrics,
	}
}

// Broadcast delivers msg to every connection in pollID's room, and
// only those.
func (d *Dispatcher) Broadcast(pollID string, msg *models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling broadcast for poll %s: %v", pollID, err)
		d.metrics.IncrementBroadcastErrors()
		return
	}

	clients := d.registry.Clients(pollID)
	for _, client := range clients {
		client.Send(data)
	}
	d.metrics.IncrementBroadcasts()
}

// Send delivers msg to a single connection. Used for join snapshots
// and command-rejection acknowledgments, which go only to the
// originating client.
func (d *Dispatcher) Send(client *Client, msg *models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}
	client.Send(data)
}
