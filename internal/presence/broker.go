package presence

import "context"

// Event is one presence change, relayed between instances so a viewer
// connected to instance A sees a connect on instance B.
type Event struct {
	Type     string `json:"type"` // "connect" or "disconnect"
	Instance string `json:"instance"`
	ConnID   string `json:"conn_id"`
	User     User   `json:"user"`
}

const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// Broker fans presence events out across server instances. The hub
// publishes its local connects/disconnects and applies events received
// from its peers.
type Broker interface {
	Publish(ctx context.Context, ev Event) error

	// Subscribe delivers peer events to handler until ctx is done.
	// Implementations must filter out or tolerate echoes of the
	// instance's own events; the hub drops them by instance id anyway.
	Subscribe(ctx context.Context, handler func(Event)) error

	Close() error
}

// NopBroker is the single-instance backend: presence stays process-local.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, Event) error         { return nil }
func (NopBroker) Subscribe(context.Context, func(Event)) error { return nil }
func (NopBroker) Close() error                                 { return nil }
