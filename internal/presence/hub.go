package presence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// snapshotInterval is the cadence at which the hub re-broadcasts even
// without a change, so intermediaries never see a long-idle stream. It
// doubles as the sweep interval for remote-instance expiry.
const snapshotInterval = 30 * time.Second

// remoteTTL is how long a peer instance's connections are trusted
// without hearing any event from it. Instances re-announce their
// connections every snapshotInterval, so a peer that dies without
// publishing disconnects ages out after missing two re-announcements.
const remoteTTL = 2 * snapshotInterval

// Hub owns the connection registry for one server instance. All state
// lives on a single goroutine; clients talk to it through channels, so
// there are no locks and no data races.
type Hub struct {
	logger *zap.Logger
	broker Broker

	// instance discriminates this hub's events from its peers' on the
	// shared broker channel.
	instance string

	register   chan *Client
	unregister chan *Client
	remote     chan Event
	view       chan chan []User

	clients map[*Client]User

	// peer state: instance id -> conn id -> user
	remoteConns map[string]map[string]User
	remoteSeen  map[string]time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub starts the hub's run loop and its broker subscription. Call
// Shutdown to tear it down.
func NewHub(parent context.Context, broker Broker, logger *zap.Logger) (*Hub, error) {
	ctx, cancel := context.WithCancel(parent)

	h := &Hub{
		logger:      logger,
		broker:      broker,
		instance:    uuid.NewString(),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		remote:      make(chan Event, 64),
		view:        make(chan chan []User),
		clients:     make(map[*Client]User),
		remoteConns: make(map[string]map[string]User),
		remoteSeen:  make(map[string]time.Time),
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	if err := broker.Subscribe(ctx, func(ev Event) {
		if ev.Instance == h.instance {
			return
		}
		select {
		case h.remote <- ev:
		case <-ctx.Done():
		}
	}); err != nil {
		cancel()
		return nil, err
	}

	go h.run(ctx)
	return h, nil
}

// Register adds an authenticated connection and triggers a broadcast.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a connection and triggers a broadcast. Safe to
// call more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// OnlineUsers returns the current deduplicated snapshot. Read-side
// helper for the hub's own tests and diagnostics; the enforcement path
// never consults it.
func (h *Hub) OnlineUsers() []User {
	reply := make(chan []User, 1)
	select {
	case h.view <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}

// Shutdown stops the run loop and closes every client send channel.
func (h *Hub) Shutdown() {
	h.cancel()
	<-h.done
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = c.user
			h.publish(ctx, Event{Type: EventConnect, Instance: h.instance, ConnID: c.id, User: c.user})
			h.broadcast(ctx)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				break
			}
			delete(h.clients, c)
			close(c.send)
			h.publish(ctx, Event{Type: EventDisconnect, Instance: h.instance, ConnID: c.id, User: c.user})
			h.broadcast(ctx)

		case ev := <-h.remote:
			h.applyRemote(ev)
			h.broadcast(ctx)

		case reply := <-h.view:
			reply <- h.snapshot()

		case <-ticker.C:
			// re-announce local connections so quiet peers keep
			// trusting this instance past the TTL
			for c, u := range h.clients {
				h.publish(ctx, Event{Type: EventConnect, Instance: h.instance, ConnID: c.id, User: u})
			}
			h.expireRemote()
			h.broadcast(ctx)
		}
	}
}

func (h *Hub) applyRemote(ev Event) {
	switch ev.Type {
	case EventConnect:
		conns, ok := h.remoteConns[ev.Instance]
		if !ok {
			conns = make(map[string]User)
			h.remoteConns[ev.Instance] = conns
		}
		conns[ev.ConnID] = ev.User
	case EventDisconnect:
		if conns, ok := h.remoteConns[ev.Instance]; ok {
			delete(conns, ev.ConnID)
			if len(conns) == 0 {
				delete(h.remoteConns, ev.Instance)
			}
		}
	default:
		h.logger.Warn("unknown presence event type", zap.String("type", ev.Type))
		return
	}
	h.remoteSeen[ev.Instance] = time.Now()
}

func (h *Hub) expireRemote() {
	cutoff := time.Now().Add(-remoteTTL)
	for instance, seen := range h.remoteSeen {
		if seen.Before(cutoff) {
			delete(h.remoteConns, instance)
			delete(h.remoteSeen, instance)
			h.logger.Info("expired silent peer instance", zap.String("instance", instance))
		}
	}
}

// snapshot deduplicates by user id across local and remote connections
// (one user, many tabs) and returns a deterministically ordered list.
func (h *Hub) snapshot() []User {
	byID := make(map[uuid.UUID]User, len(h.clients))
	for _, u := range h.clients {
		byID[u.UserID] = u
	}
	for _, conns := range h.remoteConns {
		for _, u := range conns {
			byID[u.UserID] = u
		}
	}

	users := make([]User, 0, len(byID))
	for _, u := range byID {
		users = append(users, u)
	}
	sortUsers(users)
	return users
}

// broadcast serializes the snapshot once and hands it to every local
// connection. A connection whose send buffer is full is dropped rather
// than allowed to stall the rest.
func (h *Hub) broadcast(ctx context.Context) {
	payload, err := json.Marshal(Message{Type: "presence", Users: h.snapshot()})
	if err != nil {
		h.logger.Error("marshal presence snapshot", zap.Error(err))
		return
	}

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			close(c.send)
			h.publish(ctx, Event{Type: EventDisconnect, Instance: h.instance, ConnID: c.id, User: c.user})
			h.logger.Warn("dropping slow presence connection",
				zap.String("user_id", c.user.UserID.String()),
			)
		}
	}
}

func (h *Hub) publish(ctx context.Context, ev Event) {
	if err := h.broker.Publish(ctx, ev); err != nil {
		h.logger.Warn("publish presence event", zap.Error(err))
	}
}
