package presence

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// captureBroker records published events and exposes the hub's
// subscription handler so tests can inject peer events.
type captureBroker struct {
	mu        sync.Mutex
	published []Event
	handler   func(Event)
}

func (b *captureBroker) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, ev)
	return nil
}

func (b *captureBroker) Subscribe(_ context.Context, handler func(Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
	return nil
}

func (b *captureBroker) Close() error { return nil }

func (b *captureBroker) inject(ev Event) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	h(ev)
}

func (b *captureBroker) publishedEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.published...)
}

func newTestHub(t *testing.T) (*Hub, *captureBroker) {
	t.Helper()
	broker := &captureBroker{}
	hub, err := NewHub(context.Background(), broker, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	t.Cleanup(hub.Shutdown)
	return hub, broker
}

func newTestClient(hub *Hub, name string) *Client {
	return NewClient(hub, nil, User{
		UserID:     uuid.New(),
		Name:       name,
		EmployeeID: "E-" + name,
		Role:       "RND",
	}, zap.NewNop())
}

// recvSnapshot reads one broadcast payload with a timeout so tests
// never hang.
func recvSnapshot(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal snapshot: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Message{} // unreachable
	}
}

func names(msg Message) []string {
	out := make([]string, len(msg.Users))
	for i, u := range msg.Users {
		out[i] = u.Name
	}
	return out
}

func TestRegisterBroadcastsToEveryone(t *testing.T) {
	hub, _ := newTestHub(t)

	alice := newTestClient(hub, "Alice")
	hub.Register(alice)
	if got := names(recvSnapshot(t, alice)); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("first snapshot = %v, want [Alice]", got)
	}

	bob := newTestClient(hub, "Bob")
	hub.Register(bob)

	want := []string{"Alice", "Bob"}
	for _, c := range []*Client{alice, bob} {
		got := names(recvSnapshot(t, c))
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("snapshot = %v, want %v", got, want)
		}
	}

	hub.Unregister(bob)
	if got := names(recvSnapshot(t, alice)); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("snapshot after unregister = %v, want [Alice]", got)
	}
}

func TestSnapshotDeduplicatesTabsOfOneUser(t *testing.T) {
	hub, _ := newTestHub(t)

	user := User{UserID: uuid.New(), Name: "Alice", EmployeeID: "E1", Role: "RND"}
	tab1 := NewClient(hub, nil, user, zap.NewNop())
	tab2 := NewClient(hub, nil, user, zap.NewNop())

	hub.Register(tab1)
	recvSnapshot(t, tab1)
	hub.Register(tab2)
	recvSnapshot(t, tab1)
	recvSnapshot(t, tab2)

	if got := hub.OnlineUsers(); len(got) != 1 {
		t.Fatalf("online users = %d, want 1 (deduplicated)", len(got))
	}

	// closing one tab keeps the user online through the other
	hub.Unregister(tab2)
	recvSnapshot(t, tab1)
	if got := hub.OnlineUsers(); len(got) != 1 {
		t.Fatalf("online users after one tab closed = %d, want 1", len(got))
	}

	hub.Unregister(tab1)
	if got := hub.OnlineUsers(); len(got) != 0 {
		t.Fatalf("online users after all tabs closed = %d, want 0", len(got))
	}
}

func TestRemotePeerEventsMergeIntoSnapshot(t *testing.T) {
	hub, broker := newTestHub(t)

	alice := newTestClient(hub, "Alice")
	hub.Register(alice)
	recvSnapshot(t, alice)

	remote := User{UserID: uuid.New(), Name: "Bob", EmployeeID: "E2", Role: "PRODUCT"}
	broker.inject(Event{Type: EventConnect, Instance: "peer-1", ConnID: "c1", User: remote})

	if got := names(recvSnapshot(t, alice)); len(got) != 2 {
		t.Fatalf("snapshot with remote user = %v, want 2 users", got)
	}

	broker.inject(Event{Type: EventDisconnect, Instance: "peer-1", ConnID: "c1", User: remote})
	if got := names(recvSnapshot(t, alice)); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("snapshot after remote disconnect = %v, want [Alice]", got)
	}
}

func TestConnectAndDisconnectArePublished(t *testing.T) {
	hub, broker := newTestHub(t)

	alice := newTestClient(hub, "Alice")
	hub.Register(alice)
	recvSnapshot(t, alice)
	hub.Unregister(alice)

	deadline := time.Now().Add(time.Second)
	for {
		evs := broker.publishedEvents()
		if len(evs) == 2 {
			if evs[0].Type != EventConnect || evs[1].Type != EventDisconnect {
				t.Fatalf("published events = %+v, want connect then disconnect", evs)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("published events = %+v, want 2", evs)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlowClientIsDroppedWithoutBlockingOthers(t *testing.T) {
	hub, _ := newTestHub(t)

	slow := newTestClient(hub, "Slow")
	hub.Register(slow)
	recvSnapshot(t, slow)

	// jam the slow client's buffer so the next broadcast cannot reach it
	for i := 0; i < sendBuffer; i++ {
		slow.send <- []byte("{}")
	}

	fast := newTestClient(hub, "Fast")
	hub.Register(fast)

	if got := names(recvSnapshot(t, fast)); len(got) == 0 {
		t.Fatalf("fast client got empty snapshot %v", got)
	}

	// the slow client's channel must have been closed by the hub
	for {
		if _, ok := <-slow.send; !ok {
			break
		}
	}
	if got := hub.OnlineUsers(); len(got) != 1 || got[0].Name != "Fast" {
		t.Fatalf("online users after drop = %+v, want just Fast", got)
	}
}

func TestSnapshotOrderIsDeterministic(t *testing.T) {
	hub, _ := newTestHub(t)

	// registered out of order on purpose
	for _, name := range []string{"Carol", "Alice", "Bob"} {
		c := newTestClient(hub, name)
		hub.Register(c)
		recvSnapshot(t, c)
	}

	got := hub.OnlineUsers()
	want := []string{"Alice", "Bob", "Carol"}
	for i, u := range got {
		if u.Name != want[i] {
			t.Fatalf("snapshot order = %v, want %v", got, want)
		}
	}
}
