// Package broadcaster is the Change Broadcaster (spec.md §4.12): fans
// view-store deltas and full-update snapshots out to subscribed WebSocket
// clients, grounded on
// original_source/graph-visualizer-rust/src/websocket.rs's
// subscribe/delta/update broadcast shape, transported over
// github.com/gorilla/websocket.
package broadcaster

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oculairmedia/graphiti/internal/graphmodel"
	"github.com/oculairmedia/graphiti/internal/platform/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscriberBuffer bounds each client's outbound queue so a slow client
// cannot back-pressure the whole broadcast. When a client's queue is full,
// the message is dropped for that client with a logged warning; the client
// stays connected and is not told that it missed messages.
const subscriberBuffer = 32

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type subscriber struct {
	id        string
	send      chan envelope
	useDeltas bool
	mu        sync.Mutex
}

// Broadcaster holds the set of connected clients and fans out updates.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	onClearCache func()
	log         log.Logger
}

func New(logger log.Logger) *Broadcaster {
	return &Broadcaster{subscribers: map[string]*subscriber{}, log: logger}
}

// OnClearCache registers the callback invoked when a client sends
// "clear_cache".
func (b *Broadcaster) OnClearCache(fn func()) { b.onClearCache = fn }

// BroadcastDelta fans a delta out to every subscriber that opted into
// delta updates.
func (b *Broadcaster) BroadcastDelta(delta graphmodel.Delta) {
	b.fanOut(envelope{Type: "graph:delta", Data: delta}, true)
}

// BroadcastUpdate fans a full snapshot out to every subscriber that has not
// opted into deltas.
func (b *Broadcaster) BroadcastUpdate(nodes []graphmodel.Node, edges []graphmodel.Edge) {
	b.fanOut(envelope{Type: "graph:update", Data: struct {
		Nodes []graphmodel.Node `json:"nodes"`
		Edges []graphmodel.Edge `json:"edges"`
	}{nodes, edges}}, false)
}

func (b *Broadcaster) fanOut(msg envelope, wantsDeltas bool) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		useDeltas := s.useDeltas
		s.mu.Unlock()
		if useDeltas != wantsDeltas {
			continue
		}
		select {
		case s.send <- msg:
		default:
			b.log.Warn().Str("client_id", s.id).Msg("broadcaster: subscriber buffer full, dropping message")
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and runs the connection's
// read/write loops until it closes.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("broadcaster: websocket upgrade failed")
		return
	}
	defer conn.Close()

	id := newClientID()
	sub := &subscriber{id: id, send: make(chan envelope, subscriberBuffer)}

	b.mu.Lock()
	b.subscribers[id] = sub
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}()

	b.log.Info().Str("client_id", id).Msg("broadcaster: client connected")

	_ = conn.WriteJSON(envelope{Type: "connected", Data: map[string]any{
		"timestamp": time.Now().UnixMilli(),
		"features": map[string]bool{
			"delta_updates":  true,
			"compression":    true,
			"batch_updates":  true,
		},
	}})

	done := make(chan struct{})
	go b.writeLoop(conn, sub, done)
	b.readLoop(conn, sub, id)
	close(done)
}

func (b *Broadcaster) writeLoop(conn *websocket.Conn, sub *subscriber, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-sub.send:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func (b *Broadcaster) readLoop(conn *websocket.Conn, sub *subscriber, clientID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			b.log.Info().Str("client_id", clientID).Msg("broadcaster: client disconnected")
			return
		}
		var cmd struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		b.handleCommand(conn, sub, cmd.Type, clientID)
	}
}

func (b *Broadcaster) handleCommand(conn *websocket.Conn, sub *subscriber, cmdType, clientID string) {
	switch cmdType {
	case "subscribe:deltas":
		sub.mu.Lock()
		sub.useDeltas = true
		sub.mu.Unlock()
		_ = conn.WriteJSON(envelope{Type: "subscribed:deltas", Data: map[string]string{"status": "ok"}})
	case "unsubscribe:deltas":
		sub.mu.Lock()
		sub.useDeltas = false
		sub.mu.Unlock()
	case "ping":
		_ = conn.WriteJSON(envelope{Type: "pong", Data: map[string]int64{"timestamp": time.Now().UnixMilli()}})
	case "clear_cache":
		b.log.Info().Str("client_id", clientID).Msg("broadcaster: client requested cache clear")
		if b.onClearCache != nil {
			b.onClearCache()
		}
		_ = conn.WriteJSON(envelope{Type: "cache_cleared", Data: map[string]int64{"timestamp": time.Now().UnixMilli()}})
	}
}

func newClientID() string {
	return uuid.NewString()
}
