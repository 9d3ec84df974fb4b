package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const refreshTimeout = 5 * time.Second

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Source is what the hub reads from: the change feed and full snapshots.
type Source interface {
	store.Subscriber
	Snapshot(ctx context.Context, gameID string) (*game.Snapshot, error)
}

// Message is the only frame the hub sends.
type Message struct {
	Type    string     `json:"type"`
	Version int64      `json:"version"`
	State   *game.View `json:"state"`
}

// Hub keeps one store subscription per watched game. Every change marks the
// room dirty; the room's goroutine re-reads the full snapshot and pushes a
// tailored view to each client.
type Hub struct {
	src Source
	log *zap.SugaredLogger

	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	gameID  string
	clients map[*Client]struct{}
	cancel  func()
	dirty   chan struct{}
	done    chan struct{}
}

type Client struct {
	conn   Conn
	viewer game.Viewer

	mu    sync.Mutex
	guard game.ViewGuard
}

func NewHub(src Source, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{
		src:   src,
		log:   log,
		rooms: make(map[string]*room),
	}
}

// Add registers conn for gameID and sends it the current state.
func (h *Hub) Add(ctx context.Context, gameID string, conn Conn, viewer game.Viewer) (*Client, error) {
	client := &Client{conn: conn, viewer: viewer}

	h.mu.Lock()
	r := h.rooms[gameID]
	if r == nil {
		r = &room{
			gameID:  gameID,
			clients: make(map[*Client]struct{}),
			dirty:   make(chan struct{}, 1),
			done:    make(chan struct{}),
		}
		dirty := r.dirty
		r.cancel = h.src.Subscribe(gameID, func(store.Change) {
			select {
			case dirty <- struct{}{}:
			default:
			}
		})
		h.rooms[gameID] = r
		go h.run(r)
	}
	r.clients[client] = struct{}{}
	h.mu.Unlock()

	snap, err := h.src.Snapshot(ctx, gameID)
	if err != nil {
		h.Remove(gameID, client)
		return nil, err
	}
	if err := client.deliver(snap); err != nil {
		h.Remove(gameID, client)
		return nil, err
	}
	return client, nil
}

// Remove drops the client and closes its connection. The last client out
// cancels the room's subscription.
func (h *Hub) Remove(gameID string, client *Client) {
	h.mu.Lock()
	r := h.rooms[gameID]
	if r != nil {
		delete(r.clients, client)
		if len(r.clients) == 0 {
			r.cancel()
			close(r.done)
			delete(h.rooms, gameID)
		}
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

// Rooms is the number of games with at least one connected client.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*room)
	h.mu.Unlock()
	for _, r := range rooms {
		r.cancel()
		close(r.done)
		for client := range r.clients {
			_ = client.conn.Close()
		}
	}
}

func (h *Hub) run(r *room) {
	for {
		select {
		case <-r.done:
			return
		case <-r.dirty:
			h.refresh(r)
		}
	}
}

func (h *Hub) refresh(r *room) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	snap, err := h.src.Snapshot(ctx, r.gameID)
	if err != nil {
		h.log.Warnw("snapshot refresh failed", "game_id", r.gameID, "error", err)
		return
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if err := client.deliver(snap); err != nil {
			h.log.Infow("ws write failed", "game_id", r.gameID, "player_id", client.viewer.PlayerID, "error", err)
			h.Remove(r.gameID, client)
		}
	}
}

// deliver writes the client's view of snap unless the client has already
// seen a newer version or a later status.
func (c *Client) deliver(snap *game.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.guard.Apply(snap.Game.Version, snap.Game.Status) {
		return nil
	}
	view := snap.ViewFor(c.viewer)
	data, err := json.Marshal(Message{Type: "snapshot", Version: snap.Game.Version, State: &view})
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Viewer() game.Viewer {
	return c.viewer
}
