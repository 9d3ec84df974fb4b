package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/store"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
	failing  bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *fakeConn) waitFor(t *testing.T, ok func(Message) bool) Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msgs := c.snapshot()
		if len(msgs) > 0 && ok(msgs[len(msgs)-1]) {
			return msgs[len(msgs)-1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for message, have %d", len(c.snapshot()))
	return Message{}
}

var base = time.Date(2025, 11, 27, 18, 0, 0, 0, time.UTC)

func seed(t *testing.T, st *store.Memory) {
	t.Helper()
	ctx := context.Background()
	g := &game.Game{ID: "g1", Code: "ABC123", HostID: "user_host", Name: "Smith Thanksgiving", Status: game.StatusSetup, Mode: game.ModeBoth, CurrentRound: 1, MaxRounds: 1, CreatedAt: base, UpdatedAt: base}
	host := &game.Player{ID: "host", GameID: "g1", Name: "Host", IsHost: true, JoinedAt: base}
	if err := st.CreateGame(ctx, g, host); err != nil {
		t.Fatalf("create game: %v", err)
	}
	for _, name := range []string{"alice", "bob"} {
		if err := st.InsertPlayer(ctx, &game.Player{ID: name, GameID: "g1", Name: name, JoinedAt: base}, nil); err != nil {
			t.Fatalf("insert player: %v", err)
		}
	}
}

func TestAddSendsInitialSnapshot(t *testing.T) {
	st := store.NewMemory()
	seed(t, st)
	hub := NewHub(st, nil)
	defer hub.Close()

	conn := &fakeConn{}
	if _, err := hub.Add(context.Background(), "g1", conn, game.Viewer{Host: true}); err != nil {
		t.Fatalf("add: %v", err)
	}
	msgs := conn.snapshot()
	if len(msgs) != 1 || msgs[0].Type != "snapshot" || msgs[0].State == nil {
		t.Fatalf("expected initial snapshot, got %#v", msgs)
	}
	if msgs[0].Version != 3 || len(msgs[0].State.Players) != 3 {
		t.Fatalf("unexpected initial state %#v", msgs[0])
	}
}

func TestAddUnknownGame(t *testing.T) {
	hub := NewHub(store.NewMemory(), nil)
	conn := &fakeConn{}
	if _, err := hub.Add(context.Background(), "missing", conn, game.Viewer{Host: true}); !game.IsKind(err, game.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !conn.closed || hub.Rooms() != 0 {
		t.Fatalf("expected connection closed and room dropped")
	}
}

func TestChangesFanOutWithRoleViews(t *testing.T) {
	st := store.NewMemory()
	seed(t, st)
	hub := NewHub(st, nil)
	defer hub.Close()
	ctx := context.Background()

	hostConn := &fakeConn{}
	bobConn := &fakeConn{}
	if _, err := hub.Add(ctx, "g1", hostConn, game.Viewer{Host: true}); err != nil {
		t.Fatalf("add host: %v", err)
	}
	if _, err := hub.Add(ctx, "g1", bobConn, game.Viewer{PlayerID: "bob"}); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if hub.Rooms() != 1 {
		t.Fatalf("expected one subscription for the game, got %d", hub.Rooms())
	}

	if _, err := st.UpdateGameStatus(ctx, "g1", game.NewStatusPatch(game.StatusSetup, game.StatusCollecting, base)); err != nil {
		t.Fatalf("start: %v", err)
	}
	sub := &game.Submission{ID: "s1", GameID: "g1", PlayerID: "alice", Round: 1, Type: game.SubmissionGratitude, Content: "pie", CreatedAt: base, UpdatedAt: base}
	if err := st.InsertSubmission(ctx, sub, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := st.UpdateGameStatus(ctx, "g1", game.NewStatusPatch(game.StatusCollecting, game.StatusRevealing, base)); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := st.MarkRevealed(ctx, "g1", "s1", base); err != nil {
		t.Fatalf("mark revealed: %v", err)
	}

	revealed := func(m Message) bool {
		return m.State != nil && len(m.State.Submissions) == 1 && m.State.Submissions[0].IsRevealed
	}
	hostMsg := hostConn.waitFor(t, revealed)
	bobMsg := bobConn.waitFor(t, revealed)
	if hostMsg.State.Submissions[0].PlayerID != "alice" {
		t.Fatalf("expected host to see the author")
	}
	if bobMsg.State.Submissions[0].PlayerID != "" || bobMsg.State.Game.HostID != "" {
		t.Fatalf("expected player view to hide author and host")
	}

	for _, conn := range []*fakeConn{hostConn, bobConn} {
		msgs := conn.snapshot()
		for i := 1; i < len(msgs); i++ {
			if msgs[i].Version <= msgs[i-1].Version {
				t.Fatalf("versions regressed: %d after %d", msgs[i].Version, msgs[i-1].Version)
			}
			if msgs[i].State.Game.Status.Rank() < msgs[i-1].State.Game.Status.Rank() {
				t.Fatalf("status regressed: %s after %s", msgs[i].State.Game.Status, msgs[i-1].State.Game.Status)
			}
		}
	}
}

func TestStaleSnapshotIsDropped(t *testing.T) {
	st := store.NewMemory()
	seed(t, st)
	ctx := context.Background()
	stale, _ := st.Snapshot(ctx, "g1")
	if _, err := st.UpdateGameStatus(ctx, "g1", game.NewStatusPatch(game.StatusSetup, game.StatusCollecting, base)); err != nil {
		t.Fatalf("start: %v", err)
	}
	fresh, _ := st.Snapshot(ctx, "g1")

	conn := &fakeConn{}
	client := &Client{conn: conn, viewer: game.Viewer{Host: true}}
	if err := client.deliver(fresh); err != nil {
		t.Fatalf("deliver fresh: %v", err)
	}
	if err := client.deliver(stale); err != nil {
		t.Fatalf("deliver stale: %v", err)
	}
	msgs := conn.snapshot()
	if len(msgs) != 1 || msgs[0].State.Game.Status != game.StatusCollecting {
		t.Fatalf("expected stale snapshot dropped, got %#v", msgs)
	}
}

func TestLastClientOutCancelsSubscription(t *testing.T) {
	st := store.NewMemory()
	seed(t, st)
	hub := NewHub(st, nil)
	ctx := context.Background()

	first := &fakeConn{}
	second := &fakeConn{}
	a, err := hub.Add(ctx, "g1", first, game.Viewer{Host: true})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := hub.Add(ctx, "g1", second, game.Viewer{PlayerID: "alice"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	hub.Remove("g1", a)
	if hub.Rooms() != 1 || !first.closed {
		t.Fatalf("expected room kept while a client remains")
	}
	hub.Remove("g1", b)
	if hub.Rooms() != 0 {
		t.Fatalf("expected room dropped with last client")
	}
	if err := st.InsertPlayer(ctx, &game.Player{ID: "carol", GameID: "g1", Name: "carol", JoinedAt: base}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(second.snapshot()) != 1 {
		t.Fatalf("expected no delivery after removal")
	}
}

func TestFailedWriteRemovesClient(t *testing.T) {
	st := store.NewMemory()
	seed(t, st)
	hub := NewHub(st, nil)
	defer hub.Close()
	ctx := context.Background()

	conn := &fakeConn{}
	if _, err := hub.Add(ctx, "g1", conn, game.Viewer{Host: true}); err != nil {
		t.Fatalf("add: %v", err)
	}
	conn.mu.Lock()
	conn.failing = true
	conn.mu.Unlock()
	if err := st.InsertPlayer(ctx, &game.Player{ID: "carol", GameID: "g1", Name: "carol", JoinedAt: base}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.Rooms() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Rooms() != 0 {
		t.Fatalf("expected broken client removed")
	}
}
