package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grateful-roasted/internal/config"
	"grateful-roasted/internal/party"
	"grateful-roasted/internal/realtime"
	"grateful-roasted/internal/store"
)

const testSecret = "test-host-secret"

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// newTestApp wires a server over an in-memory store.
func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()
	st := store.NewMemory()
	hub := realtime.NewHub(st, nil)
	cfg := config.Default()
	cfg.HostAuthSecret = testSecret
	srv := New(party.New(st, nil), hub, nil, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		hub.Close()
	})
	return ts
}

func hostToken(t *testing.T, hostID string) string {
	t.Helper()
	token, err := IssueHostToken(testSecret, hostID, time.Hour)
	if err != nil {
		t.Fatalf("issue host token: %v", err)
	}
	return token
}

func asHost(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func asPlayer(token string) map[string]string {
	return map[string]string{sessionHeader: token}
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, want int) map[string]any {
	t.Helper()
	body := decodeBody(t, resp)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d (%v)", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
	return body
}

func assertString(t *testing.T, value any) string {
	t.Helper()
	s, ok := value.(string)
	if !ok {
		t.Fatalf("expected string, got %T", value)
	}
	return s
}

type testGame struct {
	id    string
	code  string
	token string
}

func createGame(t *testing.T, ts *httptest.Server, hostID string, settings map[string]any) testGame {
	t.Helper()
	token := hostToken(t, hostID)
	payload := map[string]any{"name": "Friday Roast", "game_mode": "both"}
	if settings != nil {
		payload["settings"] = settings
	}
	body := expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/games", payload, asHost(token)), http.StatusCreated)
	g := body["game"].(map[string]any)
	return testGame{
		id:    assertString(t, g["id"]),
		code:  assertString(t, g["code"]),
		token: token,
	}
}

type testPlayer struct {
	id    string
	token string
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name string) testPlayer {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/codes/"+code+"/join", map[string]string{"name": name}, nil)
	body := expectStatus(t, resp, http.StatusCreated)
	player := body["player"].(map[string]any)
	return testPlayer{
		id:    assertString(t, player["id"]),
		token: assertString(t, body["session_token"]),
	}
}

func hostPost(t *testing.T, ts *httptest.Server, g testGame, action string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/games/"+g.id+"/"+action, nil, asHost(g.token))
}

func submit(t *testing.T, ts *httptest.Server, g testGame, p testPlayer, payload map[string]any) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/games/"+g.id+"/submissions", payload, asPlayer(p.token))
}

func fetchView(t *testing.T, ts *httptest.Server, g testGame, headers map[string]string) map[string]any {
	t.Helper()
	return expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/games/"+g.id, nil, headers), http.StatusOK)
}
