package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signClaims(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHostTokenMustExpire(t *testing.T) {
	auth := hostAuth{secret: []byte(testSecret)}
	now := time.Now()

	forever := signClaims(t, jwt.RegisteredClaims{Subject: "host-a", IssuedAt: jwt.NewNumericDate(now)})
	if _, err := auth.hostID(forever); err == nil {
		t.Fatalf("expected token without exp to be rejected")
	}
	expired := signClaims(t, jwt.RegisteredClaims{Subject: "host-a", ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	if _, err := auth.hostID(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
	valid := signClaims(t, jwt.RegisteredClaims{Subject: "host-a", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
	if id, err := auth.hostID(valid); err != nil || id != "host-a" {
		t.Fatalf("expected host-a, got %q %v", id, err)
	}
}

func TestIssueHostTokenNeedsLifetime(t *testing.T) {
	if _, err := IssueHostToken(testSecret, "host-a", 0); err == nil {
		t.Fatalf("expected zero ttl to be rejected")
	}
}

func TestCreateGameRejectsNonExpiringToken(t *testing.T) {
	ts := newTestApp(t)
	payload := map[string]any{"name": "Friday Roast", "game_mode": "both"}
	forever := signClaims(t, jwt.RegisteredClaims{Subject: "host-a"})

	expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/games", payload, asHost(forever)), http.StatusUnauthorized)
}
