package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected invalid level rejected")
	}
	log, err := New("debug", "console")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug enabled")
	}
}

func TestRequestsLogsClientErrorsAsWarnings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(Requests(zap.New(core).Sugar()))
	router.GET("/api/games/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/g1", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log line, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["game_id"] != "g1" || fields["status"] != int64(http.StatusNotFound) {
		t.Fatalf("unexpected fields %#v", fields)
	}
}
