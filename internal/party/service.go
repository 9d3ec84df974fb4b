package party

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"grateful-roasted/internal/game"
	"grateful-roasted/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HostPlayerName = "Host"
	codeAttempts   = 5
	tokenBytes     = 32
)

// Service runs every game operation against the store and enforces the
// session rules server-side.
type Service struct {
	store   store.Store
	log     *zap.SugaredLogger
	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithCodes(next func() (string, error)) Option {
	return func(s *Service) {
		s.newCode = next
	}
}

func WithIDs(next func() string) Option {
	return func(s *Service) {
		s.newID = next
	}
}

func New(st store.Store, log *zap.SugaredLogger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Service{
		store:   st,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		newCode: game.NewCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the backing store so the realtime hub can subscribe to it.
func (s *Service) Store() store.Store {
	return s.store
}

func newSessionToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", game.StoreFailure("failed to create session", err)
	}
	return hex.EncodeToString(buf), nil
}

// record appends an audit event. The action already happened, so a failure
// here is logged and dropped.
func (s *Service) record(ctx context.Context, gameID string, playerID *string, kind string, payload map[string]any) {
	event := &game.Event{
		GameID:    gameID,
		PlayerID:  playerID,
		Type:      kind,
		Payload:   payload,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendEvent(ctx, event); err != nil {
		s.log.Warnw("event persist failed", "game_id", gameID, "event", kind, "error", err)
	}
}

func (s *Service) Events(ctx context.Context, hostID, gameID string) ([]game.Event, error) {
	if _, err := s.AuthorizeHost(ctx, hostID, gameID); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, gameID)
}
