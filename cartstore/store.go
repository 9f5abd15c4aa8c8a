package cartstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"gofreshmart.io/market/cart"
	"gofreshmart.io/market/models"
)

// Blob is the durable key-value collaborator the store mirrors into. A missing
// key is reported through the found flag, not an error.
type Blob interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

const defaultFlushDelay = 100 * time.Millisecond

// Store durably mirrors a session's cart so it survives a restart. It is a
// passive mirror: it never mutates the engine, and persistence failures never
// surface past the log. The in-memory engine stays the source of truth.
type Store struct {
	blob       Blob
	logger     *zap.Logger
	flushDelay time.Duration

	mu      sync.Mutex
	pending *pendingFlush
	timer   *time.Timer
	closed  bool
}

type pendingFlush struct {
	userID string
	active []models.CartLine
	saved  []models.CartLine
}

// NewStore creates a store over the given blob storage.
func NewStore(blob Blob, logger *zap.Logger) *Store {
	return &Store{
		blob:       blob,
		logger:     logger,
		flushDelay: defaultFlushDelay,
	}
}

func activeKey(userID string) string { return "cart:active:" + userID }
func savedKey(userID string) string  { return "cart:saved:" + userID }

// Load rehydrates both lists for the user. Missing or malformed data yields
// empty lists; malformed blobs are discarded, never an error for the caller.
func (s *Store) Load(ctx context.Context, userID string) (active, saved []models.CartLine) {
	return s.loadKey(ctx, activeKey(userID)), s.loadKey(ctx, savedKey(userID))
}

func (s *Store) loadKey(ctx context.Context, key string) []models.CartLine {
	data, found, err := s.blob.Read(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to read cart blob", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}

	var lines []models.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		// 壞掉的資料直接丟棄，重新從空購物車開始
		s.logger.Warn("Discarding malformed cart blob", zap.String("key", key), zap.Error(err))
		return nil
	}
	return lines
}

// Save writes both lists immediately. Best effort: errors are logged and
// swallowed, the in-memory state is not rolled back.
func (s *Store) Save(ctx context.Context, userID string, active, saved []models.CartLine) {
	s.saveKey(ctx, activeKey(userID), active)
	s.saveKey(ctx, savedKey(userID), saved)
}

func (s *Store) saveKey(ctx context.Context, key string, lines []models.CartLine) {
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		s.logger.Error("Failed to marshal cart blob", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.blob.Write(ctx, key, data); err != nil {
		s.logger.Warn("Failed to write cart blob", zap.String("key", key), zap.Error(err))
	}
}

// Attach subscribes the store to the engine's change notifications. Writes are
// debounced: bursts of mutations within flushDelay collapse into one write of
// the latest state.
func (s *Store) Attach(engine *cart.Engine) {
	userID := engine.UserID()
	engine.Subscribe(func(active, saved []models.CartLine) {
		s.schedule(userID, active, saved)
	})
}

func (s *Store) schedule(userID string, active, saved []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = &pendingFlush{userID: userID, active: active, saved: saved}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.flushDelay, s.flush)
	}
}

// flush writes the latest pending state.
func (s *Store) flush() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if p == nil {
		return
	}
	s.Save(context.Background(), p.userID, p.active, p.saved)
}

// Close stops the debounce timer and performs a final synchronous flush so the
// mirror converges to the last engine state.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	p := s.pending
	s.pending = nil
	s.mu.Unlock()

	if p != nil {
		s.Save(context.Background(), p.userID, p.active, p.saved)
	}
}
