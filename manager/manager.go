// Package manager hosts more than one named board.Board in a single server
// process, adapting the registry/lifecycle shape of the original server's
// WebSocket client hub to a map of board IDs instead of a set of
// connections: boards are registered (created) and unregistered (discarded)
// under one mutex, with board creation throttled the way the hub throttles
// nothing but the matchmaker throttles queue churn.
package manager

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"memoryscramble/board"
	"memoryscramble/boarderrors"
)

// BoardManager holds a registry of boards keyed by ID, safe for concurrent
// use. The zero value is not usable; construct with New.
type BoardManager struct {
	mu      sync.RWMutex
	boards  map[string]*board.Board
	limiter *rate.Limiter
	log     *slog.Logger
}

// New returns a BoardManager whose board-creation calls are throttled to
// createRPS per second (burst of createRPS). createRPS <= 0 disables
// throttling.
func New(createRPS int, log *slog.Logger) *BoardManager {
	var limiter *rate.Limiter
	if createRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(createRPS), createRPS)
	}
	return &BoardManager{
		boards:  make(map[string]*board.Board),
		limiter: limiter,
		log:     log.With("tag", "manager"),
	}
}

// Register adds an already-built board under its own ID and returns that
// ID. Used for a board supplied at startup (from a file or generated
// randomly), which bypasses the creation rate limit since it isn't served
// over HTTP.
func (m *BoardManager) Register(b *board.Board) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[b.ID] = b
	m.log.Info("board registered", "id", b.ID)
	return b.ID
}

// Create builds a new random board of rows x cols and registers it,
// respecting the manager's creation rate limit. ctx governs only the
// rate-limiter wait, not the board's subsequent lifetime.
func (m *BoardManager) Create(ctx context.Context, rows, cols int) (*board.Board, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	b, err := board.NewRandom(rows, cols)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.boards[b.ID] = b
	m.mu.Unlock()

	m.log.Info("board created", "id", b.ID, "rows", rows, "cols", cols)
	return b, nil
}

// Get returns the board registered under id.
func (m *BoardManager) Get(id string) (*board.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, boarderrors.NotFoundf("no board registered with id %q", id)
	}
	return b, nil
}

// Unregister discards the board registered under id, if any.
func (m *BoardManager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boards[id]; ok {
		delete(m.boards, id)
		m.log.Info("board unregistered", "id", id)
	}
}

// IDs returns every currently registered board ID, in no particular order.
func (m *BoardManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.boards))
	for id := range m.boards {
		ids = append(ids, id)
	}
	return ids
}
