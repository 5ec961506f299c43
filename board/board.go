// Package board implements the Memory Scramble concurrency core: a shared,
// mutable grid of face-down cards flipped concurrently by many players
// under a three-rule flip protocol, with per-position blocking/wakeup, a
// long-poll watch, and an atomic-per-group relabeling operation.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"memoryscramble/boarderrors"
)

// Board is a rows x cols grid of cards shared by every player who names it.
// Mutable and safe for concurrent use; all card, player-table, and version
// access happens under mu.
type Board struct {
	ID   string
	rows int
	cols int

	mu      sync.Mutex
	cards   []*card // row-major, length rows*cols
	players map[string]*playerState
	version uint64

	// positionConds holds one condition per grid position that has ever had
	// a waiter, created lazily. All are bound to mu.
	positionConds map[Position]*sync.Cond
	watchCond     *sync.Cond
}

// New builds a board of the given dimensions from labels in row-major order.
// len(labels) must equal rows*cols; rows and cols must be positive.
func New(rows, cols int, labels []string) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, boarderrors.Invalidf("board dimensions must be positive, got %dx%d", rows, cols)
	}
	if len(labels) != rows*cols {
		return nil, boarderrors.Invalidf("expected %d labels for a %dx%d board, got %d", rows*cols, rows, cols, len(labels))
	}

	cards := make([]*card, len(labels))
	for i, label := range labels {
		c, err := newCard(label)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}

	b := &Board{
		ID:            uuid.NewString(),
		rows:          rows,
		cols:          cols,
		cards:         cards,
		players:       make(map[string]*playerState),
		positionConds: make(map[Position]*sync.Cond),
	}
	b.watchCond = sync.NewCond(&b.mu)
	return b, nil
}

// Dimensions returns the board's fixed (rows, cols).
func (b *Board) Dimensions() (rows, cols int) {
	return b.rows, b.cols
}

func (b *Board) inRange(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.rows && pos.Col >= 0 && pos.Col < b.cols
}

func (b *Board) index(pos Position) int {
	return pos.Row*b.cols + pos.Col
}

// positionCond returns the condition for pos, creating it on first use.
// Must be called with mu held.
func (b *Board) positionCond(pos Position) *sync.Cond {
	cond, ok := b.positionConds[pos]
	if !ok {
		cond = sync.NewCond(&b.mu)
		b.positionConds[pos] = cond
	}
	return cond
}

func (b *Board) getOrCreatePlayer(id string) *playerState {
	ps, ok := b.players[id]
	if !ok {
		ps = newPlayerState(id)
		b.players[id] = ps
	}
	return ps
}

// signalAndBump broadcasts the condition for every position in signalSet,
// then increments version and broadcasts the watch condition. Must be
// called with mu held, and only when a mutation actually happened — per
// spec.md §8 P5, version strictly increases across any mutating operation.
func (b *Board) signalAndBump(signalSet map[Position]struct{}) {
	for pos := range signalSet {
		if cond, ok := b.positionConds[pos]; ok {
			cond.Broadcast()
		}
	}
	b.version++
	b.watchCond.Broadcast()
}

// waitForChange releases mu, waits on cond, and reacquires mu, the way
// sync.Cond.Wait always does. If ctx is cancelled while waiting, an
// AfterFunc wakes the condition so the wait loop can observe ctx.Err()
// instead of blocking forever.
func waitForChange(ctx context.Context, cond *sync.Cond) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, cond.Broadcast)
	defer stop()
	cond.Wait()
	return ctx.Err()
}

// FlipFirst implements spec.md §4.3.1: the first flip of a turn. It blocks
// (releasing the board lock) while the target card is face up and
// controlled by someone else, waking whenever that position is released,
// until the card becomes available or is removed.
func (b *Board) FlipFirst(ctx context.Context, playerID string, pos Position) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inRange(pos) {
		return boarderrors.Invalidf("position %v out of range for a %dx%d board", pos, b.rows, b.cols)
	}

	idx := b.index(pos)

	// Turn-boundary cleanup (spec.md §4.3.5) for the acting player runs
	// before we check whether the new target is available. Running it
	// after the wait instead (a literal reading of §4.3.1's prose) lets a
	// player deadlock against their own still-matched-and-controlled cards
	// when they flip one of those very positions next (spec.md §8 scenario
	// 1's third flip, and scenario 4's cleanup-triggering flip, both target
	// a position the acting player still controls at the time of the
	// call) — cleanup must free those positions first. See DESIGN.md.
	ps := b.getOrCreatePlayer(playerID)
	signalSet := make(map[Position]struct{})
	if b.cleanupTurnBoundary(ps, signalSet) {
		b.signalAndBump(signalSet)
		signalSet = make(map[Position]struct{})
	}

	for {
		c := b.cards[idx]
		if c.onBoard && c.faceUp && c.controller != "" {
			if err := waitForChange(ctx, b.positionCond(pos)); err != nil {
				return err
			}
			continue
		}
		break
	}

	c := b.cards[idx]
	var opErr error
	mutated := false
	switch {
	case !c.onBoard:
		opErr = boarderrors.NewFlipError(boarderrors.ErrRemoved)
	case !c.faceUp:
		_ = c.flipUp()
		_ = c.setController(playerID)
		ps.firstCard = &pos
		mutated = true
	default: // face up, uncontrolled
		_ = c.setController(playerID)
		ps.firstCard = &pos
		mutated = true
	}

	if mutated {
		b.signalAndBump(signalSet)
		slog.Default().Info("card flipped", "tag", "board", "board", b.ID, "player", playerID, "pos", pos)
	}
	return opErr
}

// FlipSecond implements spec.md §4.3.2. Never blocks: a controlled second
// target is an immediate error. Requires the caller already hold a first
// card with no second card set; violating that is a programmer error
// (invalid-state), not a flip rule.
func (b *Board) FlipSecond(playerID string, pos Position) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inRange(pos) {
		return boarderrors.Invalidf("position %v out of range for a %dx%d board", pos, b.rows, b.cols)
	}

	ps, ok := b.players[playerID]
	if !ok || ps.firstCard == nil || ps.secondCard != nil {
		return boarderrors.ErrInvalidState
	}

	firstPos := *ps.firstCard
	firstCard := b.cards[b.index(firstPos)]
	c := b.cards[b.index(pos)]
	signalSet := make(map[Position]struct{})

	relinquishFirst := func() {
		_ = firstCard.setController("")
		signalSet[firstPos] = struct{}{}
		ps.firstCard = nil
	}

	switch {
	case !c.onBoard:
		relinquishFirst()
		b.signalAndBump(signalSet)
		return boarderrors.NewFlipError(boarderrors.ErrRemoved)

	case c.faceUp && c.controller != "":
		relinquishFirst()
		b.signalAndBump(signalSet)
		return boarderrors.NewFlipError(boarderrors.ErrControlled)

	case !c.faceUp:
		_ = c.flipUp()
	}

	_ = c.setController(playerID)
	ps.secondCard = &pos

	if firstCard.value == c.value {
		ps.markMatch(firstPos, pos)
		// Both controllers retained; nothing to signal for the match itself.
		slog.Default().Info("cards matched", "tag", "board", "board", b.ID, "player", playerID, "value", c.value, "pos1", firstPos, "pos2", pos)
	} else {
		_ = firstCard.setController("")
		_ = c.setController("")
		signalSet[firstPos] = struct{}{}
		signalSet[pos] = struct{}{}
		slog.Default().Info("cards mismatched", "tag", "board", "board", b.ID, "player", playerID, "pos1", firstPos, "pos2", pos)
	}

	b.signalAndBump(signalSet)
	return nil
}

// Flip implements spec.md §4.3.3: routes to FlipSecond only when the player
// is strictly mid-turn (first card held, no second card, no pending match);
// otherwise routes to FlipFirst, whose turn-boundary cleanup resolves both
// the match-pending and the post-mismatch cases before applying this flip.
func (b *Board) Flip(ctx context.Context, playerID string, pos Position) error {
	b.mu.Lock()
	ps, ok := b.players[playerID]
	routeToSecond := ok && ps.firstCard != nil && ps.secondCard == nil && ps.matchedPair == nil
	b.mu.Unlock()

	if routeToSecond {
		return b.FlipSecond(playerID, pos)
	}
	return b.FlipFirst(ctx, playerID, pos)
}

// cleanupTurnBoundary applies spec.md §4.3.5 turn-boundary cleanup for ps,
// adding every position it releases to signalSet, and reports whether it
// mutated any card. Must be called with mu held.
func (b *Board) cleanupTurnBoundary(ps *playerState, signalSet map[Position]struct{}) bool {
	defer ps.clearState()

	if ps.matchedPair != nil {
		a, c := ps.matchedPair[0], ps.matchedPair[1]
		b.cards[b.index(a)].remove()
		b.cards[b.index(c)].remove()
		signalSet[a] = struct{}{}
		signalSet[c] = struct{}{}
		slog.Default().Info("cards removed", "tag", "board", "board", b.ID, "player", ps.playerID, "pos1", a, "pos2", c)
		return true
	}

	mutated := false
	for _, pos := range []*Position{ps.firstCard, ps.secondCard} {
		if pos == nil {
			continue
		}
		c := b.cards[b.index(*pos)]
		if c.onBoard && c.faceUp && c.controller == "" {
			_ = c.flipDown()
			signalSet[*pos] = struct{}{}
			mutated = true
		}
	}
	return mutated
}

// sentinelViewer is passed to snapshotLocked by Watch: it can never equal a
// real controller value ("" means uncontrolled), so no cell renders as "my".
const sentinelViewer = "\x00watch"

// Look implements spec.md §4.3.4: a read-only, player-relative snapshot.
// Does not create a playerState entry and does not change version.
func (b *Board) Look(playerID string) (string, error) {
	if err := validatePlayerID(playerID); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(playerID), nil
}

// Watch implements spec.md §4.3.7: blocks until version advances past its
// starting point, then returns a snapshot from no player's perspective.
func (b *Board) Watch(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v0 := b.version
	for b.version == v0 {
		if err := waitForChange(ctx, b.watchCond); err != nil {
			return "", err
		}
	}
	return b.snapshotLocked(sentinelViewer), nil
}

// Reset implements spec.md §4.3.8: returns every card to its initial state
// and clears the player table. Wakes every position waiter so blocked
// flipFirst callers re-examine the now-available cards.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.cards {
		c.onBoard = true
		c.faceUp = false
		c.controller = ""
		c.lastController = ""
	}
	b.players = make(map[string]*playerState)
	for _, cond := range b.positionConds {
		cond.Broadcast()
	}
	b.version++
	b.watchCond.Broadcast()
}

// snapshotLocked renders the board from viewerID's perspective, per the
// format in spec.md §4.3.4 / §6. Must be called with mu held.
func (b *Board) snapshotLocked(viewerID string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d\n", b.rows, b.cols)
	for _, c := range b.cards {
		switch {
		case !c.onBoard:
			sb.WriteString("none\n")
		case !c.faceUp:
			sb.WriteString("down\n")
		case c.controller != "" && c.controller == viewerID:
			sb.WriteString("my ")
			sb.WriteString(c.value)
			sb.WriteByte('\n')
		default:
			sb.WriteString("up ")
			sb.WriteString(c.value)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
