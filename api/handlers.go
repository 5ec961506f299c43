// Package api is the thin HTTP adapter over board.Board and manager.BoardManager:
// each route validates its path parameters, invokes exactly one board
// operation, and writes the resulting textual snapshot. No game logic
// lives here.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"memoryscramble/board"
	"memoryscramble/boarderrors"
	"memoryscramble/manager"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	Manager *manager.BoardManager
	Config  struct {
		BoardRows int
		BoardCols int
	}
	log *slog.Logger
}

// NewHandler builds a Handler backed by mgr, logging under tag "http".
func NewHandler(mgr *manager.BoardManager, boardRows, boardCols int, log *slog.Logger) *Handler {
	h := &Handler{Manager: mgr, log: log.With("tag", "http")}
	h.Config.BoardRows = boardRows
	h.Config.BoardCols = boardCols
	return h
}

// Routes returns a ServeMux with every route registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /boards/{boardId}/look/{playerId}", h.look)
	mux.HandleFunc("GET /boards/{boardId}/flip/{playerId}/{pos}", h.flip)
	mux.HandleFunc("GET /boards/{boardId}/watch/{playerId}", h.watch)
	mux.HandleFunc("GET /boards/{boardId}/replace/{playerId}/{from}/{to}", h.replace)
	mux.HandleFunc("GET /boards/{boardId}/reset/{playerId}", h.reset)
	mux.HandleFunc("POST /boards", h.createBoard)
	mux.HandleFunc("GET /boards", h.listBoards)
	return mux
}

func (h *Handler) boardFromPath(r *http.Request) (*board.Board, error) {
	id := r.PathValue("boardId")
	return h.Manager.Get(id)
}

func (h *Handler) look(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := b.Look(r.PathValue("playerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

func (h *Handler) flip(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := parsePosition(r.PathValue("pos"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap, flipErr := flipAndSnapshot(r.Context(), b, r.PathValue("playerId"), pos)
	if flipErr != nil {
		if errors.Is(flipErr, boarderrors.ErrFlip) {
			// The flip itself was rejected, but the caller's view of the
			// board is still valid and expected back (spec.md §7): send it
			// alongside the 409 instead of discarding it.
			writeSnapshotWithStatus(w, http.StatusConflict, snap)
			return
		}
		writeError(w, flipErr)
		return
	}
	writeSnapshot(w, snap)
}

// flipAndSnapshot applies the flip and always returns the caller's current
// view of the board afterward, even when the flip itself failed with a flip
// rule violation (spec.md §7: flip errors are reported to the caller, who
// then typically looks again).
func flipAndSnapshot(ctx context.Context, b *board.Board, playerID string, pos board.Position) (string, error) {
	flipErr := b.Flip(ctx, playerID, pos)
	if flipErr != nil && !errors.Is(flipErr, boarderrors.ErrFlip) {
		return "", flipErr
	}
	snap, lookErr := b.Look(playerID)
	if lookErr != nil {
		return "", lookErr
	}
	return snap, flipErr
}

// watch implements spec.md §6's GET /watch/{playerId}: playerId is
// validated the same as every other route even though Watch itself renders
// from no player's perspective (board.sentinelViewer, see DESIGN.md).
func (h *Handler) watch(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := board.ValidatePlayerID(r.PathValue("playerId")); err != nil {
		writeError(w, err)
		return
	}
	snap, err := b.Watch(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

// replace implements spec.md §6's GET /replace/{playerId}/{from}/{to}: 200
// with the board state after the relabel, from playerId's perspective.
func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	playerID := r.PathValue("playerId")
	if err := board.ValidatePlayerID(playerID); err != nil {
		writeError(w, err)
		return
	}

	from, to := r.PathValue("from"), r.PathValue("to")
	if err := b.Map(r.Context(), func(_ context.Context, old string) (string, error) {
		if old == from {
			return to, nil
		}
		return old, nil
	}); err != nil {
		writeError(w, err)
		return
	}

	snap, err := b.Look(playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

// reset implements spec.md §6's GET /reset/{playerId}: 200 with the board
// state after reset, from playerId's perspective.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	b, err := h.boardFromPath(r)
	if err != nil {
		writeError(w, err)
		return
	}
	playerID := r.PathValue("playerId")
	if err := board.ValidatePlayerID(playerID); err != nil {
		writeError(w, err)
		return
	}

	b.Reset()

	snap, err := b.Look(playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

func (h *Handler) createBoard(w http.ResponseWriter, r *http.Request) {
	b, err := h.Manager.Create(r.Context(), h.Config.BoardRows, h.Config.BoardCols)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info("board created via API", "id", b.ID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(b.ID + "\n"))
}

func (h *Handler) listBoards(w http.ResponseWriter, r *http.Request) {
	ids := h.Manager.IDs()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(strings.Join(ids, "\n") + "\n"))
}

// parsePosition parses a "row,col" path segment into a board.Position.
func parsePosition(s string) (board.Position, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return board.Position{}, boarderrors.Invalidf("malformed position %q, want ROW,COL", s)
	}
	row, err := strconv.Atoi(parts[0])
	if err != nil {
		return board.Position{}, boarderrors.Invalidf("malformed row in position %q", s)
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil {
		return board.Position{}, boarderrors.Invalidf("malformed column in position %q", s)
	}
	return board.Position{Row: row, Col: col}, nil
}

func writeSnapshot(w http.ResponseWriter, snap string) {
	writeSnapshotWithStatus(w, http.StatusOK, snap)
}

func writeSnapshotWithStatus(w http.ResponseWriter, status int, snap string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(snap))
}

// writeError maps a boarderrors sentinel to the HTTP status spec.md §6
// implies for it and writes the error text as the body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, boarderrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, boarderrors.ErrInvalidInput), errors.Is(err, boarderrors.ErrInvalidState), errors.Is(err, boarderrors.ErrParse):
		status = http.StatusBadRequest
	case errors.Is(err, boarderrors.ErrFlip):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}
	http.Error(w, err.Error(), status)
}
