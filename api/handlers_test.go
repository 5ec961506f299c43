package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"memoryscramble/board"
	"memoryscramble/manager"
)

func testHandler(t *testing.T) (*Handler, *manager.BoardManager) {
	t.Helper()
	mgr := manager.New(0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewHandler(mgr, 2, 2, slog.New(slog.NewTextHandler(io.Discard, nil))), mgr
}

func registerTestBoard(t *testing.T, mgr *manager.BoardManager, labels []string, rows, cols int) string {
	t.Helper()
	b, err := board.New(rows, cols, labels)
	if err != nil {
		t.Fatalf("board.New: %v", err)
	}
	return mgr.Register(b)
}

func TestLookUnknownBoardIs404(t *testing.T) {
	h, _ := testHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/boards/nope/look/p", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestLookReturnsSnapshot(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"A", "A"}, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/look/p", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "1x2") {
		t.Fatalf("body = %q, want header 1x2", w.Body.String())
	}
}

func TestFlipInvalidPositionIs400(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"A", "A"}, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/flip/p/bad-pos", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestFlipThenLookShowsControlledCard(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"A", "B"}, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/flip/p/0,0", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "my A") {
		t.Fatalf("body = %q, want it to show the flipped card as controlled", w.Body.String())
	}
}

func TestFlipRemovedReturnsConflictWithSnapshot(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"A", "A"}, 1, 2)

	mustFlipHTTP(t, h, id, "p", "0,0")
	mustFlipHTTP(t, h, id, "p", "0,1") // match

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/flip/p/0,0", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "none") {
		t.Fatalf("409 body = %q, want it to still carry the caller's current board snapshot", w.Body.String())
	}
}

func TestWatchRejectsInvalidPlayerID(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"A", "A"}, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/watch/bad-id", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestReplaceRenamesLabel(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"a", "a"}, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/replace/p/a/z", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "down") {
		t.Fatalf("replace response = %q, want a board snapshot with down cards", w.Body.String())
	}

	b, _ := mgr.Get(id)
	snap, _ := b.Look("checker")
	if !strings.Contains(snap, "down") {
		t.Fatalf("board should still have face-down cards after replace: %q", snap)
	}
}

func TestReplaceRejectsInvalidPlayerID(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"a", "a"}, 1, 2)

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/replace/bad-id/a/z", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
	}
}

func TestResetReturnsSnapshot(t *testing.T) {
	h, mgr := testHandler(t)
	id := registerTestBoard(t, mgr, []string{"A", "A"}, 1, 2)

	mustFlipHTTP(t, h, id, "p", "0,0")

	req := httptest.NewRequest(http.MethodGet, "/boards/"+id+"/reset/p", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "down") || strings.Contains(w.Body.String(), "my") {
		t.Fatalf("reset response = %q, want every card face down", w.Body.String())
	}
}

func TestCreateAndListBoards(t *testing.T) {
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/boards", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /boards status = %d, want 201", w.Code)
	}
	id := strings.TrimSpace(w.Body.String())
	if id == "" {
		t.Fatal("POST /boards should return a board id")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/boards", nil)
	w2 := httptest.NewRecorder()
	h.Routes().ServeHTTP(w2, req2)
	if !strings.Contains(w2.Body.String(), id) {
		t.Fatalf("GET /boards body = %q, want it to contain %q", w2.Body.String(), id)
	}
}

func mustFlipHTTP(t *testing.T, h *Handler, boardID, playerID, pos string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/boards/"+boardID+"/flip/"+playerID+"/"+pos, nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("flip(%s,%s) status = %d, body=%s", playerID, pos, w.Code, w.Body.String())
	}
}
