package board

import (
	"unicode"

	"memoryscramble/boarderrors"
)

// card is a single cell of the grid: a label plus the three orthogonal flags
// described in spec.md §3 — on-board, face-up, and controller.
//
// Mutable; never exposed by reference outside the board package.
type card struct {
	value          string
	onBoard        bool
	faceUp         bool
	controller     string // "" means no controller
	lastController string // diagnostic only, not part of any invariant
}

// validateLabel checks the non-empty, whitespace-free rule shared by card
// values, board-file labels, and map() transform results.
func validateLabel(v string) error {
	if v == "" {
		return boarderrors.Invalidf("label must be non-empty")
	}
	for _, r := range v {
		if unicode.IsSpace(r) {
			return boarderrors.Invalidf("label %q must not contain whitespace", v)
		}
	}
	return nil
}

// newCard creates a card face-down, uncontrolled, on the board.
func newCard(value string) (*card, error) {
	if err := validateLabel(value); err != nil {
		return nil, err
	}
	return &card{value: value, onBoard: true}, nil
}

// flipUp turns a card face up. Fails if the card has been removed.
func (c *card) flipUp() error {
	if !c.onBoard {
		return boarderrors.ErrInvalidState
	}
	c.faceUp = true
	c.checkRep()
	return nil
}

// flipDown turns a card face down, clearing any controller.
func (c *card) flipDown() error {
	if !c.onBoard {
		return boarderrors.ErrInvalidState
	}
	c.faceUp = false
	c.controller = ""
	c.checkRep()
	return nil
}

// setController assigns control of the card. Clearing control (player == "")
// always succeeds; assigning a real controller fails on a removed or
// face-down card.
func (c *card) setController(player string) error {
	if player != "" && (!c.onBoard || !c.faceUp) {
		return boarderrors.ErrInvalidState
	}
	c.lastController = c.controller
	c.controller = player
	c.checkRep()
	return nil
}

// remove takes the card off the board permanently. The label is retained so
// the card keeps a stable identity as a tombstone.
func (c *card) remove() {
	c.onBoard = false
	c.faceUp = false
	c.controller = ""
	c.checkRep()
}

// checkRep panics if a representation invariant from spec.md §3 is violated.
// Every mutator above calls this; a violation here means a bug in this file,
// not caller misuse (caller misuse is rejected before mutation, above).
func (c *card) checkRep() {
	if c.value == "" {
		panic("card: value must be non-empty")
	}
	if !c.onBoard {
		if c.faceUp {
			panic("card: removed card must be face down")
		}
		if c.controller != "" {
			panic("card: removed card must be uncontrolled")
		}
	}
	if !c.faceUp && c.controller != "" {
		panic("card: face-down card must be uncontrolled")
	}
}
