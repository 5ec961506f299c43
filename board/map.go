package board

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Transformer computes the new label for an old label during Map. It may
// be concurrent with other transformer calls and may suspend (spec.md
// §4.3.6 step 2); a non-nil error aborts the whole Map before anything
// commits.
type Transformer func(ctx context.Context, oldLabel string) (newLabel string, err error)

// Map implements spec.md §4.3.6: relabels the board while preserving the
// partition "two cards match iff their labels are equal". It snapshots the
// current on-board groups under lock, runs transform concurrently per
// distinct label without holding the lock, validates every result, then
// commits each group independently under lock so a concurrent flip always
// observes either the full old label or the full new label for a group.
func (b *Board) Map(ctx context.Context, transform Transformer) error {
	b.mu.Lock()
	groups := make(map[string][]int) // label -> on-board card indices
	for i, c := range b.cards {
		if c.onBoard {
			groups[c.value] = append(groups[c.value], i)
		}
	}
	b.mu.Unlock()

	newLabels := make(map[string]string, len(groups))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for oldLabel := range groups {
		oldLabel := oldLabel
		g.Go(func() error {
			newLabel, err := transform(gctx, oldLabel)
			if err != nil {
				return err
			}
			if err := validateLabel(newLabel); err != nil {
				return err
			}
			resultsMu.Lock()
			newLabels[oldLabel] = newLabel
			resultsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// No group has committed yet; the board is untouched.
		return err
	}

	for oldLabel, indices := range groups {
		newLabel := newLabels[oldLabel]
		b.commitGroup(indices, newLabel)
	}
	return nil
}

// commitGroup assigns newLabel to every position in indices that is still
// on-board, then bumps version once for the group. A card removed between
// snapshot and commit is simply skipped.
func (b *Board) commitGroup(indices []int, newLabel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, idx := range indices {
		if b.cards[idx].onBoard {
			b.cards[idx].value = newLabel
		}
	}
	b.version++
	b.watchCond.Broadcast()
}
