package board

import (
	"fmt"
	"math/rand"

	"memoryscramble/boarderrors"
)

// NewRandom builds a board of rows x cols cells filled with shuffled pairs
// labeled "0".."rows*cols/2-1", for servers started without a board file.
// rows*cols must be even.
func NewRandom(rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, boarderrors.Invalidf("board dimensions must be positive, got %dx%d", rows, cols)
	}
	total := rows * cols
	if total%2 != 0 {
		return nil, boarderrors.Invalidf("a %dx%d board has an odd number of cells, cannot pair them up", rows, cols)
	}

	labels := make([]string, total)
	for i := 0; i < total/2; i++ {
		labels[2*i] = fmt.Sprintf("%d", i)
		labels[2*i+1] = fmt.Sprintf("%d", i)
	}
	rand.Shuffle(total, func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})

	return New(rows, cols, labels)
}
