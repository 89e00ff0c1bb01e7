package fetcher

import (
	"errors"
	"iter"

	"github.com/feral-file/pkp-indexer/internal/domain"
)

// ErrZeroWindowSize is returned when windows of zero blocks are requested
var ErrZeroWindowSize = errors.New("window size must be greater than 0")

// Windows tiles the inclusive range into consecutive windows of at most size blocks.
// The last window is clipped to rng.To. Walking can be resumed from any block by
// passing a range that starts there.
func Windows(rng domain.BlockRange, size uint64) (iter.Seq[domain.BlockRange], error) {
	if size == 0 {
		return nil, ErrZeroWindowSize
	}

	return func(yield func(domain.BlockRange) bool) {
		if rng.Empty() {
			return
		}

		from := rng.From
		for {
			to := rng.To
			if rng.To-from >= size {
				to = from + size - 1
			}
			if !yield(domain.BlockRange{From: from, To: to}) {
				return
			}
			if to == rng.To {
				return
			}
			from = to + 1
		}
	}, nil
}
