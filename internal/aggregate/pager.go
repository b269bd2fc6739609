package aggregate

import (
	"context"

	"github.com/vietddude/tokenlens/internal/core/domain"
)

// HolderSource fetches one page of token holders at an offset.
type HolderSource interface {
	TokenHolders(ctx context.Context, token string, offset, limit int) (domain.HolderPage, error)
}

// TransferSource fetches one page of transfer records at an offset.
type TransferSource interface {
	TokenTransfers(ctx context.Context, token string, offset, limit int) (domain.TransferPage, error)
}

// Stats describes how much upstream data one aggregation consumed.
type Stats struct {
	Pages   int
	Records int
}

// pageResult reports what a consumer saw in one page.
type pageResult struct {
	count int  // records in the page
	total int  // upstream-reported total, 0 if unknown
	stop  bool // consumer-requested stop
}

// scanPages drives the shared paged fetch loop. It requests pages at
// increasing offsets until the consumer stops, a page comes back empty,
// or the upstream-reported total is exhausted. A fetch error aborts the
// whole scan; pages consumed so far are discarded by the caller.
func scanPages(
	ctx context.Context,
	fetch func(ctx context.Context, offset int) (pageResult, error),
) (int, error) {
	offset := 0
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		res, err := fetch(ctx, offset)
		if err != nil {
			return pages, err
		}
		pages++

		if res.count == 0 || res.stop {
			return pages, nil
		}

		offset += res.count
		if res.total > 0 && offset >= res.total {
			return pages, nil
		}
	}
}
