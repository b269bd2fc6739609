package aggregate

import (
	"context"
	"sort"

	"github.com/vietddude/tokenlens/internal/core/domain"
)

// IntervalQuery parameterizes an interval aggregation.
type IntervalQuery struct {
	Token    string
	From     int64 // inclusive, unix seconds
	To       int64 // inclusive, unix seconds
	PageSize int

	// MaxRecords caps how many transfer records the scan visits.
	MaxRecords int

	// DescendingTime asserts upstream returns transfers newest first.
	// Only then may the scan stop at the first record older than From.
	DescendingTime bool
}

// Interval reports every wallet with at least one transfer inside
// [From, To], each with its latest in-window activity time. Output is
// sorted by wallet so identical upstream pages produce identical bytes.
func Interval(
	ctx context.Context,
	src TransferSource,
	q IntervalQuery,
) ([]domain.ActivityEntry, Stats, error) {
	last := make(map[string]int64)
	var stats Stats

	pages, err := scanPages(ctx, func(ctx context.Context, offset int) (pageResult, error) {
		page, err := src.TokenTransfers(ctx, q.Token, offset, q.PageSize)
		if err != nil {
			return pageResult{}, err
		}

		res := pageResult{count: len(page.Transfers), total: page.Total}
		for _, t := range page.Transfers {
			stats.Records++

			if t.BlockTime >= q.From && t.BlockTime <= q.To {
				if prev, ok := last[t.Owner]; !ok || t.BlockTime > prev {
					last[t.Owner] = t.BlockTime
				}
			}

			if q.DescendingTime && t.BlockTime < q.From {
				// Everything after this record is older still.
				res.stop = true
				break
			}
			if q.MaxRecords > 0 && stats.Records >= q.MaxRecords {
				res.stop = true
				break
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, Stats{}, err
	}
	stats.Pages = pages

	entries := make([]domain.ActivityEntry, 0, len(last))
	for wallet, lastTx := range last {
		entries = append(entries, domain.ActivityEntry{Wallet: wallet, LastTx: lastTx})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Wallet < entries[j].Wallet
	})
	return entries, stats, nil
}
