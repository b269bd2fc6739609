package aggregate

import (
	"context"
	"math"
	"sort"

	"github.com/vietddude/tokenlens/internal/core/domain"
)

// TradersQuery parameterizes a traders aggregation.
type TradersQuery struct {
	Token    string
	Limit    int
	PageSize int

	// Decimals scales raw transfer amounts into UI units. SPL decimals
	// vary per mint, so this comes from the request or configuration.
	Decimals int

	// ByCount ranks wallets by transfer count instead of summed volume,
	// for upstream tiers that omit amounts.
	ByCount bool

	// MaxRecords caps how many transfer records the scan visits.
	MaxRecords int
}

type traderAcc struct {
	volume float64
	count  int
	lastTx int64
}

// Traders folds transfer records into per-wallet volume (or count) and
// latest activity, then ranks wallets by the accumulator descending and
// truncates to Limit. Ties keep first-observed order, so identical
// upstream pages always produce identical output.
func Traders(
	ctx context.Context,
	src TransferSource,
	q TradersQuery,
) ([]domain.TraderEntry, Stats, error) {
	accs := make(map[string]*traderAcc)
	var order []string
	var stats Stats

	scale := math.Pow(10, float64(q.Decimals))

	pages, err := scanPages(ctx, func(ctx context.Context, offset int) (pageResult, error) {
		page, err := src.TokenTransfers(ctx, q.Token, offset, q.PageSize)
		if err != nil {
			return pageResult{}, err
		}

		res := pageResult{count: len(page.Transfers), total: page.Total}
		for _, t := range page.Transfers {
			stats.Records++

			acc, ok := accs[t.Owner]
			if !ok {
				acc = &traderAcc{}
				accs[t.Owner] = acc
				order = append(order, t.Owner)
			}
			acc.volume += math.Abs(float64(t.ChangeAmount)) / scale
			acc.count++
			if t.BlockTime > acc.lastTx {
				acc.lastTx = t.BlockTime
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

	entries := make([]domain.TraderEntry, 0, len(order))
	for _, wallet := range order {
		acc := accs[wallet]
		value := acc.volume
		if q.ByCount {
			value = float64(acc.count)
		}
		entries = append(entries, domain.TraderEntry{
			Wallet: wallet,
			Volume: value,
			LastTx: acc.lastTx,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Volume > entries[j].Volume
	})

	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, stats, nil
}
