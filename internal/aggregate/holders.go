package aggregate

import (
	"context"

	"github.com/vietddude/tokenlens/internal/core/domain"
)

// HoldersQuery parameterizes a holders aggregation.
type HoldersQuery struct {
	Token     string
	Limit     int
	MinAmount float64
	PageSize  int
}

// Holders collects up to Limit holders whose balance is at least
// MinAmount, in upstream rank order. The scan stops as soon as Limit
// qualifying rows are seen or upstream pages run out.
func Holders(
	ctx context.Context,
	src HolderSource,
	q HoldersQuery,
) ([]domain.HolderEntry, Stats, error) {
	if q.Limit <= 0 {
		return []domain.HolderEntry{}, Stats{}, nil
	}

	out := make([]domain.HolderEntry, 0, q.Limit)
	var stats Stats

	pages, err := scanPages(ctx, func(ctx context.Context, offset int) (pageResult, error) {
		page, err := src.TokenHolders(ctx, q.Token, offset, q.PageSize)
		if err != nil {
			return pageResult{}, err
		}

		res := pageResult{count: len(page.Holders), total: page.Total}
		for _, h := range page.Holders {
			stats.Records++
			if h.UIAmount < q.MinAmount {
				continue
			}
			out = append(out, domain.HolderEntry{Wallet: h.Owner, Amount: h.UIAmount})
			if len(out) >= q.Limit {
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
	return out, stats, nil
}
