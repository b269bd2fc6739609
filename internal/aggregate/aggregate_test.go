package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/tokenlens/internal/core/domain"
)

type fakeHolderSource struct {
	pages []domain.HolderPage
	calls int
	errAt int // 1-based call index that fails, 0 = never
}

func (f *fakeHolderSource) TokenHolders(
	_ context.Context,
	_ string,
	_, _ int,
) (domain.HolderPage, error) {
	f.calls++
	if f.errAt > 0 && f.calls == f.errAt {
		return domain.HolderPage{}, errors.New("upstream down")
	}
	if f.calls > len(f.pages) {
		return domain.HolderPage{}, nil
	}
	return f.pages[f.calls-1], nil
}

type fakeTransferSource struct {
	pages []domain.TransferPage
	calls int
	errAt int
}

func (f *fakeTransferSource) TokenTransfers(
	_ context.Context,
	_ string,
	_, _ int,
) (domain.TransferPage, error) {
	f.calls++
	if f.errAt > 0 && f.calls == f.errAt {
		return domain.TransferPage{}, errors.New("upstream down")
	}
	if f.calls > len(f.pages) {
		return domain.TransferPage{}, nil
	}
	return f.pages[f.calls-1], nil
}

func TestHolders_FilterAndLimit(t *testing.T) {
	src := &fakeHolderSource{pages: []domain.HolderPage{
		{Holders: []domain.TokenHolder{
			{Owner: "A", UIAmount: 50},
			{Owner: "B", UIAmount: 5},
		}},
	}}

	out, stats, err := Holders(context.Background(), src, HoldersQuery{
		Token:     "mint",
		Limit:     10,
		MinAmount: 10,
		PageSize:  50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 holder, got %d", len(out))
	}
	if out[0].Wallet != "A" || out[0].Amount != 50 {
		t.Errorf("expected {A 50}, got %+v", out[0])
	}
	if stats.Records != 2 {
		t.Errorf("expected 2 records scanned, got %d", stats.Records)
	}
}

func TestHolders_StopsAtLimitMidPage(t *testing.T) {
	src := &fakeHolderSource{pages: []domain.HolderPage{
		{Holders: []domain.TokenHolder{
			{Owner: "A", UIAmount: 100},
			{Owner: "B", UIAmount: 90},
			{Owner: "C", UIAmount: 80},
		}, Total: 200},
		{Holders: []domain.TokenHolder{
			{Owner: "D", UIAmount: 70},
		}, Total: 200},
	}}

	out, _, err := Holders(context.Background(), src, HoldersQuery{
		Token:    "mint",
		Limit:    2,
		PageSize: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected 2 holders, got %d", len(out))
	}
	if out[0].Wallet != "A" || out[1].Wallet != "B" {
		t.Errorf("expected upstream order A,B, got %+v", out)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 page fetch after hitting limit, got %d", src.calls)
	}
}

func TestHolders_NonPositiveLimit(t *testing.T) {
	src := &fakeHolderSource{pages: []domain.HolderPage{
		{Holders: []domain.TokenHolder{{Owner: "A", UIAmount: 50}}},
	}}

	for _, limit := range []int{0, -1} {
		out, stats, err := Holders(context.Background(), src, HoldersQuery{
			Token:    "mint",
			Limit:    limit,
			PageSize: 50,
		})
		if err != nil {
			t.Fatalf("limit %d: unexpected error: %v", limit, err)
		}
		if len(out) != 0 {
			t.Errorf("limit %d: expected empty result, got %+v", limit, out)
		}
		if stats.Pages != 0 {
			t.Errorf("limit %d: expected no page fetches, got %d", limit, stats.Pages)
		}
	}
	if src.calls != 0 {
		t.Errorf("expected no upstream calls, got %d", src.calls)
	}
}

func TestHolders_EmptyFirstPage(t *testing.T) {
	src := &fakeHolderSource{}

	out, stats, err := Holders(context.Background(), src, HoldersQuery{
		Token:    "mint",
		Limit:    10,
		PageSize: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty result, got %+v", out)
	}
	if stats.Pages != 1 {
		t.Errorf("expected exactly 1 page fetch, got %d", stats.Pages)
	}
}

func TestHolders_UpstreamErrorDiscardsPartial(t *testing.T) {
	src := &fakeHolderSource{
		pages: []domain.HolderPage{
			{Holders: []domain.TokenHolder{{Owner: "A", UIAmount: 50}}, Total: 100},
		},
		errAt: 2,
	}

	out, _, err := Holders(context.Background(), src, HoldersQuery{
		Token:    "mint",
		Limit:    10,
		PageSize: 1,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != nil {
		t.Errorf("expected no partial result, got %+v", out)
	}
}

func TestTraders_VolumeAndLastTx(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "A", ChangeAmount: 2000000000, BlockTime: 100},
			{Owner: "A", ChangeAmount: 1000000000, BlockTime: 200},
		}},
	}}

	out, _, err := Traders(context.Background(), src, TradersQuery{
		Token:    "mint",
		Limit:    10,
		Decimals: 9,
		PageSize: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 trader, got %d", len(out))
	}
	if out[0].Wallet != "A" || out[0].Volume != 3 || out[0].LastTx != 200 {
		t.Errorf("expected {A 3 200}, got %+v", out[0])
	}
}

func TestTraders_AbsoluteAmounts(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "A", ChangeAmount: -5000000000, BlockTime: 100},
			{Owner: "A", ChangeAmount: 1000000000, BlockTime: 90},
		}},
	}}

	out, _, err := Traders(context.Background(), src, TradersQuery{
		Token:    "mint",
		Limit:    10,
		Decimals: 9,
		PageSize: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0].Volume != 6 {
		t.Errorf("expected outflows counted by absolute value, volume 6, got %v", out[0].Volume)
	}
	if out[0].LastTx != 100 {
		t.Errorf("expected lastTx 100, got %d", out[0].LastTx)
	}
}

func TestTraders_SortTruncateAndTies(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "low", ChangeAmount: 1000000000, BlockTime: 10},
			{Owner: "tieA", ChangeAmount: 5000000000, BlockTime: 20},
			{Owner: "tieB", ChangeAmount: 5000000000, BlockTime: 30},
			{Owner: "high", ChangeAmount: 9000000000, BlockTime: 40},
		}},
	}}

	out, _, err := Traders(context.Background(), src, TradersQuery{
		Token:    "mint",
		Limit:    3,
		Decimals: 9,
		PageSize: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("expected 3 traders, got %d", len(out))
	}
	if out[0].Wallet != "high" {
		t.Errorf("expected high first, got %s", out[0].Wallet)
	}
	// Equal volumes keep first-observed order
	if out[1].Wallet != "tieA" || out[2].Wallet != "tieB" {
		t.Errorf("expected stable tie order tieA,tieB, got %s,%s", out[1].Wallet, out[2].Wallet)
	}
}

func TestTraders_ByCount(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "A", ChangeAmount: 1, BlockTime: 10},
			{Owner: "B", ChangeAmount: 1000000000000, BlockTime: 20},
			{Owner: "A", ChangeAmount: 1, BlockTime: 30},
		}},
	}}

	out, _, err := Traders(context.Background(), src, TradersQuery{
		Token:    "mint",
		Limit:    10,
		Decimals: 9,
		ByCount:  true,
		PageSize: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out[0].Wallet != "A" || out[0].Volume != 2 {
		t.Errorf("expected A ranked first with count 2, got %+v", out[0])
	}
}

func TestTraders_RecordCap(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "A", ChangeAmount: 1, BlockTime: 10},
			{Owner: "B", ChangeAmount: 1, BlockTime: 20},
		}, Total: 1000},
		{Transfers: []domain.RawTransfer{
			{Owner: "C", ChangeAmount: 1, BlockTime: 30},
		}, Total: 1000},
	}}

	out, stats, err := Traders(context.Background(), src, TradersQuery{
		Token:      "mint",
		Limit:      10,
		Decimals:   9,
		PageSize:   2,
		MaxRecords: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Records != 2 {
		t.Errorf("expected scan capped at 2 records, got %d", stats.Records)
	}
	if src.calls != 1 {
		t.Errorf("expected no fetch past the cap, got %d calls", src.calls)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 traders, got %d", len(out))
	}
}

func TestInterval_Window(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "B", BlockTime: 120},
			{Owner: "B", BlockTime: 90},
		}},
	}}

	out, _, err := Interval(context.Background(), src, IntervalQuery{
		Token:          "mint",
		From:           100,
		To:             150,
		PageSize:       50,
		DescendingTime: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(out))
	}
	if out[0].Wallet != "B" || out[0].LastTx != 120 {
		t.Errorf("expected {B 120}, got %+v", out[0])
	}
}

func TestInterval_ShortCircuitStopsFetching(t *testing.T) {
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "A", BlockTime: 140},
			{Owner: "B", BlockTime: 120},
			{Owner: "C", BlockTime: 50}, // below from, stream is descending
		}, Total: 5000},
		{Transfers: []domain.RawTransfer{
			{Owner: "D", BlockTime: 40},
		}, Total: 5000},
	}}

	out, _, err := Interval(context.Background(), src, IntervalQuery{
		Token:          "mint",
		From:           100,
		To:             150,
		PageSize:       3,
		DescendingTime: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.calls != 1 {
		t.Errorf("expected short-circuit after page 1, got %d calls", src.calls)
	}
	if len(out) != 2 {
		t.Errorf("expected wallets A,B, got %+v", out)
	}
}

func TestInterval_UnorderedStreamScansFully(t *testing.T) {
	// An out-of-order old record must not hide later in-window activity
	// when the descending-time assumption is switched off.
	src := &fakeTransferSource{pages: []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "A", BlockTime: 50}, // out-of-order early page
			{Owner: "B", BlockTime: 120},
		}, Total: 3},
		{Transfers: []domain.RawTransfer{
			{Owner: "C", BlockTime: 130},
		}, Total: 3},
	}}

	out, _, err := Interval(context.Background(), src, IntervalQuery{
		Token:    "mint",
		From:     100,
		To:       150,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected wallets B,C, got %+v", out)
	}
	if out[0].Wallet != "B" || out[1].Wallet != "C" {
		t.Errorf("expected sorted wallets B,C, got %+v", out)
	}
}

func TestInterval_DeterministicOutput(t *testing.T) {
	pages := []domain.TransferPage{
		{Transfers: []domain.RawTransfer{
			{Owner: "z", BlockTime: 140},
			{Owner: "a", BlockTime: 130},
			{Owner: "m", BlockTime: 120},
			{Owner: "a", BlockTime: 110},
		}},
	}
	q := IntervalQuery{Token: "mint", From: 100, To: 150, PageSize: 50, DescendingTime: true}

	first, _, err := Interval(context.Background(), &fakeTransferSource{pages: pages}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := Interval(context.Background(), &fakeTransferSource{pages: pages}, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 wallets, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].Wallet != "a" || first[0].LastTx != 130 {
		t.Errorf("expected {a 130} first, got %+v", first[0])
	}
}

func TestInterval_UpstreamErrorDiscardsPartial(t *testing.T) {
	src := &fakeTransferSource{
		pages: []domain.TransferPage{
			{Transfers: []domain.RawTransfer{{Owner: "A", BlockTime: 120}}, Total: 100},
		},
		errAt: 2,
	}

	out, _, err := Interval(context.Background(), src, IntervalQuery{
		Token:          "mint",
		From:           100,
		To:             150,
		PageSize:       1,
		DescendingTime: true,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != nil {
		t.Errorf("expected no partial result, got %+v", out)
	}
}
