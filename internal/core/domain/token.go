package domain

// TokenHolder is one holder row as reported by the upstream API.
type TokenHolder struct {
	Owner    string  `json:"owner"`
	UIAmount float64 `json:"uiAmount"`
	Decimals int     `json:"decimals"`
	Rank     int     `json:"rank"`
}

// HolderPage is one page of token holders.
type HolderPage struct {
	Holders []TokenHolder
	Total   int
}

// RawTransfer is one transfer record as reported by the upstream API.
// ChangeAmount is in raw token units and signed (negative = outflow).
type RawTransfer struct {
	Owner        string `json:"owner"`
	BlockTime    int64  `json:"blockTime"`
	ChangeAmount int64  `json:"changeAmount"`
	Decimals     int    `json:"decimals"`
}

// TransferPage is one page of transfer records, in upstream order.
type TransferPage struct {
	Transfers []RawTransfer
	Total     int
}

// HolderEntry is one row of the holders aggregation result.
type HolderEntry struct {
	Wallet string  `json:"wallet"`
	Amount float64 `json:"amount"`
}

// TraderEntry is one row of the traders aggregation result.
// Volume is in UI units when aggregating by volume, or a transfer
// count when aggregating by count.
type TraderEntry struct {
	Wallet string  `json:"wallet"`
	Volume float64 `json:"volume"`
	LastTx int64   `json:"lastTx"`
}

// ActivityEntry is one row of the interval aggregation result.
type ActivityEntry struct {
	Wallet string `json:"wallet"`
	LastTx int64  `json:"lastTx"`
}
