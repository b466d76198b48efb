package dto

// GetBarsParam selects a chart fetch from the market data provider.
type GetBarsParam struct {
	Symbol   string `json:"symbol"`
	Range    string `json:"range"`
	Interval string `json:"interval"`
}

// YahooChartResponse mirrors the Yahoo Finance v8 chart API payload.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ExchangeTimezone   string  `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// SyncResult reports one watchlist synchronization pass.
type SyncResult struct {
	SymbolsRequested int      `json:"symbols_requested"`
	SymbolsSynced    int      `json:"symbols_synced"`
	BarsUpserted     int      `json:"bars_upserted"`
	Failed           []string `json:"failed,omitempty"`
}
