package market

// Quote is one index spot quote as delivered by the quote provider
type Quote struct {
	LastPrice     float64 `json:"last_price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}
