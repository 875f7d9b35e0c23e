package fyers

// quotesResponse mirrors the broker's /quotes payload
type quotesResponse struct {
	S string      `json:"s"`
	D []quoteItem `json:"d"`
}

type quoteItem struct {
	N string      `json:"n"`
	V quoteValues `json:"v"`
}

type quoteValues struct {
	LP  float64 `json:"lp"`
	Ch  float64 `json:"ch"`
	Chp float64 `json:"chp"`
}

// chainResponse mirrors the broker's /options-chain-v3 payload. A missing
// or empty optionsChain field is a soft failure, not an error.
type chainResponse struct {
	S    string    `json:"s"`
	Data chainData `json:"data"`
}

type chainData struct {
	OptionsChain []chainLeg `json:"optionsChain"`
}

type chainLeg struct {
	StrikePrice float64 `json:"strike_price"`
	OptionType  string  `json:"option_type"`
	LTP         float64 `json:"ltp"`
	LTPChange   float64 `json:"ltpch"`
	OI          int64   `json:"oi"`
	OIChange    int64   `json:"oich"`
	Volume      int64   `json:"volume"`
	IV          float64 `json:"iv"`
	Delta       float64 `json:"delta"`
	Theta       float64 `json:"theta"`
}
