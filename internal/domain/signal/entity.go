package signal

import (
	"time"

	"github.com/google/uuid"
)

// Type is the direction of a trading signal
type Type string

const (
	TypeBullish Type = "BULLISH"
	TypeBearish Type = "BEARISH"
)

// Sentiment is the coarse market read derived from the put-call ratio
type Sentiment string

const (
	SentimentBullish  Sentiment = "Bullish"
	SentimentBearish  Sentiment = "Bearish"
	SentimentSideways Sentiment = "Sideways"
)

// Strategy names for the independent signal rules
const (
	StrategyPCRSentiment     = "PCR Sentiment"
	StrategyMaxPainReversion = "Max Pain Reversion"
	StrategySmartMoneyFlow   = "Smart Money Flow"
	StrategyTrendAlignment   = "Trend Alignment"
)

// Signal is one fired rule for one symbol and cycle
type Signal struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Symbol      string    `json:"symbol" db:"symbol"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Type        Type      `json:"type" db:"type"`
	Strategy    string    `json:"strategy" db:"strategy"`
	Description string    `json:"description" db:"description"`
}

// ScoreCard is the composite confluence read for one symbol.
// Score ranges roughly -10..+10; Reasons carries the top two contributing
// drivers in flow, trend, PCR, max-pain priority order.
type ScoreCard struct {
	Symbol  string   `json:"symbol"`
	Score   float64  `json:"score"`
	Action  string   `json:"action"`
	Color   string   `json:"color"`
	Reasons []string `json:"reasons"`
	PCR     float64  `json:"pcr"`
	MaxPain int      `json:"max_pain"`
	Spot    float64  `json:"spot"`
}

// Analytics is the full derived state for one symbol and cycle.
// Recomputed every cycle; only Signals are persisted.
type Analytics struct {
	PCR       float64   `json:"pcr"`
	Sentiment Sentiment `json:"sentiment"`
	MaxPain   int       `json:"max_pain"`
	Signals   []Signal  `json:"signals"`
	Card      ScoreCard `json:"card"`
}
