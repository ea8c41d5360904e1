// Package market builds the per-cycle view of trending assets handed to the decision engine.
package market

import (
	"strings"
	"time"
)

// Sentiment labels the aggregate direction of the trending set.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// sentimentBand is the mean 24h change (percent) beyond which the market is no longer neutral.
const sentimentBand = 5.0

// TrendingAsset is one token the decision engine may rotate into.
type TrendingAsset struct {
	Symbol    string  `json:"symbol"`
	Mint      string  `json:"mint"`
	PriceUSD  float64 `json:"priceUsd"`
	Change24h float64 `json:"change24h"` // percent
	Volume24h float64 `json:"volume24h"` // USD
	MarketCap float64 `json:"marketCap"` // USD
}

// Snapshot is built fresh every cycle and never persisted.
type Snapshot struct {
	Trending       []TrendingAsset `json:"trending"`
	Sentiment      Sentiment       `json:"sentiment"`
	TotalMarketCap float64         `json:"totalMarketCap"`
	TotalVolume24h float64         `json:"totalVolume24h"`
	TakenAt        time.Time       `json:"takenAt"`
}

// NewSnapshot derives the aggregate figures from a trending set.
func NewSnapshot(assets []TrendingAsset, at time.Time) Snapshot {
	snap := Snapshot{Trending: assets, Sentiment: Neutral, TakenAt: at}
	if len(assets) == 0 {
		snap.Trending = []TrendingAsset{}
		return snap
	}
	var change float64
	for _, a := range assets {
		change += a.Change24h
		snap.TotalMarketCap += a.MarketCap
		snap.TotalVolume24h += a.Volume24h
	}
	mean := change / float64(len(assets))
	switch {
	case mean > sentimentBand:
		snap.Sentiment = Bullish
	case mean < -sentimentBand:
		snap.Sentiment = Bearish
	}
	return snap
}

// Find looks up a trending asset by symbol, ignoring case.
func (s Snapshot) Find(symbol string) (TrendingAsset, bool) {
	symbol = strings.TrimSpace(symbol)
	for _, a := range s.Trending {
		if strings.EqualFold(a.Symbol, symbol) {
			return a, true
		}
	}
	return TrendingAsset{}, false
}
