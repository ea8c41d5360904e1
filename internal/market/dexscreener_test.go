package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const searchBody = `{"pairs":[
	{"chainId":"solana","pairAddress":"P1","baseToken":{"address":"BONKmint","symbol":"BONK"},"quoteToken":{"symbol":"SOL"},
	 "priceUsd":"0.00002","volume":{"h24":900000},"priceChange":{"h24":12},"marketCap":1500000000},
	{"chainId":"solana","pairAddress":"P2","baseToken":{"address":"WIFmint","symbol":"WIF"},"quoteToken":{"symbol":"USDC"},
	 "priceUsd":"2.1","volume":{"h24":2500000},"priceChange":{"h24":8},"fdv":2100000000},
	{"chainId":"solana","pairAddress":"P3","baseToken":{"address":"BONKmint","symbol":"BONK"},"quoteToken":{"symbol":"USDC"},
	 "priceUsd":"0.00002","volume":{"h24":100},"priceChange":{"h24":12}},
	{"chainId":"ethereum","pairAddress":"P4","baseToken":{"address":"PEPEmint","symbol":"PEPE"},"quoteToken":{"symbol":"WETH"},
	 "volume":{"h24":99999999}},
	{"chainId":"solana","pairAddress":"P5","baseToken":{"address":"So11111111111111111111111111111111111111112","symbol":"SOL"},"quoteToken":{"symbol":"USDC"},
	 "volume":{"h24":99999999}}
]}`

func TestSnapshotRanksAndFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/dex/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(searchBody))
	}))
	defer server.Close()

	src := NewDexScreenerSource(zerolog.Nop(), server.URL, []string{"bonk", "wif"}, 5,
		"So11111111111111111111111111111111111111112")
	src.client = server.Client()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src.now = func() time.Time { return fixed }

	snap := src.Snapshot(context.Background())
	if len(snap.Trending) != 2 {
		t.Fatalf("expected 2 trending assets, got %+v", snap.Trending)
	}
	if snap.Trending[0].Symbol != "WIF" || snap.Trending[1].Symbol != "BONK" {
		t.Fatalf("expected volume ordering WIF, BONK; got %+v", snap.Trending)
	}
	if snap.Trending[0].MarketCap != 2100000000 {
		t.Fatalf("expected fdv fallback for market cap, got %.0f", snap.Trending[0].MarketCap)
	}
	if snap.Sentiment != Bullish {
		t.Fatalf("expected bullish sentiment, got %s", snap.Sentiment)
	}
	if snap.TotalMarketCap != 3600000000 {
		t.Fatalf("unexpected total market cap %.0f", snap.TotalMarketCap)
	}
	if !snap.TakenAt.Equal(fixed) {
		t.Fatalf("unexpected snapshot time %s", snap.TakenAt)
	}
}

func TestSnapshotUnreachableIsEmptyNeutral(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	snap := NewDexScreenerSource(zerolog.Nop(), server.URL, []string{"bonk"}, 0).Snapshot(context.Background())
	if snap.Trending == nil || len(snap.Trending) != 0 {
		t.Fatalf("expected empty trending set, got %#v", snap.Trending)
	}
	if snap.Sentiment != Neutral {
		t.Fatalf("expected neutral sentiment, got %s", snap.Sentiment)
	}
}

func TestNewSnapshotSentimentAndFind(t *testing.T) {
	snap := NewSnapshot([]TrendingAsset{
		{Symbol: "JUP", Change24h: -9},
		{Symbol: "PYTH", Change24h: -4},
	}, time.Now())
	if snap.Sentiment != Bearish {
		t.Fatalf("expected bearish, got %s", snap.Sentiment)
	}
	asset, ok := snap.Find("jup")
	if !ok || asset.Symbol != "JUP" {
		t.Fatalf("expected case-insensitive find, got %+v %v", asset, ok)
	}
	if _, ok := snap.Find("BONK"); ok {
		t.Fatalf("unexpected match for absent symbol")
	}
}
