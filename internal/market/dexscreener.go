package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultDexScreenerBaseURL = "https://api.dexscreener.com"
	defaultMaxAssets          = 10
	solanaChain               = "solana"
)

// quote tokens a trending pair may be priced against.
var quoteSymbols = map[string]struct{}{"SOL": {}, "WSOL": {}, "USDC": {}, "USDT": {}}

type dexscreenerPairsResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
}

type dexscreenerPair struct {
	ChainID     string                 `json:"chainId"`
	PairAddress string                 `json:"pairAddress"`
	BaseToken   dexscreenerToken       `json:"baseToken"`
	QuoteToken  dexscreenerToken       `json:"quoteToken"`
	PriceUsd    string                 `json:"priceUsd"`
	Volume      dexscreenerVolumes     `json:"volume"`
	Liquidity   dexscreenerLiquidity   `json:"liquidity"`
	PriceChange dexscreenerPriceChange `json:"priceChange"`
	MarketCap   float64                `json:"marketCap"`
	FDV         float64                `json:"fdv"`
}

type dexscreenerToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexscreenerVolumes struct {
	H24 float64 `json:"h24"`
}

type dexscreenerLiquidity struct {
	USD float64 `json:"usd"`
}

type dexscreenerPriceChange struct {
	H24 float64 `json:"h24"`
}

// DexScreenerSource searches Dexscreener for Solana pairs and ranks them by 24h volume.
type DexScreenerSource struct {
	log       zerolog.Logger
	client    *http.Client
	baseURL   string
	keywords  []string
	maxAssets int
	exclude   map[string]struct{}
	now       func() time.Time
}

// NewDexScreenerSource constructs a snapshot source. Mints in exclude (e.g. the base
// asset) never appear in the trending set.
func NewDexScreenerSource(log zerolog.Logger, baseURL string, keywords []string, maxAssets int, exclude ...string) *DexScreenerSource {
	if baseURL == "" {
		baseURL = defaultDexScreenerBaseURL
	}
	if maxAssets <= 0 {
		maxAssets = defaultMaxAssets
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, m := range exclude {
		ex[m] = struct{}{}
	}
	return &DexScreenerSource{
		log:       log.With().Str("component", "market").Logger(),
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		keywords:  append([]string(nil), keywords...),
		maxAssets: maxAssets,
		exclude:   ex,
		now:       time.Now,
	}
}

// Snapshot never fails: keyword searches that error are skipped, and a fully
// unreachable source yields an empty neutral snapshot.
func (d *DexScreenerSource) Snapshot(ctx context.Context) Snapshot {
	seen := make(map[string]struct{})
	var assets []TrendingAsset
	for _, keyword := range d.keywords {
		pairs, err := d.search(ctx, keyword)
		if err != nil {
			d.log.Debug().Err(err).Str("keyword", keyword).Msg("dexscreener search failed")
			continue
		}
		for _, pair := range pairs {
			asset, ok := d.toAsset(pair)
			if !ok {
				continue
			}
			if _, dup := seen[asset.Mint]; dup {
				continue
			}
			seen[asset.Mint] = struct{}{}
			assets = append(assets, asset)
		}
	}
	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].Volume24h > assets[j].Volume24h
	})
	if len(assets) > d.maxAssets {
		assets = assets[:d.maxAssets]
	}
	snap := NewSnapshot(assets, d.now().UTC())
	d.log.Info().
		Int("assets", len(snap.Trending)).
		Str("sentiment", string(snap.Sentiment)).
		Float64("total_market_cap", snap.TotalMarketCap).
		Msg("market snapshot")
	return snap
}

func (d *DexScreenerSource) toAsset(pair dexscreenerPair) (TrendingAsset, bool) {
	if !strings.EqualFold(pair.ChainID, solanaChain) {
		return TrendingAsset{}, false
	}
	if _, ok := quoteSymbols[strings.ToUpper(pair.QuoteToken.Symbol)]; !ok {
		return TrendingAsset{}, false
	}
	mint := strings.TrimSpace(pair.BaseToken.Address)
	symbol := strings.TrimSpace(pair.BaseToken.Symbol)
	if mint == "" || symbol == "" {
		return TrendingAsset{}, false
	}
	if _, ok := d.exclude[mint]; ok {
		return TrendingAsset{}, false
	}
	price, _ := strconv.ParseFloat(pair.PriceUsd, 64)
	mcap := pair.MarketCap
	if mcap <= 0 {
		mcap = pair.FDV
	}
	return TrendingAsset{
		Symbol:    symbol,
		Mint:      mint,
		PriceUSD:  price,
		Change24h: pair.PriceChange.H24,
		Volume24h: pair.Volume.H24,
		MarketCap: mcap,
	}, true
}

func (d *DexScreenerSource) search(ctx context.Context, keyword string) ([]dexscreenerPair, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", d.baseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "degenagent-go/1.0 (market)")
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var payload dexscreenerPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Pairs, nil
}
