// Package config exposes strongly typed application configuration loaded from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	TradeLog    string `yaml:"trade_log"` // optional JSONL journal of trade outcomes
}

// Schedule controls how often execution cycles fire.
type Schedule struct {
	IntervalMinutes int    `yaml:"interval_minutes"`
	Cron            string `yaml:"cron"` // optional; replaces the interval when set
}

// Directory points at the external agent registry.
type Directory struct {
	BaseURL string `yaml:"base_url"`
}

// Decision configures the language-model backend.
type Decision struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Market configures the trending-asset snapshot source.
type Market struct {
	DexScreenerBaseURL string   `yaml:"dexscreener_base_url"`
	Keywords           []string `yaml:"keywords"`
	MaxAssets          int      `yaml:"max_assets"`
}

// Risk encodes guard-rails on when and how much an agent may trade.
type Risk struct {
	MinVaultBalanceSOL string `yaml:"min_vault_balance_sol"`
	MaxTradeSOL        string `yaml:"max_trade_sol"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Schedule  Schedule  `yaml:"schedule"`
	Directory Directory `yaml:"directory"`
	Decision  Decision  `yaml:"decision"`
	Market    Market    `yaml:"market"`
	Risk      Risk      `yaml:"risk"`
	Dex       Dex       `yaml:"dex"`
	Keys      Keys      `yaml:"keys"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() *Config {
	return &Config{
		App:       App{Name: "degenagent-engine", MetricsAddr: ":9100", LogLevel: "info"},
		Schedule:  Schedule{IntervalMinutes: 5},
		Directory: Directory{BaseURL: "http://localhost:3001"},
		Decision:  Decision{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
		Market: Market{
			DexScreenerBaseURL: "https://api.dexscreener.com",
			Keywords:           []string{"solana", "bonk", "wif", "jup", "pyth"},
			MaxAssets:          10,
		},
		Risk: Risk{MinVaultBalanceSOL: "0.01", MaxTradeSOL: "0"},
		Dex: Dex{
			RpcURL:      "https://api.mainnet-beta.solana.com",
			Commitment:  "confirmed",
			JupiterBase: "https://quote-api.jup.ag",
			SlippageBps: 50,
		},
		Keys: Keys{Backend: KeyBackendLocal, Store: KeyStoreFile, StorePath: "./keys", RedisKey: "keyvault:records"},
	}
}

// Load reads an optional YAML file, then applies .env and environment overrides.
// An empty path skips the file and starts from defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	_ = godotenv.Load() // best-effort
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.App.MetricsAddr = getEnv("METRICS_ADDR", cfg.App.MetricsAddr)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.TradeLog = getEnv("TRADE_LOG_PATH", cfg.App.TradeLog)

	cfg.Schedule.IntervalMinutes = getEnvInt("EXECUTION_INTERVAL_MINUTES", cfg.Schedule.IntervalMinutes)
	cfg.Schedule.Cron = getEnv("EXECUTION_CRON", cfg.Schedule.Cron)

	cfg.Directory.BaseURL = getEnv("BACKEND_URL", cfg.Directory.BaseURL)

	cfg.Decision.APIKey = getEnv("OPENAI_API_KEY", cfg.Decision.APIKey)
	cfg.Decision.BaseURL = getEnv("OPENAI_BASE_URL", cfg.Decision.BaseURL)
	cfg.Decision.Model = getEnv("OPENAI_MODEL", cfg.Decision.Model)

	cfg.Market.DexScreenerBaseURL = getEnv("DEXSCREENER_BASE_URL", cfg.Market.DexScreenerBaseURL)
	if raw := os.Getenv("MARKET_KEYWORDS"); raw != "" {
		cfg.Market.Keywords = splitList(raw)
	}

	cfg.Risk.MinVaultBalanceSOL = getEnv("MIN_VAULT_BALANCE_SOL", cfg.Risk.MinVaultBalanceSOL)
	cfg.Risk.MaxTradeSOL = getEnv("MAX_TRADE_SOL", cfg.Risk.MaxTradeSOL)

	cfg.Dex.RpcURL = getEnv("SOLANA_RPC_URL", cfg.Dex.RpcURL)
	cfg.Dex.WsURL = getEnv("SOLANA_WS_URL", cfg.Dex.WsURL)
	cfg.Dex.Commitment = getEnv("SOLANA_COMMITMENT", cfg.Dex.Commitment)
	cfg.Dex.JupiterBase = getEnv("JUPITER_BASE_URL", cfg.Dex.JupiterBase)

	cfg.Keys.Backend = getEnv("KEY_BACKEND", cfg.Keys.Backend)
	cfg.Keys.MasterSecret = getEnv("WALLET_ENCRYPTION_KEY", cfg.Keys.MasterSecret)
	cfg.Keys.Store = getEnv("KEY_STORE", cfg.Keys.Store)
	cfg.Keys.StorePath = getEnv("KEY_STORE_PATH", cfg.Keys.StorePath)
	cfg.Keys.RedisAddr = getEnv("REDIS_ADDR", cfg.Keys.RedisAddr)
	cfg.Keys.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Keys.RedisPassword)
	cfg.Keys.RedisDB = getEnvInt("REDIS_DB", cfg.Keys.RedisDB)
	cfg.Keys.RedisKey = getEnv("REDIS_KEY", cfg.Keys.RedisKey)
	cfg.Keys.RemoteURL = getEnv("REMOTE_SIGNER_URL", cfg.Keys.RemoteURL)
	cfg.Keys.RemoteToken = getEnv("REMOTE_SIGNER_TOKEN", cfg.Keys.RemoteToken)
}

// Validate reports configuration that would prevent the engine from running.
// Master-secret strength is enforced by the key vault itself.
func (c *Config) Validate() error {
	var errs []error
	if c.Schedule.Cron != "" {
		if !gronx.New().IsValid(c.Schedule.Cron) {
			errs = append(errs, fmt.Errorf("invalid cron expression %q", c.Schedule.Cron))
		}
	} else if c.Schedule.IntervalMinutes <= 0 {
		errs = append(errs, errors.New("execution interval must be positive"))
	}
	if strings.TrimSpace(c.Directory.BaseURL) == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if strings.TrimSpace(c.Dex.RpcURL) == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	if strings.TrimSpace(c.Decision.APIKey) == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if err := c.Keys.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
