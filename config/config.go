package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration. Secrets come from the
// environment only, never from the yaml file.
type Config struct {
	Port                 int
	LedgerPath           string
	DecisionWALDir       string
	PollInterval         time.Duration
	Accounts             []string
	RPCURL               string
	SendEnabled          bool
	AutoSwitch           bool
	HypeThreshold        float64
	PaperToLiveWinrate   float64
	PaperToLiveMinTrades int
	TradeUSD             decimal.Decimal
	MinLiquidityUSD      decimal.Decimal
	WindowDuration       time.Duration
	ThresholdVolume      decimal.Decimal
	ThresholdBuyers      int
	UseDexScreener       bool
	UseOnChain           bool
	DexScreenerPoll      time.Duration
	OnChainPoll          time.Duration
	JupiterAPIURL        string

	HypeAPIURL string
	HypeAPIKey string
	LLMAPIURL  string
	LLMAPIKey  string
	LLMModel   string
	PayerKey   string
	BinanceKey string
	BinanceSec string
}

type configTmp struct {
	Port                    int           `yaml:"port,omitempty"`
	LedgerPath              string        `yaml:"ledger_path,omitempty"`
	DecisionWALDir          string        `yaml:"decision_wal_dir,omitempty"`
	PollInterval            time.Duration `yaml:"poll_interval,omitempty"`
	Accounts                string        `yaml:"accounts,omitempty"`
	RPCURL                  string        `yaml:"rpc_url,omitempty"`
	SendEnabled             bool          `yaml:"send_enabled,omitempty"`
	AutoSwitch              bool          `yaml:"auto_switch,omitempty"`
	HypeThresholdStr        string        `yaml:"hype_threshold,omitempty"`
	PaperToLiveWinrateStr   string        `yaml:"paper_to_live_winrate,omitempty"`
	PaperToLiveMinTradesStr string        `yaml:"paper_to_live_min_trades,omitempty"`
	TradeUSDStr             string        `yaml:"trade_usd,omitempty"`
	MinLiquidityUSDStr      string        `yaml:"min_liquidity_usd,omitempty"`
	WindowDuration          time.Duration `yaml:"vvm_window,omitempty"`
	ThresholdVolumeStr      string        `yaml:"vvm_threshold_volume,omitempty"`
	ThresholdBuyersStr      string        `yaml:"vvm_threshold_buyers,omitempty"`
	UseDexScreener          bool          `yaml:"use_dexscreener,omitempty"`
	UseOnChain              bool          `yaml:"use_onchain,omitempty"`
	DexScreenerPoll         time.Duration `yaml:"dexscreener_poll,omitempty"`
	OnChainPoll             time.Duration `yaml:"onchain_poll,omitempty"`
	JupiterAPIURL           string        `yaml:"jupiter_api_url,omitempty"`
}

// Get resolves configuration from the optional yaml file named by -config,
// falling back to defaults, with secrets layered in from the environment.
func Get() (Config, error) {
	path := flag.String("config", "", "path to yaml config")
	flag.Parse()

	cfg := defaults()
	if *path != "" {
		if err := applyYaml(&cfg, *path); err != nil {
			return Config{}, err
		}
	}
	applyEnvSecrets(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Port:                 8080,
		LedgerPath:           "./data/paper-trades.jsonl",
		DecisionWALDir:       "./wal/decisions",
		PollInterval:         500 * time.Millisecond,
		Accounts:             []string{"A", "B", "C"},
		RPCURL:               "https://api.devnet.solana.com",
		HypeThreshold:        0.8,
		PaperToLiveWinrate:   0.8,
		PaperToLiveMinTrades: 50,
		TradeUSD:             decimal.NewFromInt(10),
		MinLiquidityUSD:      decimal.NewFromInt(100),
		WindowDuration:       5 * time.Minute,
		ThresholdVolume:      decimal.NewFromInt(5000),
		ThresholdBuyers:      20,
		DexScreenerPoll:      2 * time.Second,
		OnChainPoll:          2 * time.Second,
		JupiterAPIURL:        "https://quote-api.jup.ag",
		HypeAPIURL:           "https://api.groq.com/openai/v1/chat/completions",
		LLMAPIURL:            "https://api.openai.com/v1/chat/completions",
		LLMModel:             "gpt-4o-mini",
	}
}

func applyYaml(cfg *Config, path string) error {
	f, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return err
	}

	if tmp.Port != 0 {
		cfg.Port = tmp.Port
	}
	if tmp.LedgerPath != "" {
		cfg.LedgerPath = tmp.LedgerPath
	}
	if tmp.DecisionWALDir != "" {
		cfg.DecisionWALDir = tmp.DecisionWALDir
	}
	if tmp.PollInterval != 0 {
		cfg.PollInterval = tmp.PollInterval
	}
	if tmp.Accounts != "" {
		cfg.Accounts = strings.Split(tmp.Accounts, ",")
	}
	if tmp.RPCURL != "" {
		cfg.RPCURL = tmp.RPCURL
	}
	cfg.SendEnabled = tmp.SendEnabled
	cfg.AutoSwitch = tmp.AutoSwitch
	if tmp.WindowDuration != 0 {
		cfg.WindowDuration = tmp.WindowDuration
	}
	cfg.UseDexScreener = tmp.UseDexScreener
	cfg.UseOnChain = tmp.UseOnChain
	if tmp.DexScreenerPoll != 0 {
		cfg.DexScreenerPoll = tmp.DexScreenerPoll
	}
	if tmp.OnChainPoll != 0 {
		cfg.OnChainPoll = tmp.OnChainPoll
	}
	if tmp.JupiterAPIURL != "" {
		cfg.JupiterAPIURL = tmp.JupiterAPIURL
	}

	if tmp.HypeThresholdStr != "" {
		v, err := strconv.ParseFloat(tmp.HypeThresholdStr, 64)
		if err != nil {
			return fmt.Errorf("incorrect 'hype_threshold' param in yaml config (must be a number), error: %w", err)
		}
		cfg.HypeThreshold = v
	}
	if tmp.PaperToLiveWinrateStr != "" {
		v, err := strconv.ParseFloat(tmp.PaperToLiveWinrateStr, 64)
		if err != nil {
			return fmt.Errorf("incorrect 'paper_to_live_winrate' param in yaml config (must be a number), error: %w", err)
		}
		cfg.PaperToLiveWinrate = v
	}
	if tmp.PaperToLiveMinTradesStr != "" {
		v, err := strconv.Atoi(tmp.PaperToLiveMinTradesStr)
		if err != nil {
			return fmt.Errorf("incorrect 'paper_to_live_min_trades' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.PaperToLiveMinTrades = v
	}
	if tmp.TradeUSDStr != "" {
		v, err := decimal.NewFromString(tmp.TradeUSDStr)
		if err != nil {
			return fmt.Errorf("incorrect 'trade_usd' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.TradeUSD = v
	}
	if tmp.MinLiquidityUSDStr != "" {
		v, err := decimal.NewFromString(tmp.MinLiquidityUSDStr)
		if err != nil {
			return fmt.Errorf("incorrect 'min_liquidity_usd' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.MinLiquidityUSD = v
	}
	if tmp.ThresholdVolumeStr != "" {
		v, err := decimal.NewFromString(tmp.ThresholdVolumeStr)
		if err != nil {
			return fmt.Errorf("incorrect 'vvm_threshold_volume' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.ThresholdVolume = v
	}
	if tmp.ThresholdBuyersStr != "" {
		v, err := strconv.Atoi(tmp.ThresholdBuyersStr)
		if err != nil {
			return fmt.Errorf("incorrect 'vvm_threshold_buyers' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.ThresholdBuyers = v
	}

	return nil
}

func applyEnvSecrets(cfg *Config) {
	if v := os.Getenv("HYPE_API_KEY"); v != "" {
		cfg.HypeAPIKey = v
	} else if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.HypeAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("PAYER_PRIVATE_KEY_BASE58"); v != "" {
		cfg.PayerKey = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.BinanceKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.BinanceSec = v
	}
}
