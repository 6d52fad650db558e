// Package config loads ranking configuration from defaults, an optional
// file and BSPRICER_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/contactkeval/bs-pricer/internal/rank"
)

// EnvPrefix prefixes environment overrides, e.g. BSPRICER_TOP_N or
// BSPRICER_SCORING_IV_TO_HV.
const EnvPrefix = "BSPRICER"

// Provider names.
const (
	ProviderAuto      = "auto"
	ProviderMassive   = "massive"
	ProviderLocal     = "local"
	ProviderSynthetic = "synthetic"
)

type Config struct {
	Tickers        []string           `mapstructure:"tickers"`
	Provider       string             `mapstructure:"provider"`        // auto, massive, local or synthetic
	DataDir        string             `mapstructure:"data_dir"`        // local CSV directory
	Seed           int64              `mapstructure:"seed"`            // synthetic provider seed
	RiskFreeRate   float64            `mapstructure:"risk_free_rate"`  // continuously compounded
	DividendYields map[string]float64 `mapstructure:"dividend_yields"` // per ticker
	HistoryDays    int                `mapstructure:"history_days"`
	TopN           int                `mapstructure:"top_n"`
	Workers        int                `mapstructure:"workers"`
	ReportDir      string             `mapstructure:"report_dir"`
	Verbosity      int                `mapstructure:"verbosity"` // 0=errors,1=info,2=debug,3=trace
	LogFile        string             `mapstructure:"log_file"`
	Server         ServerConfig       `mapstructure:"server"`
	Scoring        rank.Weights       `mapstructure:"scoring"`
	StockScoring   rank.StockWeights  `mapstructure:"stock_scoring"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	w := rank.DefaultWeights()
	sw := rank.DefaultStockWeights()

	v.SetDefault("tickers", []string{})
	v.SetDefault("provider", ProviderAuto)
	v.SetDefault("data_dir", "")
	v.SetDefault("seed", 1)
	v.SetDefault("risk_free_rate", 0.01)
	v.SetDefault("dividend_yields", map[string]float64{})
	v.SetDefault("history_days", 182)
	v.SetDefault("top_n", 20)
	v.SetDefault("workers", 4)
	v.SetDefault("report_dir", "./out")
	v.SetDefault("verbosity", 1)
	v.SetDefault("log_file", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("scoring.iv_to_hv", w.IVToHV)
	v.SetDefault("scoring.extrinsic", w.Extrinsic)
	v.SetDefault("scoring.theta", w.Theta)
	v.SetDefault("scoring.hv_epsilon", w.HVEpsilon)
	v.SetDefault("scoring.mid_epsilon", w.MidEpsilon)
	v.SetDefault("stock_scoring.return_1y", sw.Return1Y)
	v.SetDefault("stock_scoring.return_6m", sw.Return6M)
	v.SetDefault("stock_scoring.stability", sw.Stability)
	v.SetDefault("stock_scoring.dividend", sw.Dividend)
}

// Load reads path when non-empty (format by extension) over the defaults
// and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SplitTickers parses a comma separated ticker list, trimming and
// upper-casing entries and dropping empty ones.
func SplitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c *Config) normalize() {
	for i, t := range c.Tickers {
		c.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	yields := make(map[string]float64, len(c.DividendYields))
	for k, y := range c.DividendYields {
		yields[strings.ToUpper(k)] = y
	}
	c.DividendYields = yields
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAuto, ProviderMassive, ProviderLocal, ProviderSynthetic:
	default:
		return fmt.Errorf("invalid config: unknown provider %q", c.Provider)
	}
	if c.Provider == ProviderLocal && c.DataDir == "" {
		return fmt.Errorf("invalid config: provider %q needs data_dir", c.Provider)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid config: workers must be >= 1, got %d", c.Workers)
	}
	if c.HistoryDays < 2 {
		return fmt.Errorf("invalid config: history_days must be >= 2, got %d", c.HistoryDays)
	}
	for k, y := range c.DividendYields {
		if y < 0 {
			return fmt.Errorf("invalid config: negative dividend yield for %s", k)
		}
	}
	if c.Scoring.HVEpsilon <= 0 || c.Scoring.MidEpsilon <= 0 {
		return fmt.Errorf("invalid config: scoring epsilons must be positive")
	}
	return nil
}
