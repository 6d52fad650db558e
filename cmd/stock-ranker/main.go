package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/contactkeval/bs-pricer/internal/config"
	"github.com/contactkeval/bs-pricer/internal/data"
	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/rank"
	"github.com/contactkeval/bs-pricer/internal/report"
	"github.com/contactkeval/bs-pricer/internal/scan"
)

var defaultTickers = []string{"ASML.AS", "SAP.DE", "SAN.PA", "MC.PA", "SHEL.L", "GLEN.L", "NESN.SW", "NOVN.SW", "AIR.PA"}

func main() {
	configPath := flag.String("config", "", "path to config file (yaml, json or toml)")
	tickers := flag.String("tickers", "", "comma separated tickers, overrides config")
	top := flag.Int("top", 10, "how many top results to show")
	weights := flag.String("weights", "", "comma separated key=val for keys 1y,6m,vol,div, e.g. 1y=0.5,6m=0.3,vol=0.15,div=0.05")
	out := flag.String("out", "", "report directory, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger.SetVerbosity(cfg.Verbosity)

	if *tickers != "" {
		cfg.Tickers = config.SplitTickers(*tickers)
	}
	if len(cfg.Tickers) == 0 {
		cfg.Tickers = defaultTickers
	}
	if *out != "" {
		cfg.ReportDir = *out
	}

	w, err := parseWeights(*weights, cfg.StockScoring)
	if err != nil {
		log.Fatalf("weights: %v", err)
	}

	prov, desc, err := data.Select(cfg.Provider, os.Getenv(data.MassiveAPIKeyEnv), cfg.DataDir, cfg.Seed)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}
	logger.Infof("%s provider enabled", desc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := scan.NewEngine(&scan.Config{Tickers: cfg.Tickers, DividendYields: cfg.DividendYields}, prov, nil, nil)
	rows, err := engine.RankStocks(ctx, w)
	if err != nil {
		log.Fatalf("rank stocks: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("no tickers processed successfully")
	}

	if err := report.WriteStocksCSV(rows, cfg.ReportDir); err != nil {
		logger.Errorf("write stocks report: %v", err)
	}

	fmt.Printf("%-10s %10s %10s %10s %10s %10s\n", "ticker", "1y_return", "6m_return", "ann_vol", "div_yield", "score")
	for i, m := range rows {
		if i >= *top {
			break
		}
		fmt.Printf("%-10s %10.4f %10.4f %10.4f %10.4f %10.4f\n", m.Ticker, m.Return1Y, m.Return6M, m.AnnualVol, m.DividendYield, m.Score)
	}
	fmt.Printf("Saved CSV to %s\n", cfg.ReportDir)
}

// parseWeights applies key=val overrides to base and normalises the result.
func parseWeights(s string, base rank.StockWeights) (rank.StockWeights, error) {
	w := base
	if s != "" {
		for _, item := range strings.Split(s, ",") {
			k, v, ok := strings.Cut(item, "=")
			if !ok {
				return w, fmt.Errorf("malformed weight %q", item)
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return w, fmt.Errorf("weight %q: %w", item, err)
			}
			switch strings.TrimSpace(k) {
			case "1y":
				w.Return1Y = f
			case "6m":
				w.Return6M = f
			case "vol":
				w.Stability = f
			case "div":
				w.Dividend = f
			}
		}
	}
	return w.Normalize()
}
