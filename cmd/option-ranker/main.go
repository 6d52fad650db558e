package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contactkeval/bs-pricer/internal/config"
	"github.com/contactkeval/bs-pricer/internal/data"
	"github.com/contactkeval/bs-pricer/internal/logger"
	"github.com/contactkeval/bs-pricer/internal/metrics"
	"github.com/contactkeval/bs-pricer/internal/rank"
	"github.com/contactkeval/bs-pricer/internal/report"
	"github.com/contactkeval/bs-pricer/internal/scan"
	"github.com/contactkeval/bs-pricer/internal/server"
)

// printTop is the number of rows echoed to stdout after a batch run.
const printTop = 20

func main() {
	configPath := flag.String("config", "", "path to config file (yaml, json or toml)")
	tickers := flag.String("tickers", "", "comma separated tickers, overrides config")
	top := flag.Int("top", 0, "ranked options kept per ticker, overrides config")
	out := flag.String("out", "", "report directory, overrides config")
	rest := flag.Bool("rest", false, "run as REST server (pricing endpoints and scan jobs)")
	port := flag.String("port", "", "REST server listen address, overrides config")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address during a batch run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *tickers != "" {
		cfg.Tickers = config.SplitTickers(*tickers)
	}
	if *top > 0 {
		cfg.TopN = *top
	}
	if *out != "" {
		cfg.ReportDir = *out
	}
	if *port != "" {
		cfg.Server.Addr = *port
	}

	logger.SetVerbosity(cfg.Verbosity)
	if cfg.LogFile != "" {
		closer := logger.SetOutputFile(cfg.LogFile, 10, 3)
		defer closer.Close()
	}

	// choose provider
	prov, desc, err := data.Select(cfg.Provider, os.Getenv(data.MassiveAPIKeyEnv), cfg.DataDir, cfg.Seed)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}
	logger.Infof("%s provider enabled", desc)

	collector, err := metrics.NewCollector()
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	ranker := rank.NewRanker(rank.Config{Weights: cfg.Scoring, Workers: cfg.Workers}, collector)
	engine := scan.NewEngine(&scan.Config{
		Tickers:        cfg.Tickers,
		HistoryDays:    cfg.HistoryDays,
		RiskFreeRate:   cfg.RiskFreeRate,
		DividendYields: cfg.DividendYields,
		TopN:           cfg.TopN,
	}, prov, ranker, collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *rest {
		srv := &http.Server{Addr: cfg.Server.Addr, Handler: server.New(engine, collector).Router()}
		logger.Infof("starting REST server on %s", cfg.Server.Addr)
		if err := serve(ctx, srv); err != nil {
			log.Fatalf("server: %v", err)
		}
		return
	}

	if len(cfg.Tickers) == 0 {
		fmt.Fprintln(os.Stderr, "Please pass tickers to evaluate, e.g. -tickers ASML,SAP")
		os.Exit(2)
	}

	if *metricsAddr != "" {
		msrv := &http.Server{Addr: *metricsAddr, Handler: collector.Handler()}
		go func() {
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("metrics server: %v", err)
			}
		}()
		defer msrv.Close()
	}

	start := time.Now()
	res, err := engine.Run(ctx)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	if err := report.WriteCSV(res.Options, cfg.ReportDir); err != nil {
		logger.Errorf("write csv report: %v", err)
	}
	if err := report.WriteJSON(res, cfg.ReportDir); err != nil {
		logger.Errorf("write json report: %v", err)
	}
	logger.Infof("finished in %v, wrote %d option rows to %s", time.Since(start), len(res.Options), cfg.ReportDir)

	byIV := append([]rank.RankedOption(nil), res.Options...)
	rank.SortByIV(byIV)
	for _, r := range rank.Top(byIV, printTop) {
		q := r.Quote
		fmt.Printf("%s %s %s K=%.2f mid=%.2f iv=%.3f hv=%.3f extr=%.2f theta=%.4f score=%.4f\n",
			q.Underlying, q.Expiry.Format("2006-01-02"), q.Type, q.Strike,
			r.Mid, r.IV, r.HV, r.Extrinsic, r.Greeks.Theta, r.Score)
	}
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down REST server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
