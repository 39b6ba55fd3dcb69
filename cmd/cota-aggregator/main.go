// Command cota-aggregator is the main entry point for the off-chain
// NFT-lifecycle SMT aggregator.
//
// Usage:
//
//	cota-aggregator [flags]
//
// Flags:
//
//	--datadir      Data directory path (default: ~/.cota-aggregator)
//	--rpc.addr     JSON-RPC HTTP listen address (default: 0.0.0.0:3030)
//	--indexer.url  On-chain root indexer base URL
//	--threads      Worker pool size for RPC requests (default: 3)
//	--loglevel     Log level: debug, info, warn, error (default: info)
//	--version      Print version and exit
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaolou86/cota-aggregator/internal/config"
	"github.com/xiaolou86/cota-aggregator/internal/elog"
	"github.com/xiaolou86/cota-aggregator/internal/service"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in
// isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	config.ApplyEnvironment(&cfg)

	log := elog.New(elog.LevelFromString(cfg.LogLevel))
	elog.SetDefault(log)

	log.Info("cota-aggregator starting", "version", version, "commit", commit)
	log.Info("resolved configuration",
		"datadir", cfg.DataDir,
		"rpc_addr", cfg.RPCAddr,
		"indexer_url", cfg.IndexerURL,
		"threads", cfg.Threads,
		"loglevel", cfg.LogLevel,
	)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		return 1
	}
	if err := cfg.InitDataDir(); err != nil {
		log.Error("failed to initialize datadir", "err", err)
		return 1
	}

	svc, err := service.New(&cfg, unconfiguredSource{})
	if err != nil {
		log.Error("failed to create service", "err", err)
		return 1
	}

	if err := svc.Start(); err != nil {
		log.Error("failed to start service", "err", err)
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received signal, shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		log.Error("error during shutdown", "err", err)
		return 1
	}

	log.Info("shutdown complete")
	return 0
}

// parseFlags parses CLI arguments into a Config. Returns the config,
// whether the caller should exit immediately, and the exit code.
func parseFlags(args []string) (config.Config, bool, int) {
	cfg := config.DefaultConfig()
	fs := newFlagSet(&cfg)
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 2
	}

	if *showVersion {
		fmt.Printf("cota-aggregator %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}

	return cfg, false, 0
}
