package main

import (
	"flag"

	"github.com/xiaolou86/cota-aggregator/internal/config"
)

// newFlagSet creates a flag.FlagSet bound to cfg's fields, with
// ContinueOnError so callers control error handling.
func newFlagSet(cfg *config.Config) *flag.FlagSet {
	fs := flag.NewFlagSet("cota-aggregator", flag.ContinueOnError)
	fs.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "data directory path")
	fs.StringVar(&cfg.RPCAddr, "rpc.addr", cfg.RPCAddr, "JSON-RPC HTTP listen address")
	fs.StringVar(&cfg.IndexerURL, "indexer.url", cfg.IndexerURL, "on-chain root indexer base URL")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "worker pool size for RPC requests")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "log level (debug, info, warn, error)")
	return fs
}
