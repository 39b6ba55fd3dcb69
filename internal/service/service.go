// Package service assembles the cota-aggregator process: the History
// Store, Account Serializer, on-chain root indexer, Operation
// Builders, and JSON-RPC server, wired together the way
// node.New/Start/Stop/Wait assembles the teacher's subsystems.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/xiaolou86/cota-aggregator/internal/account"
	"github.com/xiaolou86/cota-aggregator/internal/builder"
	"github.com/xiaolou86/cota-aggregator/internal/config"
	"github.com/xiaolou86/cota-aggregator/internal/elog"
	"github.com/xiaolou86/cota-aggregator/internal/history"
	"github.com/xiaolou86/cota-aggregator/internal/indexer"
	"github.com/xiaolou86/cota-aggregator/internal/rpcserver"
)

// Service is the top-level cota-aggregator process.
type Service struct {
	cfg *config.Config
	log *elog.Logger

	store      *history.Store
	serializer *account.Serializer
	indexer    indexer.RootFetcher
	deps       *builder.Deps

	rpcServer *rpcserver.Server
	pool      *Pool
	httpSrv   *http.Server

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// New creates a Service with the given configuration and external
// data source. The source is the relational-database collaborator
// spec.md §1 scopes out of the core -- the caller supplies whatever
// concrete implementation fronts that database.
func New(cfg *config.Config, source builder.Source) (*Service, error) {
	if cfg == nil {
		d := config.DefaultConfig()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, errors.New("service: source must not be nil")
	}

	store, err := history.Open(cfg.SMTDir())
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		log:        elog.Default().Module("service"),
		store:      store,
		serializer: account.New(),
		indexer:    indexer.NewHTTPClient(cfg.IndexerURL),
		stop:       make(chan struct{}),
	}

	s.deps = &builder.Deps{
		Store:      s.store,
		Serializer: s.serializer,
		Indexer:    s.indexer,
		Source:     source,
	}
	s.rpcServer = rpcserver.NewServer(s.deps)
	s.pool = NewPool(cfg.Threads)

	return s, nil
}

// Start starts the JSON-RPC HTTP server in the background.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("service already running")
	}

	rpcHandler := s.rpcServer.Handler()
	s.httpSrv = &http.Server{
		Addr: s.cfg.RPCAddr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.pool.Do(func() { rpcHandler.ServeHTTP(w, r) })
		}),
	}
	go func() {
		s.log.Info("rpc server listening", "addr", s.cfg.RPCAddr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("rpc server error", "err", err)
		}
	}()

	s.running = true
	s.log.Info("service started", "datadir", s.cfg.DataDir, "threads", s.cfg.Threads)
	return nil
}

// Stop gracefully shuts down the RPC server and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.log.Error("rpc server shutdown error", "err", err)
		}
	}
	s.pool.Wait()
	if err := s.store.Close(); err != nil {
		s.log.Error("history store close error", "err", err)
	}

	s.running = false
	close(s.stop)
	s.log.Info("service stopped")
	return nil
}

// Wait blocks until the service is stopped.
func (s *Service) Wait() {
	<-s.stop
}

// Running reports whether the service is currently serving requests.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
