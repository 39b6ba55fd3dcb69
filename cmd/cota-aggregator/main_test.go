package main

import (
	"testing"

	"github.com/xiaolou86/cota-aggregator/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, exit, code := parseFlags(nil)
	if exit {
		t.Fatalf("unexpected exit, code=%d", code)
	}
	defaults := config.DefaultConfig()
	if cfg.DataDir != defaults.DataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, defaults.DataDir)
	}
	if cfg.RPCAddr != defaults.RPCAddr {
		t.Errorf("RPCAddr = %q, want %q", cfg.RPCAddr, defaults.RPCAddr)
	}
	if cfg.Threads != defaults.Threads {
		t.Errorf("Threads = %d, want %d", cfg.Threads, defaults.Threads)
	}
}

func TestParseFlagsOverrides(t *testing.T) {
	cfg, exit, code := parseFlags([]string{"-datadir", "/tmp/custom", "-threads", "8", "-loglevel", "debug"})
	if exit {
		t.Fatalf("unexpected exit, code=%d", code)
	}
	if cfg.DataDir != "/tmp/custom" {
		t.Errorf("DataDir = %q, want /tmp/custom", cfg.DataDir)
	}
	if cfg.Threads != 8 {
		t.Errorf("Threads = %d, want 8", cfg.Threads)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestParseFlagsVersion(t *testing.T) {
	_, exit, code := parseFlags([]string{"-version"})
	if !exit {
		t.Fatal("expected -version to set exit")
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
}

func TestParseFlagsInvalidFlag(t *testing.T) {
	_, exit, code := parseFlags([]string{"-does-not-exist"})
	if !exit {
		t.Fatal("expected an invalid flag to set exit")
	}
	if code != 2 {
		t.Errorf("code = %d, want 2", code)
	}
}
