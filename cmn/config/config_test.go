package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ksearch-project/ksearch/cmn/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Overlay.RoutingTableSize != 25 || cfg.Overlay.FlowMapSize != 15 {
		t.Fatalf("got %+v", cfg.Overlay)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ksearch.yaml")
	yaml := "overlay:\n  routing_table_size: 50\ntransport:\n  max_mtu: 8192\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Overlay.RoutingTableSize != 50 {
		t.Fatalf("got %d", cfg.Overlay.RoutingTableSize)
	}
	if cfg.Transport.MaxMTU != 8192 {
		t.Fatalf("got %d", cfg.Transport.MaxMTU)
	}
	if cfg.Overlay.FlowMapSize != 15 {
		t.Fatalf("expected untouched default, got %d", cfg.Overlay.FlowMapSize)
	}
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: noisy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGCODefaultsToBuiltin(t *testing.T) {
	cfg := config.GCO.Get()
	if cfg == nil {
		t.Fatal("expected non-nil default")
	}
	if cfg.Overlay.RoutingTableSize != 25 {
		t.Fatalf("got %d", cfg.Overlay.RoutingTableSize)
	}
}

func TestGCOPutReplacesActive(t *testing.T) {
	cfg := config.Default()
	cfg.Overlay.RoutingTableSize = 99
	config.GCO.Put(cfg)
	defer config.GCO.Put(config.Default())

	if got := config.GCO.Get().Overlay.RoutingTableSize; got != 99 {
		t.Fatalf("got %d", got)
	}
}
