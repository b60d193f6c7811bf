// Package config is the ambient configuration layer: a viper-backed loader
// (grounded on the pack's other config reader, internal/config/config.go,
// for the load/defaults/env-override shape) feeding a process-wide,
// read-mostly global modeled on teacher's cmn.GCO (cmn/rom.go, "read-mostly
// and most often used ... assign at startup to reduce the number of
// GCO.Get() calls").
package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of tunables a running core needs (§1/§4/§5/§6 of
// the expanded design): overlay sizing, transport limits, and the
// flooding/crawl budgets.
type Config struct {
	Overlay  OverlayConfig  `mapstructure:"overlay"`
	Transport TransportConfig `mapstructure:"transport"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	DHT      DHTConfig      `mapstructure:"dht"`
	Log      LogConfig      `mapstructure:"log"`
}

// OverlayConfig sizes the bounded, FIFO-overwrite state of the flooding and
// bridge layers (§4.2 "Routing table", §4.3 "flow-id map").
type OverlayConfig struct {
	RoutingTableSize int `mapstructure:"routing_table_size"`
	FlowMapSize      int `mapstructure:"flow_map_size"`
	InitialTTL       int `mapstructure:"initial_ttl"`
}

// TransportConfig bounds the unit-message size and the transmit-ready
// timeout Framing/Flooding hand to overlay.Transport (§5, §6). ListenAddr
// is the Unix domain socket path cmd/ksearchd's client channel listens on.
type TransportConfig struct {
	MaxMTU     int           `mapstructure:"max_mtu"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	ListenAddr string        `mapstructure:"listen_addr"`
}

// CrawlConfig bounds how far a URL-Processor re-announcement may travel
// (§4.6 "remaining-hops budget").
type CrawlConfig struct {
	DefaultHops int `mapstructure:"default_hops"`
}

// DHTConfig names the out-of-process DHT endpoint this core Puts to and
// Monitors (§4.5; the DHT implementation itself is out of scope).
type DHTConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// LogConfig controls cmn/nlog's verbosity (§1.1): "warning" and "error"
// suppress Info lines; nlog has no error-only mode, so "error" still shows
// warnings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration; used when no file is given
// and as the base every Load call's defaults are layered onto.
func Default() *Config {
	return &Config{
		Overlay: OverlayConfig{
			RoutingTableSize: 25,
			FlowMapSize:      15,
			InitialTTL:       16,
		},
		Transport: TransportConfig{
			MaxMTU:     4096,
			MaxDelay:   time.Minute,
			ListenAddr: "/tmp/ksearchd.sock",
		},
		Crawl: CrawlConfig{DefaultHops: 4},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path (YAML/TOML/JSON, anything viper's codecs accept) over the
// built-in defaults, with KSEARCH_-prefixed environment variables taking
// final precedence, mirroring the pack's viper.New/SetConfigFile/
// AutomaticEnv idiom.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	setDefaults(v, def)

	v.SetEnvPrefix("ksearch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("overlay.routing_table_size", d.Overlay.RoutingTableSize)
	v.SetDefault("overlay.flow_map_size", d.Overlay.FlowMapSize)
	v.SetDefault("overlay.initial_ttl", d.Overlay.InitialTTL)
	v.SetDefault("transport.max_mtu", d.Transport.MaxMTU)
	v.SetDefault("transport.max_delay", d.Transport.MaxDelay)
	v.SetDefault("transport.listen_addr", d.Transport.ListenAddr)
	v.SetDefault("crawl.default_hops", d.Crawl.DefaultHops)
	v.SetDefault("dht.endpoint", d.DHT.Endpoint)
	v.SetDefault("log.level", d.Log.Level)
}

func validate(cfg *Config) error {
	if cfg.Overlay.RoutingTableSize <= 0 {
		return fmt.Errorf("config: overlay.routing_table_size must be positive")
	}
	if cfg.Overlay.FlowMapSize <= 0 {
		return fmt.Errorf("config: overlay.flow_map_size must be positive")
	}
	if cfg.Overlay.InitialTTL <= 0 {
		return fmt.Errorf("config: overlay.initial_ttl must be positive")
	}
	if cfg.Transport.MaxMTU <= 0 {
		return fmt.Errorf("config: transport.max_mtu must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warning", "error":
	default:
		return fmt.Errorf("config: invalid log.level %q", cfg.Log.Level)
	}
	return nil
}

// gco ("global config owner") holds the single active *Config behind an
// atomic pointer, the same read-mostly-global role teacher's cmn.GCO plays
// for cmn.Config (cmn/rom.go).
type gco struct {
	ptr atomic.Pointer[Config]
}

// GCO is the process-wide configuration holder.
var GCO = &gco{}

func init() { GCO.ptr.Store(Default()) }

// Get returns the currently active configuration; always non-nil.
func (g *gco) Get() *Config { return g.ptr.Load() }

// Put installs cfg as the active configuration.
func (g *gco) Put(cfg *Config) { g.ptr.Store(cfg) }
