package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/exeNyx7/ethereal-sub001/libs/log"
	"github.com/exeNyx7/ethereal-sub001/types"
)

// DefaultEtherealDir is the default home directory.
var DefaultEtherealDir = ".ethereal"

const defaultDataDir = "data"

// Config defines the top level configuration for a node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Store           *StoreConfig           `mapstructure:"store"`
	Resolution      *ResolutionConfig      `mapstructure:"resolution"`
	RPC             *RPCConfig             `mapstructure:"rpc"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a node.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Store:           DefaultStoreConfig(),
		Resolution:      DefaultResolutionConfig(),
		RPC:             DefaultRPCConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Store.Backend = "memdb"
	cfg.Store.ReadTimeout = 500 * time.Millisecond
	cfg.Resolution.ScanInterval = 50 * time.Millisecond
	cfg.RPC.ListenAddress = "tcp://127.0.0.1:0"
	return cfg
}

// SetRoot sets the RootDir for all config structs.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Store.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [store] section: %w", err)
	}
	if err := cfg.Resolution.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [resolution] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a node.
type BaseConfig struct {
	// The root directory for all data.
	RootDir string `mapstructure:"home"`

	// A custom human readable name for this node, carried in logs so
	// concurrent peers are distinguishable.
	Moniker string `mapstructure:"moniker"`

	// The community domain this node scans.
	Domain string `mapstructure:"domain"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`
}

// DefaultBaseConfig returns a default base configuration for a node.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:   defaultMoniker,
		Domain:    "general",
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
	}
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format (must be 'plain' or 'json'): %s", cfg.LogFormat)
	}
	if cfg.Domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// StoreConfig

// StoreConfig defines the configuration for the local replica of the
// community store.
type StoreConfig struct {
	// Database backend: goleveldb | badgerdb | memdb
	Backend string `mapstructure:"backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Bounded wait applied to every store read; reads that exceed it
	// degrade to an absent result.
	ReadTimeout time.Duration `mapstructure:"read-timeout"`
}

// DefaultStoreConfig returns a default configuration for the store.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		Backend:     "goleveldb",
		DBPath:      defaultDataDir,
		ReadTimeout: 3 * time.Second,
	}
}

// ValidateBasic performs basic validation.
func (cfg *StoreConfig) ValidateBasic() error {
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read-timeout must be positive, got %v", cfg.ReadTimeout)
	}
	return nil
}

// DBDir returns the full path to the database directory.
func (cfg *StoreConfig) DBDir(rootDir string) string {
	if filepath.IsAbs(cfg.DBPath) {
		return cfg.DBPath
	}
	return filepath.Join(rootDir, cfg.DBPath)
}

//-----------------------------------------------------------------------------
// ResolutionConfig

// ResolutionConfig defines the policy constants of the resolution engine.
type ResolutionConfig struct {
	// How often the scheduler scans for expired windows.
	ScanInterval time.Duration `mapstructure:"scan-interval"`

	// Quorum
	MinVoters      int     `mapstructure:"min-voters"`
	MinTotalWeight float64 `mapstructure:"min-total-weight"`

	// Verdict thresholds
	FactThreshold  float64 `mapstructure:"fact-threshold"`
	FalseThreshold float64 `mapstructure:"false-threshold"`
}

// DefaultResolutionConfig returns a default configuration for the
// resolution engine.
func DefaultResolutionConfig() *ResolutionConfig {
	params := types.DefaultResolutionParams()
	return &ResolutionConfig{
		ScanInterval:   30 * time.Second,
		MinVoters:      params.MinVoters,
		MinTotalWeight: params.MinTotalWeight,
		FactThreshold:  params.FactThreshold,
		FalseThreshold: params.FalseThreshold,
	}
}

// Params folds the configured policy values into ResolutionParams, keeping
// the settlement deltas at their defaults.
func (cfg *ResolutionConfig) Params() types.ResolutionParams {
	params := types.DefaultResolutionParams()
	params.MinVoters = cfg.MinVoters
	params.MinTotalWeight = cfg.MinTotalWeight
	params.FactThreshold = cfg.FactThreshold
	params.FalseThreshold = cfg.FalseThreshold
	return params
}

// ValidateBasic performs basic validation.
func (cfg *ResolutionConfig) ValidateBasic() error {
	if cfg.ScanInterval <= 0 {
		return fmt.Errorf("scan-interval must be positive, got %v", cfg.ScanInterval)
	}
	return cfg.Params().ValidateBasic()
}

//-----------------------------------------------------------------------------
// RPCConfig

// RPCConfig defines the configuration options for the HTTP/websocket
// surface consumed by the UI layer.
type RPCConfig struct {
	// TCP or UNIX socket address for the server to listen on
	ListenAddress string `mapstructure:"laddr"`

	// A list of origins a cross-domain request can be executed from
	CORSAllowedOrigins []string `mapstructure:"cors-allowed-origins"`
}

// DefaultRPCConfig returns a default configuration for the RPC server.
func DefaultRPCConfig() *RPCConfig {
	return &RPCConfig{
		ListenAddress:      "tcp://127.0.0.1:26680",
		CORSAllowedOrigins: []string{},
	}
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on the RPC
	// listener.
	Prometheus bool `mapstructure:"prometheus"`

	// Instrumentation namespace
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus: false,
		Namespace:  "ethereal",
	}
}

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns a default moniker, which is the host name. If
// runtime fails to get the host name, "anonymous" will be returned.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
