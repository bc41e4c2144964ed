// Package config loads the HCL configuration shared by every diamondlocks
// command.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/diamondlocks/internal/store"
)

// Config is the complete configuration. Every block is optional.
type Config struct {
	Server    *ServerSettings    `hcl:"server,block"`
	Store     *StoreSettings     `hcl:"store,block"`
	Blackjack *BlackjackSettings `hcl:"blackjack,block"`
	CoinFlip  *CoinFlipSettings  `hcl:"coinflip,block"`
}

// ServerSettings configures the HTTP and WebSocket listener.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// StoreSettings selects the persistence backend.
type StoreSettings struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// BlackjackSettings configures every blackjack table.
type BlackjackSettings struct {
	Chips           []int `hcl:"chips,optional"`
	DealDelayMs     int   `hcl:"deal_delay_ms,optional"`
	DealerDelayMs   int   `hcl:"dealer_delay_ms,optional"`
	StartingBalance int   `hcl:"starting_balance,optional"`
}

// CoinFlipSettings configures the coin flip game.
type CoinFlipSettings struct {
	DelayMs int `hcl:"delay_ms,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Store: &StoreSettings{
			Driver: store.DriverSQLite,
			Path:   "diamondlocks.db",
		},
		Blackjack: &BlackjackSettings{
			Chips:         []int{1, 5, 25, 100},
			DealDelayMs:   500,
			DealerDelayMs: 1000,
		},
		CoinFlip: &CoinFlipSettings{
			DelayMs: 2000,
		},
	}
}

// Load reads filename, falling back to Default when it does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	file, diags := hclparse.NewParser().ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file)
}

// Parse decodes HCL source; filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Server.Address == "" {
		c.Server.Address = def.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}

	if c.Store == nil {
		c.Store = def.Store
	}
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Path == "" && c.Store.Driver == def.Store.Driver {
		c.Store.Path = def.Store.Path
	}

	if c.Blackjack == nil {
		c.Blackjack = def.Blackjack
	}
	if len(c.Blackjack.Chips) == 0 {
		c.Blackjack.Chips = def.Blackjack.Chips
	}

	if c.CoinFlip == nil {
		c.CoinFlip = def.CoinFlip
	}
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverFile, store.DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store driver %s requires a path", c.Store.Driver)
		}
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver postgres requires a dsn")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	for i, chip := range c.Blackjack.Chips {
		if chip <= 0 {
			return fmt.Errorf("blackjack: chip values must be positive, got %d", chip)
		}
		if slices.Contains(c.Blackjack.Chips[:i], chip) {
			return fmt.Errorf("blackjack: duplicate chip value %d", chip)
		}
	}
	if c.Blackjack.DealDelayMs < 0 || c.Blackjack.DealerDelayMs < 0 {
		return fmt.Errorf("blackjack: delays must not be negative")
	}
	if c.Blackjack.StartingBalance < 0 {
		return fmt.Errorf("blackjack: starting balance must not be negative")
	}
	if c.CoinFlip.DelayMs < 0 {
		return fmt.Errorf("coinflip: delay must not be negative")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// StoreOptions converts the store block for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver: c.Store.Driver,
		Path:   c.Store.Path,
		DSN:    c.Store.DSN,
	}
}

func (b *BlackjackSettings) DealDelay() time.Duration {
	return time.Duration(b.DealDelayMs) * time.Millisecond
}

func (b *BlackjackSettings) DealerDelay() time.Duration {
	return time.Duration(b.DealerDelayMs) * time.Millisecond
}

func (c *CoinFlipSettings) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}
