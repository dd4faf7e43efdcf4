package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, decoded from TOML.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	GatewayAddress string `toml:"GatewayAddress"`
	DataDir        string `toml:"DataDir"`
	Environment    string `toml:"Environment"`

	AdminAddress   string `toml:"AdminAddress"`
	OracleAddress  string `toml:"OracleAddress"`
	CustodyAddress string `toml:"CustodyAddress"`
	MinterAddress  string `toml:"MinterAddress"`

	Staking StakingConfig `toml:"Staking"`
	Minting MintingConfig `toml:"Minting"`
}

// StakingConfig overrides the staking economy parameters. Amount fields are
// decimal strings in base units.
type StakingConfig struct {
	DailyRate       string `toml:"DailyRate"`
	MinimumHold     int64  `toml:"MinimumHold"`
	ClaimTaxBps     uint64 `toml:"ClaimTaxBps"`
	EmissionCeiling string `toml:"EmissionCeiling"`
	MaxRank         uint8  `toml:"MaxRank"`
}

// MintingConfig overrides the mint pipeline parameters.
type MintingConfig struct {
	MaxSupply    uint64     `toml:"MaxSupply"`
	MaxPerCommit uint16     `toml:"MaxPerCommit"`
	CostTiers    []CostTier `toml:"CostTiers"`
	FlatPrice    string     `toml:"FlatPrice"`
}

// CostTier is one price band keyed by cumulative mint index.
type CostTier struct {
	UpTo  uint64 `toml:"UpTo"`
	Price string `toml:"Price"`
}

// Load reads the configuration from path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.GatewayAddress) == "" {
		c.GatewayAddress = "127.0.0.1:8646"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./xenochain-data"
	}
}

// Validate checks the address and amount fields that can be verified without
// constructing the engines.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"AdminAddress":   c.AdminAddress,
		"OracleAddress":  c.OracleAddress,
		"CustodyAddress": c.CustodyAddress,
		"MinterAddress":  c.MinterAddress,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if err := checkAddress(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	for name, value := range map[string]string{
		"Staking.DailyRate":       c.Staking.DailyRate,
		"Staking.EmissionCeiling": c.Staking.EmissionCeiling,
		"Minting.FlatPrice":       c.Minting.FlatPrice,
	} {
		if err := checkAmount(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	for i, tier := range c.Minting.CostTiers {
		if err := checkAmount(tier.Price); err != nil {
			return fmt.Errorf("config: Minting.CostTiers[%d]: %w", i, err)
		}
	}
	return nil
}

func checkAddress(value string) error {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(trimmed) != 40 {
		return fmt.Errorf("expected 20-byte hex address, got %q", value)
	}
	return nil
}

func checkAmount(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return fmt.Errorf("invalid amount %q", value)
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create default %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: write default %s: %w", path, err)
	}
	return cfg, nil
}
