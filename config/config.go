// Package config loads and validates the audit engine configuration: the
// governance identifiers, the chains to audit, and the block-explorer
// backend for each chain. Configuration errors are fatal; nothing runs
// against a partially configured environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ExplorerKind selects the block-explorer backend for a chain.
type ExplorerKind string

const (
	// ExplorerUnified is a multi-chain explorer API: one API key, the chain
	// id passed as a query parameter.
	ExplorerUnified ExplorerKind = "unified"
	// ExplorerREST is a per-chain REST-style explorer with its own base URL.
	ExplorerREST ExplorerKind = "rest"
)

// ExplorerConfig configures the block-explorer backend for one chain.
type ExplorerConfig struct {
	Kind   ExplorerKind `mapstructure:"kind" yaml:"kind"`
	APIURL string       `mapstructure:"api_url" yaml:"api_url"`
	// Secret: prefer the environment overlay over file configuration.
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// ChainConfig configures one chain to audit.
type ChainConfig struct {
	ChainID  uint64         `mapstructure:"chain_id" yaml:"chain_id"`
	Name     string         `mapstructure:"name" yaml:"name"`
	RPCURL   string         `mapstructure:"rpc_url" yaml:"rpc_url"`
	Explorer ExplorerConfig `mapstructure:"explorer" yaml:"explorer"`
}

// GovernanceConfig identifies the DAO whose proposals are audited. Governor
// and timelock are the trusted system contracts that classification never
// scans.
type GovernanceConfig struct {
	DAOName  string `mapstructure:"dao_name" yaml:"dao_name"`
	Governor string `mapstructure:"governor" yaml:"governor"`
	Timelock string `mapstructure:"timelock" yaml:"timelock"`
}

// Manifest is the YAML representation of the engine configuration.
type Manifest struct {
	Governance GovernanceConfig `yaml:"governance"`
	CacheDir   string           `yaml:"cache_dir"`
	Chains     []ChainConfig    `yaml:"chains"`
}

// Config is the validated engine configuration. Chains are keyed by chain id
// so duplicates collapse and lookup is direct.
type Config struct {
	Governance GovernanceConfig
	CacheDir   string

	chains map[uint64]ChainConfig
}

// New builds a Config from a manifest. Duplicate chain ids are overwritten
// by later entries.
func New(m Manifest) *Config {
	chains := make(map[uint64]ChainConfig, len(m.Chains))
	for _, c := range m.Chains {
		chains[c.ChainID] = c
	}

	return &Config{
		Governance: m.Governance,
		CacheDir:   m.CacheDir,
		chains:     chains,
	}
}

// Load reads the YAML manifest at path, applies the environment overlay and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := New(m)

	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays environment-provided values onto the config. The
// explorer API key from the environment fills every chain that has none of
// its own.
func (c *Config) applyEnv(env *Env) {
	if env.ExplorerAPIKey != "" {
		for id, chain := range c.chains {
			if chain.Explorer.APIKey == "" {
				chain.Explorer.APIKey = env.ExplorerAPIKey
				c.chains[id] = chain
			}
		}
	}
	if env.CacheDir != "" {
		c.CacheDir = env.CacheDir
	}
	if env.Governor != "" {
		c.Governance.Governor = env.Governor
	}
	if env.Timelock != "" {
		c.Governance.Timelock = env.Timelock
	}
}

// Validate ensures the configuration is complete enough to run any checks.
func (c *Config) Validate() error {
	if c.Governance.DAOName == "" {
		return fmt.Errorf("%w: governance dao_name is required", ErrInvalidConfig)
	}
	if !common.IsHexAddress(c.Governance.Governor) {
		return fmt.Errorf("%w: governance governor %q is not a valid address", ErrInvalidConfig, c.Governance.Governor)
	}
	if !common.IsHexAddress(c.Governance.Timelock) {
		return fmt.Errorf("%w: governance timelock %q is not a valid address", ErrInvalidConfig, c.Governance.Timelock)
	}
	if len(c.chains) == 0 {
		return fmt.Errorf("%w: at least one chain is required", ErrInvalidConfig)
	}

	for id, chain := range c.chains {
		if err := chain.validate(); err != nil {
			return fmt.Errorf("%w: chain %d: %w", ErrInvalidConfig, id, err)
		}
	}

	return nil
}

func (c ChainConfig) validate() error {
	if c.ChainID == 0 {
		return errors.New("chain_id is required")
	}
	if c.RPCURL == "" {
		return errors.New("rpc_url is required")
	}

	switch c.Explorer.Kind {
	case ExplorerUnified:
		if c.Explorer.APIURL == "" {
			return errors.New("explorer api_url is required for the unified backend")
		}
		if c.Explorer.APIKey == "" {
			return errors.New("explorer api_key is required for the unified backend")
		}
	case ExplorerREST:
		if c.Explorer.APIURL == "" {
			return errors.New("explorer api_url is required for the rest backend")
		}
	default:
		return fmt.Errorf("unknown explorer kind %q", c.Explorer.Kind)
	}

	return nil
}

// ChainByID returns the configuration for a chain id. A missing chain is a
// configuration error.
func (c *Config) ChainByID(id uint64) (ChainConfig, error) {
	chain, ok := c.chains[id]
	if !ok {
		return ChainConfig{}, fmt.Errorf("%w: chain %d not configured", ErrInvalidConfig, id)
	}

	return chain, nil
}

// ChainIDs returns the configured chain ids.
func (c *Config) ChainIDs() []uint64 {
	ids := make([]uint64, 0, len(c.chains))
	for id := range c.chains {
		ids = append(ids, id)
	}

	return ids
}

// TrustedAddresses returns the trusted system contracts (governor and
// timelock) that classification skips.
func (c *Config) TrustedAddresses() []common.Address {
	return []common.Address{
		common.HexToAddress(c.Governance.Governor),
		common.HexToAddress(c.Governance.Timelock),
	}
}
