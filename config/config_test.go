package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withtally/compound-seatbelt-sub001/config"
)

func validManifest() config.Manifest {
	return config.Manifest{
		Governance: config.GovernanceConfig{
			DAOName:  "Compound",
			Governor: "0xc0Da02939E1441F497fd74F78cE7Decb17B66529",
			Timelock: "0x6d903f6003cca6255D85CcA4D3B5E5146dC33925",
		},
		CacheDir: "cache",
		Chains: []config.ChainConfig{
			{
				ChainID: 1,
				Name:    "mainnet",
				RPCURL:  "https://rpc.example.com",
				Explorer: config.ExplorerConfig{
					Kind:   config.ExplorerUnified,
					APIURL: "https://api.example.com/v2/api",
					APIKey: "key",
				},
			},
			{
				ChainID: 10,
				Name:    "optimism",
				RPCURL:  "https://rpc-op.example.com",
				Explorer: config.ExplorerConfig{
					Kind:   config.ExplorerREST,
					APIURL: "https://explorer-op.example.com",
				},
			},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Manifest)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*config.Manifest) {},
		},
		{
			name:    "missing dao name",
			mutate:  func(m *config.Manifest) { m.Governance.DAOName = "" },
			wantErr: "dao_name is required",
		},
		{
			name:    "invalid governor address",
			mutate:  func(m *config.Manifest) { m.Governance.Governor = "0x123" },
			wantErr: "not a valid address",
		},
		{
			name:    "invalid timelock address",
			mutate:  func(m *config.Manifest) { m.Governance.Timelock = "timelock.eth" },
			wantErr: "not a valid address",
		},
		{
			name:    "no chains",
			mutate:  func(m *config.Manifest) { m.Chains = nil },
			wantErr: "at least one chain is required",
		},
		{
			name:    "missing rpc url",
			mutate:  func(m *config.Manifest) { m.Chains[0].RPCURL = "" },
			wantErr: "rpc_url is required",
		},
		{
			name:    "unified backend requires api key",
			mutate:  func(m *config.Manifest) { m.Chains[0].Explorer.APIKey = "" },
			wantErr: "api_key is required",
		},
		{
			name:    "rest backend requires api url",
			mutate:  func(m *config.Manifest) { m.Chains[1].Explorer.APIURL = "" },
			wantErr: "api_url is required",
		},
		{
			name:    "unknown explorer kind",
			mutate:  func(m *config.Manifest) { m.Chains[0].Explorer.Kind = "graphql" },
			wantErr: "unknown explorer kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := validManifest()
			tt.mutate(&m)

			err := config.New(m).Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ChainByID(t *testing.T) {
	t.Parallel()

	cfg := config.New(validManifest())

	chain, err := cfg.ChainByID(10)
	require.NoError(t, err)
	assert.Equal(t, "optimism", chain.Name)

	_, err = cfg.ChainByID(137)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestConfig_TrustedAddresses(t *testing.T) {
	t.Parallel()

	cfg := config.New(validManifest())

	assert.Equal(t, []common.Address{
		common.HexToAddress("0xc0Da02939E1441F497fd74F78cE7Decb17B66529"),
		common.HexToAddress("0x6d903f6003cca6255D85CcA4D3B5E5146dC33925"),
	}, cfg.TrustedAddresses())
}

func TestLoad(t *testing.T) {
	manifest := `
governance:
  dao_name: Compound
  governor: "0xc0Da02939E1441F497fd74F78cE7Decb17B66529"
  timelock: "0x6d903f6003cca6255D85CcA4D3B5E5146dC33925"
cache_dir: cache
chains:
  - chain_id: 1
    name: mainnet
    rpc_url: https://rpc.example.com
    explorer:
      kind: unified
      api_url: https://api.example.com/v2/api
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	// The API key arrives through the environment overlay.
	t.Setenv("SEATBELT_EXPLORER_API_KEY", "env-key")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	chain, err := cfg.ChainByID(1)
	require.NoError(t, err)
	assert.Equal(t, "env-key", chain.Explorer.APIKey)
	assert.Equal(t, "Compound", cfg.Governance.DAOName)
}

func TestLoad_InvalidConfigIsFatal(t *testing.T) {
	manifest := `
governance:
  dao_name: Compound
chains: []
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	_, err := config.Load(path)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
