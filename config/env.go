package config

import "github.com/spf13/viper"

// Env holds the values sourced from environment variables. Secrets belong
// here rather than in the YAML manifest.
type Env struct {
	ExplorerAPIKey string `mapstructure:"explorer_api_key"`
	CacheDir       string `mapstructure:"cache_dir"`
	Governor       string `mapstructure:"governor"`
	Timelock       string `mapstructure:"timelock"`
}

// envBindings maps config keys to the environment variables that can provide
// their values. The first listed variable wins.
var envBindings = map[string][]string{
	"explorer_api_key": {"SEATBELT_EXPLORER_API_KEY", "ETHERSCAN_API_KEY"},
	"cache_dir":        {"SEATBELT_CACHE_DIR"},
	"governor":         {"SEATBELT_GOVERNOR_ADDRESS"},
	"timelock":         {"SEATBELT_TIMELOCK_ADDRESS"},
}

// LoadEnv loads the environment overlay.
func LoadEnv() (*Env, error) {
	v := viper.New()
	for key, envs := range envBindings {
		inputs := append([]string{key}, envs...)
		if err := v.BindEnv(inputs...); err != nil {
			return nil, err
		}
	}

	env := &Env{}
	if err := v.Unmarshal(env); err != nil {
		return nil, err
	}

	return env, nil
}
