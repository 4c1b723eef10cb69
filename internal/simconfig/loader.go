package simconfig

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads a simulation config from path (YAML, TOML, or JSON — viper
// infers from the extension) and applies the normative defaults to
// whatever the file leaves unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("simconfig: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("simconfig: decoding %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
