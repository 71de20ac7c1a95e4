// Package engineconfig is the optional, file-backed configuration loader:
// mount roots, discovery worker count, and object table initial capacity
// read from YAML/JSON/env via viper and returned as a plain Config, which
// callers pass on to the functional options the rest of the module accepts.
// Within this module only cmd/objectcore-inspect imports it — a caller who
// prefers constructing options by hand never pulls viper in.
package engineconfig

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lumina-rt/objectcore/pkg/paths"
)

// Mount is one entry of the "mounts" config section: a virtual content
// prefix and the real filesystem root it resolves to.
type Mount struct {
	Virtual string `mapstructure:"virtual"`
	Real    string `mapstructure:"real"`
}

// Config is the file-backed subset of the module's configuration. Fields
// left zero keep whatever default the consuming package already uses.
type Config struct {
	Mounts              []Mount `mapstructure:"mounts"`
	DiscoveryWorkers    int     `mapstructure:"discovery_workers"`
	ObjectTableCapacity int     `mapstructure:"object_table_capacity"`
	HeaderCacheCapacity int     `mapstructure:"header_cache_capacity"`
}

// Load reads configPath (any format viper supports by extension — YAML,
// JSON, TOML) and overlays environment variables prefixed with envPrefix
// (e.g. "LUMINA_DISCOVERY_WORKERS" for DiscoveryWorkers when envPrefix is
// "LUMINA"). configPath may be empty to read from environment variables
// only.
func Load(configPath, envPrefix string) (*Config, error) {
	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	v.SetDefault("discovery_workers", 0)
	v.SetDefault("object_table_capacity", 0)
	v.SetDefault("header_cache_capacity", 0)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("engineconfig: reading %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("engineconfig: unmarshal: %w", err)
	}
	return &cfg, nil
}

// MountTable builds a paths.MountTable from the config's Mounts section.
func (c *Config) MountTable() *paths.MountTable {
	mt := paths.NewMountTable()
	for _, m := range c.Mounts {
		mt.Mount(m.Virtual, m.Real)
	}
	return mt
}
