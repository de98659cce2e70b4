// Package config is the optional YAML configuration for cmd/tchecker:
// exploration tuning that has sensible defaults. No command-line flag
// overrides these fields; they come from Defaults or the config file.
package config

import "github.com/spf13/viper"

// Root is the full set of exploration knobs a config file may set.
type Root struct {
	BlockSize      int
	TableSize      int
	SearchOrder    string // "bfs" or "dfs"
	Covering       string // "full" or "leaf"
	Extrapolation  string // "lu+local", "lu", "k", "none"
	RefClockSpread int
}

// Defaults are the values used when no config file is given.
func Defaults() Root {
	return Root{
		BlockSize:      1024,
		TableSize:      64,
		SearchOrder:    "bfs",
		Covering:       "full",
		Extrapolation:  "lu+local",
		RefClockSpread: 0,
	}
}

// ReadConfig loads path into a Root seeded with Defaults, so a config file
// only needs to mention the fields it wants to change.
func ReadConfig(path string) (Root, error) {
	c := Defaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return Root{}, err
	}
	if err := viper.Unmarshal(&c); err != nil {
		return Root{}, err
	}
	return c, nil
}
