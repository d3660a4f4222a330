// Package config loads cmd/gateway's configuration via viper, per
// SPEC_FULL.md's ambient stack: a layered file+env+flag config in the
// shape nabbar-golib/config's component system and spf13/cobra CLIs
// both lean on, scaled down to this simulator's single flat struct
// (nabbar's component/lifecycle machinery manages a fleet of unrelated
// services; a gateway with six protocol listeners doesn't need it).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ListenerConfig is one protocol engine's TCP bind address and identity.
type ListenerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`

	// SenderCompID/TargetCompID are only meaningful for the FIX listener.
	SenderCompID string `mapstructure:"sender_comp_id"`
	TargetCompID string `mapstructure:"target_comp_id"`
}

// FillRuleConfig mirrors model.FillRule for file/env configuration.
type FillRuleConfig struct {
	Priority        int     `mapstructure:"priority"`
	SymbolPattern   string  `mapstructure:"symbol_pattern"`
	FillProbability float64 `mapstructure:"fill_probability"`
	PartialProb     float64 `mapstructure:"partial_prob"`
}

// Config is the gateway's full runtime configuration.
type Config struct {
	JournalDir                      string                    `mapstructure:"journal_dir"`
	JournalSyncMode                 bool                      `mapstructure:"journal_sync_mode"`
	FillSeed                        int64                     `mapstructure:"fill_seed"`
	HeartbeatInterval               time.Duration             `mapstructure:"heartbeat_interval"`
	CancelRejectOnIllegalTransition  bool                     `mapstructure:"cancel_reject_on_illegal_transition"`
	FillRules                       []FillRuleConfig          `mapstructure:"fill_rules"`
	Listeners                       map[string]ListenerConfig `mapstructure:"listeners"`
	LogLevel                        string                    `mapstructure:"log_level"`
}

// Default returns the configuration cmd/gateway starts from before any
// file or environment override is applied.
func Default() Config {
	return Config{
		JournalDir:        "./journal",
		JournalSyncMode:   false,
		FillSeed:          1,
		HeartbeatInterval: 30 * time.Second,
		CancelRejectOnIllegalTransition: false,
		LogLevel:          "info",
		FillRules: []FillRuleConfig{
			{Priority: 1, SymbolPattern: "*", FillProbability: 0.8, PartialProb: 0.3},
		},
		Listeners: map[string]ListenerConfig{
			"fix":    {Enabled: true, Addr: ":9001", SenderCompID: "EXCHANGE", TargetCompID: "CLIENT"},
			"ouch42": {Enabled: true, Addr: ":9002"},
			"ouch50": {Enabled: true, Addr: ":9003"},
			"ilink3": {Enabled: true, Addr: ":9004"},
			"optiq":  {Enabled: false, Addr: ":9005"},
			"pillar": {Enabled: false, Addr: ":9006"},
		},
	}
}

// Load reads configPath (if non-empty), overlays EXCHANGE_SIM_*
// environment variables, and returns the merged Config. configPath may
// be empty to rely on defaults and environment alone.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXCHANGE_SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("journal_dir", def.JournalDir)
	v.SetDefault("journal_sync_mode", def.JournalSyncMode)
	v.SetDefault("fill_seed", def.FillSeed)
	v.SetDefault("heartbeat_interval", def.HeartbeatInterval)
	v.SetDefault("cancel_reject_on_illegal_transition", def.CancelRejectOnIllegalTransition)
	v.SetDefault("log_level", def.LogLevel)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if len(cfg.FillRules) == 0 {
		cfg.FillRules = def.FillRules
	}
	if len(cfg.Listeners) == 0 {
		cfg.Listeners = def.Listeners
	}
	return cfg, nil
}
