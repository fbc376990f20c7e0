// Package config loads the Configuration Surface: every tunable knob named
// in the specification's External Interfaces section, bound from a YAML
// file and overridable by environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved Configuration Surface. It is loaded once at
// startup and passed by reference; no subsystem reads package-level globals.
type Config struct {
	// Logging
	LogLevel string `mapstructure:"log_level"`

	// Storage
	DatabasePath string `mapstructure:"database_path"`
	RedisURL     string `mapstructure:"redis_url"` // empty disables Redis, falls back to in-memory bus

	// HTTP
	HTTPAddr      string `mapstructure:"http_addr"`
	ObserverAddr  string `mapstructure:"observer_addr"`
	AdminToken    string `mapstructure:"admin_token"`
	CORSOrigins   []string `mapstructure:"cors_origins"`

	// Reasoning model
	ReasoningAPIKey      string        `mapstructure:"reasoning_api_key"`
	ReasoningModel       string        `mapstructure:"reasoning_model"`
	ReasoningTimeout     time.Duration `mapstructure:"reasoning_timeout"`
	ReasoningPoolSize    int           `mapstructure:"reasoning_pool_size"`
	ReasoningMaxPerMin   int           `mapstructure:"reasoning_max_per_min"`

	// Economy
	StartingBalance          int64   `mapstructure:"starting_balance"`
	NewbornRegistrationCredit int64  `mapstructure:"newborn_registration_credit"`
	WealthCapFraction        float64 `mapstructure:"wealth_cap_fraction"` // fraction of total supply, e.g. 0.05
	DailyTaxRate             float64 `mapstructure:"daily_tax_rate"`
	WelfareFloor             int64   `mapstructure:"welfare_floor"`
	VaultRedistributionRate  float64 `mapstructure:"vault_redistribution_rate"`
	VaultSurplusThreshold    int64   `mapstructure:"vault_surplus_threshold"`

	// Subsistence / stochastic life events
	DailyBurnAmount      int64   `mapstructure:"daily_burn_amount"`
	HeartAttackProbability float64 `mapstructure:"heart_attack_probability"`
	WindfallProbability    float64 `mapstructure:"windfall_probability"`
	WindfallAmount         int64   `mapstructure:"windfall_amount"`

	// Police / cases
	ColdCaseTimeoutDays  int     `mapstructure:"cold_case_timeout_days"`
	BaseArrestProb       float64 `mapstructure:"base_arrest_probability"`
	ConvictionFineAmount int64   `mapstructure:"conviction_fine_amount"`

	// Mint — guarded total_supply expansion, authorized by AdminToken.
	MintPeriodDays         int     `mapstructure:"mint_period_days"`
	MintPeriodCapFraction  float64 `mapstructure:"mint_period_cap_fraction"`

	// Gangs
	GangFormationProbability float64 `mapstructure:"gang_formation_probability"`
	GangExposureProbability  float64 `mapstructure:"gang_exposure_probability"`

	// Projects
	ProjectAbandonTimeoutDays int `mapstructure:"project_abandon_timeout_days"`

	// Messaging
	MessageTTL time.Duration `mapstructure:"message_ttl"`

	// Observer
	ObserverQueueSize int `mapstructure:"observer_queue_size"`

	// Economy
	TotalSupply int64 `mapstructure:"total_supply"`

	// Determinism / world generation
	RandomSeed  int64         `mapstructure:"random_seed"`
	WorldRadius int           `mapstructure:"world_radius"`
	DayInterval time.Duration `mapstructure:"day_interval"`
}

// Defaults mirrors the teacher's practice of hardcoded constants in
// cmd/worldsim/main.go, now expressed as the fallback layer under viper.
func Defaults() Config {
	return Config{
		LogLevel:                  "info",
		DatabasePath:              "aicity.db",
		HTTPAddr:                  ":8080",
		ObserverAddr:              ":8081",
		CORSOrigins:               []string{"http://localhost:5173"},
		ReasoningModel:            "claude-haiku-4-5-20251001",
		ReasoningTimeout:          20 * time.Second,
		ReasoningPoolSize:         4,
		ReasoningMaxPerMin:        50,
		StartingBalance:           100,
		NewbornRegistrationCredit: 20,
		WealthCapFraction:         0.05,
		DailyTaxRate:              0.02,
		WelfareFloor:              10,
		VaultRedistributionRate:  0.5,
		VaultSurplusThreshold:     50_000,
		DailyBurnAmount:           3,
		HeartAttackProbability:    0.0005,
		WindfallProbability:       0.002,
		WindfallAmount:            40,
		ColdCaseTimeoutDays:       14,
		BaseArrestProb:            0.3,
		ConvictionFineAmount:      150,
		MintPeriodDays:            30,
		MintPeriodCapFraction:     0.10,
		GangFormationProbability: 0.3,
		GangExposureProbability:  0.4,
		ProjectAbandonTimeoutDays: 10,
		MessageTTL:                72 * time.Hour,
		ObserverQueueSize:         64,
		TotalSupply:               1_000_000,
		RandomSeed:                0,
		WorldRadius:               16,
		DayInterval:               24 * time.Hour,
	}
}

// Load reads path (if non-empty and present) over the defaults, then applies
// AICITY_-prefixed environment variable overrides, matching viper's
// dot-to-underscore key mapping used throughout the example pack.
func Load(path string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AICITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: reading %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// WriteExample marshals cfg to YAML and writes it to path, used by cmd/aicity
// to leave a starter config file behind on a config-file-not-found run so
// the operator has every key to edit rather than hunting the source.
func WriteExample(path string, cfg Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal example: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: write example %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("observer_addr", cfg.ObserverAddr)
	v.SetDefault("cors_origins", cfg.CORSOrigins)
	v.SetDefault("reasoning_model", cfg.ReasoningModel)
	v.SetDefault("reasoning_timeout", cfg.ReasoningTimeout)
	v.SetDefault("reasoning_pool_size", cfg.ReasoningPoolSize)
	v.SetDefault("reasoning_max_per_min", cfg.ReasoningMaxPerMin)
	v.SetDefault("starting_balance", cfg.StartingBalance)
	v.SetDefault("newborn_registration_credit", cfg.NewbornRegistrationCredit)
	v.SetDefault("wealth_cap_fraction", cfg.WealthCapFraction)
	v.SetDefault("daily_tax_rate", cfg.DailyTaxRate)
	v.SetDefault("welfare_floor", cfg.WelfareFloor)
	v.SetDefault("vault_redistribution_rate", cfg.VaultRedistributionRate)
	v.SetDefault("vault_surplus_threshold", cfg.VaultSurplusThreshold)
	v.SetDefault("daily_burn_amount", cfg.DailyBurnAmount)
	v.SetDefault("heart_attack_probability", cfg.HeartAttackProbability)
	v.SetDefault("windfall_probability", cfg.WindfallProbability)
	v.SetDefault("windfall_amount", cfg.WindfallAmount)
	v.SetDefault("cold_case_timeout_days", cfg.ColdCaseTimeoutDays)
	v.SetDefault("base_arrest_probability", cfg.BaseArrestProb)
	v.SetDefault("conviction_fine_amount", cfg.ConvictionFineAmount)
	v.SetDefault("mint_period_days", cfg.MintPeriodDays)
	v.SetDefault("mint_period_cap_fraction", cfg.MintPeriodCapFraction)
	v.SetDefault("gang_formation_probability", cfg.GangFormationProbability)
	v.SetDefault("gang_exposure_probability", cfg.GangExposureProbability)
	v.SetDefault("project_abandon_timeout_days", cfg.ProjectAbandonTimeoutDays)
	v.SetDefault("message_ttl", cfg.MessageTTL)
	v.SetDefault("observer_queue_size", cfg.ObserverQueueSize)
	v.SetDefault("total_supply", cfg.TotalSupply)
	v.SetDefault("random_seed", cfg.RandomSeed)
	v.SetDefault("world_radius", cfg.WorldRadius)
	v.SetDefault("day_interval", cfg.DayInterval)
}
