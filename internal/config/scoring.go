package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ScoringConfig holds the tunable parameters of the prioritization and
// escalation engine. Weights are percentage points; they are summed as
// configured and are not required to normalize to 100.
type ScoringConfig struct {
	ValueWeight int            `mapstructure:"valueWeight"`
	TimeWeight  int            `mapstructure:"timeWeight"`
	CountWeight int            `mapstructure:"countWeight"`
	TypeWeights map[string]int `mapstructure:"typeWeights"`

	// StatusWeights keys the qualitative collection status of a unit:
	// critico, inadimplente, negociando, acordo.
	StatusWeights map[string]int `mapstructure:"statusWeights"`

	// HighPriorityThreshold is the open amount (valor minimo de alta
	// prioridade) at which the value component saturates.
	HighPriorityThreshold float64 `mapstructure:"highPriorityThreshold"`

	// EscalationThresholds are strictly increasing days-overdue bounds;
	// level i covers (threshold[i-1], threshold[i]].
	EscalationThresholds []int `mapstructure:"escalationThresholds"`

	MaxAttemptsPerLevel int   `mapstructure:"maxAttemptsPerLevel"`
	AutoActionLevels    []int `mapstructure:"autoActionLevels"`

	BlockAfterDays         int     `mapstructure:"blockAfterDays"`
	PenaltyPercent         float64 `mapstructure:"penaltyPercent"`
	MonthlyInterestPercent float64 `mapstructure:"monthlyInterestPercent"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ValueWeight: 40,
		TimeWeight:  30,
		CountWeight: 10,
		TypeWeights: map[string]int{
			"royalty":          10,
			"fundo_propaganda": 8,
			"produto":          5,
			"outro":            3,
		},
		StatusWeights: map[string]int{
			"critico":      15,
			"inadimplente": 10,
			"negociando":   5,
			"acordo":       2,
		},
		HighPriorityThreshold:  5000,
		EscalationThresholds:   []int{5, 15, 30, 45, 60},
		MaxAttemptsPerLevel:    3,
		AutoActionLevels:       []int{1, 2},
		BlockAfterDays:         30,
		PenaltyPercent:         2,
		MonthlyInterestPercent: 1,
	}
}

// IsAutoActionLevel reports whether the dispatcher may act without a human.
func (c ScoringConfig) IsAutoActionLevel(level int) bool {
	for _, l := range c.AutoActionLevels {
		if l == level {
			return true
		}
	}
	return false
}

// ScoringConfigHolder serves the current scoring parameters, hot-reloaded
// from a mounted yml file with hardcoded defaults as fallback.
type ScoringConfigHolder struct {
	current atomic.Value // holds ScoringConfig
}

func NewScoringConfigHolder() (*ScoringConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("scoring")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/cobranca/config") // Volume-mounted config
	v.AddConfigPath("/etc/cobranca")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("COBRANCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultScoringConfig()
		v.SetDefault("scoring.valueWeight", defaults.ValueWeight)
		v.SetDefault("scoring.timeWeight", defaults.TimeWeight)
		v.SetDefault("scoring.countWeight", defaults.CountWeight)
		v.SetDefault("scoring.typeWeights", defaults.TypeWeights)
		v.SetDefault("scoring.statusWeights", defaults.StatusWeights)
		v.SetDefault("scoring.highPriorityThreshold", defaults.HighPriorityThreshold)
		v.SetDefault("scoring.escalationThresholds", defaults.EscalationThresholds)
		v.SetDefault("scoring.maxAttemptsPerLevel", defaults.MaxAttemptsPerLevel)
		v.SetDefault("scoring.autoActionLevels", defaults.AutoActionLevels)
		v.SetDefault("scoring.blockAfterDays", defaults.BlockAfterDays)
		v.SetDefault("scoring.penaltyPercent", defaults.PenaltyPercent)
		v.SetDefault("scoring.monthlyInterestPercent", defaults.MonthlyInterestPercent)
	}

	var cfg ScoringConfig
	if err := v.UnmarshalKey("scoring", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateScoringConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ScoringConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ScoringConfig
		if err := v.UnmarshalKey("scoring", &updated); err != nil {
			log.Printf("[scoring-config] reload failed: %v", err)
			return
		}
		if err := ValidateScoringConfig(updated); err != nil {
			log.Printf("[scoring-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[scoring-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ScoringConfigHolder) Get() ScoringConfig {
	return h.current.Load().(ScoringConfig)
}

// NewStaticScoringHolder wraps a fixed config, used by tests.
func NewStaticScoringHolder(cfg ScoringConfig) *ScoringConfigHolder {
	holder := &ScoringConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func ValidateScoringConfig(cfg ScoringConfig) error {
	if cfg.ValueWeight < 0 || cfg.TimeWeight < 0 || cfg.CountWeight < 0 {
		return errors.New("scoring weights must not be negative")
	}
	if cfg.HighPriorityThreshold <= 0 {
		return errors.New("highPriorityThreshold must be positive")
	}
	if len(cfg.EscalationThresholds) != 5 {
		return fmt.Errorf("escalationThresholds must have 5 entries, got %d", len(cfg.EscalationThresholds))
	}
	for i := 1; i < len(cfg.EscalationThresholds); i++ {
		if cfg.EscalationThresholds[i] <= cfg.EscalationThresholds[i-1] {
			return errors.New("escalationThresholds must be strictly increasing")
		}
	}
	if cfg.MaxAttemptsPerLevel < 1 {
		return errors.New("maxAttemptsPerLevel must be at least 1")
	}
	for _, l := range cfg.AutoActionLevels {
		if l < 1 || l > 5 {
			return fmt.Errorf("autoActionLevels entry %d out of range", l)
		}
	}
	return nil
}
