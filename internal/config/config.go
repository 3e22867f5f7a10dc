package config

import (
	"fmt"
	"time"

	"github.com/lbsproxaudit/discovery-engine/internal/pkg/validator"
	"github.com/spf13/viper"
)

// EngineConfig bundles the tunables spec.md §6 enumerates for a discovery
// engine run, loaded the way the teacher loads its own config: a .env file
// layered under real environment variables via viper.
type EngineConfig struct {
	// GridSizeM is the terminal resolution of the cut search (spec.md §6
	// grid_size), in planar metres.
	GridSizeM float64 `validate:"gt=0"`
	// BinaryStopAreaM2 is the bisection loop's terminal area floor.
	BinaryStopAreaM2 float64 `validate:"gt=0"`
	// MinReduction is the relative-area convergence guard.
	MinReduction float64 `validate:"gt=0,lt=1"`
	// EC is the ring projection-error multiplier (spec.md §4.3 ring()).
	EC float64 `validate:"gt=0"`
	// RotationCooldown is how long the attacker pool blocks after a backup
	// refill (spec.md §4.6, default 10s).
	RotationCooldown time.Duration `validate:"gt=0"`
	// PostPlaceSleepMin/Max bound the settle-time sleep between consecutive
	// placements (spec.md §5, source uses 2-5s).
	PostPlaceSleepMin time.Duration `validate:"gt=0"`
	PostPlaceSleepMax time.Duration `validate:"gtefield=PostPlaceSleepMin"`
	// OracleRetryLimit is how many times an Unknown answer is retried on the
	// same attacker before rotation, so an attacker gets OracleRetryLimit+1
	// consecutive Unknown answers (spec.md §4.7, default 5).
	OracleRetryLimit int `validate:"gt=0"`
	// QueryLimit is the hard cap on attack_queries (spec.md §5).
	QueryLimit uint64 `validate:"gt=0"`
	// RestartCap bounds how many times the attacker pool may refill from
	// backup before the attack aborts fatally (spec.md §7).
	RestartCap int `validate:"gt=0"`
	// KMLDir and JSONDir are where snapshot KML and the terminal trace JSON
	// are written (spec.md §6 file formats).
	KMLDir  string `validate:"required"`
	JSONDir string `validate:"required"`
	// LogLevel selects the zap encoder/level, matching the teacher's own
	// LOG_LEVEL convention.
	LogLevel string
}

// Load reads EngineConfig from .env-backed environment variables, filling
// in the defaults spec.md §6 enumerates for anything left unset.
func Load() (*EngineConfig, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &EngineConfig{
		GridSizeM:         viper.GetFloat64("GRID_SIZE_M"),
		BinaryStopAreaM2:  viper.GetFloat64("BINARY_STOP_AREA_M2"),
		MinReduction:      viper.GetFloat64("MIN_REDUCTION"),
		EC:                viper.GetFloat64("EC"),
		RotationCooldown:  time.Duration(viper.GetInt("ROTATION_COOLDOWN_S")) * time.Second,
		PostPlaceSleepMin: time.Duration(viper.GetInt("POST_PLACE_SLEEP_MIN_S")) * time.Second,
		PostPlaceSleepMax: time.Duration(viper.GetInt("POST_PLACE_SLEEP_MAX_S")) * time.Second,
		OracleRetryLimit:  viper.GetInt("ORACLE_RETRY_LIMIT"),
		QueryLimit:        viper.GetUint64("QUERY_LIMIT"),
		RestartCap:        viper.GetInt("RESTART_CAP"),
		KMLDir:            viper.GetString("KML_DIR"),
		JSONDir:           viper.GetString("JSON_DIR"),
		LogLevel:          viper.GetString("LOG_LEVEL"),
	}

	applyDefaults(cfg)
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *EngineConfig) {
	if cfg.GridSizeM == 0 {
		cfg.GridSizeM = 20
	}
	if cfg.BinaryStopAreaM2 == 0 {
		cfg.BinaryStopAreaM2 = 100
	}
	if cfg.MinReduction == 0 {
		cfg.MinReduction = 0.01
	}
	if cfg.EC == 0 {
		cfg.EC = 2.5
	}
	if cfg.RotationCooldown == 0 {
		cfg.RotationCooldown = 10 * time.Second
	}
	if cfg.PostPlaceSleepMin == 0 {
		cfg.PostPlaceSleepMin = 2 * time.Second
	}
	if cfg.PostPlaceSleepMax == 0 {
		cfg.PostPlaceSleepMax = 5 * time.Second
	}
	if cfg.OracleRetryLimit == 0 {
		cfg.OracleRetryLimit = 5
	}
	if cfg.QueryLimit == 0 {
		cfg.QueryLimit = 500
	}
	if cfg.RestartCap == 0 {
		cfg.RestartCap = 10
	}
	if cfg.KMLDir == "" {
		cfg.KMLDir = "files/kml"
	}
	if cfg.JSONDir == "" {
		cfg.JSONDir = "files/json"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
