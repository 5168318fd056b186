package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Data locations
	DataPath   string `mapstructure:"DATA_PATH"`
	OutputPath string `mapstructure:"OUTPUT_PATH"`

	// Resolution cache
	ResolutionCacheFile string `mapstructure:"RESOLUTION_CACHE_FILE"`

	// Loader bounds
	RecentAnalysisFiles int `mapstructure:"RECENT_ANALYSIS_FILES"`
	MaxCSVFiles         int `mapstructure:"MAX_CSV_FILES"`

	// Scoring thresholds
	MinLineupAtBats      int `mapstructure:"MIN_LINEUP_AT_BATS"`
	MinInningAppearances int `mapstructure:"MIN_INNING_APPEARANCES"`

	// Scheduled refresh
	RefreshSchedule string `mapstructure:"REFRESH_SCHEDULE"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8090")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATA_PATH", "./data")
	viper.SetDefault("OUTPUT_PATH", "./data/weakspot_analysis")
	viper.SetDefault("RESOLUTION_CACHE_FILE", "pitcher_mapping_cache.json")
	viper.SetDefault("RECENT_ANALYSIS_FILES", 10)
	viper.SetDefault("MAX_CSV_FILES", 100)
	viper.SetDefault("MIN_LINEUP_AT_BATS", 3)
	viper.SetDefault("MIN_INNING_APPEARANCES", 2)
	viper.SetDefault("REFRESH_SCHEDULE", "0 6 * * *") // daily at 6 AM

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RosterFile returns the path to the master roster file.
func (c *Config) RosterFile() string {
	return filepath.Join(c.DataPath, "rosters.json")
}

// LineupDir returns the directory holding daily starting lineup files.
func (c *Config) LineupDir() string {
	return filepath.Join(c.DataPath, "lineups")
}

// CSVBackupDir returns the directory holding per-game CSV boxscore backups.
func (c *Config) CSVBackupDir() string {
	return filepath.Join(c.DataPath, "csv_backups")
}

// AnalysisDir returns the directory holding prior analysis outputs.
func (c *Config) AnalysisDir() string {
	return filepath.Join(c.DataPath, "analysis")
}

// PlayByPlayDir returns the directory holding per-game play-by-play files.
func (c *Config) PlayByPlayDir() string {
	return filepath.Join(c.DataPath, "playbyplay")
}
