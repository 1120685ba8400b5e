package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"duomatch_server/models"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first file found wins
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/duomatch/config.yaml",
}

// ConfigPathEnvVar overrides the config file path
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Tables: TablesConfig{
			Profiles: models.UserProfilesTable,
			Surveys:  models.SurveyResponsesTable,
			Matches:  models.WeeklyMatchesTable,
		},
		Matching: MatchingConfig{
			MinScore:         60,
			AnchorWeekday:    "Tuesday",
			FetchConcurrency: 8,
		},
		Archive: ArchiveConfig{
			Enabled:    false,
			Prefix:     "weekly-matches/",
			PresignTTL: 15 * time.Minute,
		},
		Schedule: ScheduleConfig{
			Enabled: false, // the weekly run is normally triggered from outside
			Spec:    "0 21 * * 2",
		},
		Log: LogConfig{
			Mode: "development",
		},
	}
}

// Load layers defaults, an optional YAML file and the environment, then validates.
// Precedence: env > file > defaults.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.allowed_origins",
}

// processSliceFields splits comma-separated env values for slice settings
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			if err := k.Set(path, parts); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	"port":            "server.port",
	"allowed_origins": "server.allowed_origins",

	"aws_region":        "aws.region",
	"dynamodb_endpoint": "aws.endpoint",

	"profiles_table": "tables.profiles",
	"surveys_table":  "tables.surveys",
	"matches_table":  "tables.matches",

	"match_min_score":          "matching.min_score",
	"match_anchor_weekday":     "matching.anchor_weekday",
	"survey_fetch_concurrency": "matching.fetch_concurrency",

	"archive_enabled":     "archive.enabled",
	"s3_bucket_name":      "archive.bucket",
	"archive_prefix":      "archive.prefix",
	"archive_presign_ttl": "archive.presign_ttl",

	"schedule_enabled": "schedule.enabled",
	"schedule_spec":    "schedule.spec",
	"schedule_force":   "schedule.force",

	"log_mode": "log.mode",
}

// envTransformFunc maps known environment variables onto config paths.
// Unknown variables map to "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
