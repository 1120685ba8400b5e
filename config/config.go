package config

import (
	"errors"
	"fmt"
	"time"

	"duomatch_server/matching"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	AWS      AWSConfig      `koanf:"aws"`
	Tables   TablesConfig   `koanf:"tables"`
	Matching MatchingConfig `koanf:"matching"`
	Archive  ArchiveConfig  `koanf:"archive"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Port           int      `koanf:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `koanf:"allowed_origins" validate:"min=1"`
}

type AWSConfig struct {
	Region   string `koanf:"region" validate:"required"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"` // local DynamoDB / S3 emulators
}

// TablesConfig names the DynamoDB tables
type TablesConfig struct {
	Profiles string `koanf:"profiles" validate:"required"`
	Surveys  string `koanf:"surveys" validate:"required"`
	Matches  string `koanf:"matches" validate:"required"`
}

type MatchingConfig struct {
	MinScore         int    `koanf:"min_score" validate:"min=0,max=100"`
	AnchorWeekday    string `koanf:"anchor_weekday" validate:"required"`
	FetchConcurrency int    `koanf:"fetch_concurrency" validate:"min=1,max=64"`
}

// ArchiveConfig controls the S3 snapshot written after each run
type ArchiveConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Bucket     string        `koanf:"bucket"`
	Prefix     string        `koanf:"prefix"`
	PresignTTL time.Duration `koanf:"presign_ttl"`
}

// ScheduleConfig is the optional in-process weekly trigger
type ScheduleConfig struct {
	Enabled bool   `koanf:"enabled"`
	Spec    string `koanf:"spec" validate:"required_if=Enabled true"`
	Force   bool   `koanf:"force"`
}

type LogConfig struct {
	Mode string `koanf:"mode" validate:"oneof=development production"`
}

var validate = validator.New()

// Validate runs the struct tags and then the checks tags cannot express
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := matching.ParseWeekday(c.Matching.AnchorWeekday); err != nil {
		return fmt.Errorf("matching.anchor_weekday: %w", err)
	}
	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Spec); err != nil {
			return fmt.Errorf("schedule.spec: %w", err)
		}
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return errors.New("archive.bucket is required when archive is enabled")
	}
	return nil
}

// Anchor is the parsed cycle weekday. Only valid after Validate.
func (c *Config) Anchor() time.Weekday {
	d, err := matching.ParseWeekday(c.Matching.AnchorWeekday)
	if err != nil {
		return matching.DefaultAnchor
	}
	return d
}
