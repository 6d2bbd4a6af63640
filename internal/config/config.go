// Package config loads the trellis server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL   string        `env:"TRELLIS_DATABASE_URL,required"`
	GRPCAddr      string        `env:"TRELLIS_GRPC_ADDR" envDefault:":9090"`
	HTTPAddr      string        `env:"TRELLIS_HTTP_ADDR" envDefault:":8080"`
	NATSURL       string        `env:"TRELLIS_NATS_URL"` // empty = no events
	SessionSecret string        `env:"TRELLIS_SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"TRELLIS_SESSION_TTL" envDefault:"720h"`

	// Backups run only when at least one destination is configured.
	BackupInterval   time.Duration `env:"TRELLIS_BACKUP_INTERVAL" envDefault:"1h"` // 0 = disabled
	BackupS3Bucket   string        `env:"TRELLIS_BACKUP_S3_BUCKET"`
	BackupS3Endpoint string        `env:"TRELLIS_BACKUP_S3_ENDPOINT"` // custom endpoint for MinIO
	BackupS3Region   string        `env:"TRELLIS_BACKUP_S3_REGION" envDefault:"us-east-1"`
	BackupS3Key      string        `env:"TRELLIS_BACKUP_S3_KEY" envDefault:"trellis/settings-{timestamp}.jsonl"`
	BackupGitRepo    string        `env:"TRELLIS_BACKUP_GIT_REPO"` // path to a local clone
	BackupGitFile    string        `env:"TRELLIS_BACKUP_GIT_FILE" envDefault:"settings.jsonl"`
	BackupGitBranch  string        `env:"TRELLIS_BACKUP_GIT_BRANCH" envDefault:"main"`
}

// Load parses the TRELLIS_* environment variables.
func Load() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("TRELLIS_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.BackupInterval < 0 {
		return nil, fmt.Errorf("TRELLIS_BACKUP_INTERVAL must not be negative, got %s", c.BackupInterval)
	}
	return &c, nil
}

// BackupEnabled reports whether the backup scheduler should run.
func (c *Config) BackupEnabled() bool {
	return c.BackupInterval > 0 && (c.BackupS3Bucket != "" || c.BackupGitRepo != "")
}
