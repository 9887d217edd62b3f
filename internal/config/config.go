package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Access      AccessConfig     `json:"access"`
	Upload      UploadConfig     `json:"upload"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AccessConfig carries the share-resolution policy knobs.
//
// LinkSharesVisibleToAll reproduces the historical behavior where any
// unexpired link share makes the file readable by (and listed for) every
// authenticated user, not only holders of the token. Flip it off to require
// the token on every link-based access.
type AccessConfig struct {
	LinkSharesVisibleToAll *bool `json:"link_shares_visible_to_all"`
}

type UploadConfig struct {
	MaxFileSizeBytes int64 `json:"max_file_size_bytes"`
	MaxFilesPerBatch int   `json:"max_files_per_batch"`
}

const (
	defaultMaxFileSize  = 10 << 20
	defaultMaxFileBatch = 10
)

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if cfg.Upload.MaxFileSizeBytes <= 0 {
		cfg.Upload.MaxFileSizeBytes = defaultMaxFileSize
	}
	if cfg.Upload.MaxFilesPerBatch <= 0 {
		cfg.Upload.MaxFilesPerBatch = defaultMaxFileBatch
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}

// LinkSharesVisibleToAll defaults to true, mirroring the long-standing
// listing behavior.
func (c AccessConfig) LinkVisibility() bool {
	if c.LinkSharesVisibleToAll == nil {
		return true
	}
	return *c.LinkSharesVisibleToAll
}
