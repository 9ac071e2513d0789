package main

import (
	"fmt"
	"os"
	"time"

	"codeduel/internal/archive"
	"codeduel/internal/challenge"
	"codeduel/internal/common/cache"
	"codeduel/internal/common/storage"
	"codeduel/internal/duel"
	"codeduel/internal/runtime"
	"codeduel/internal/sandbox"
	"codeduel/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// SandboxConfig wraps executor limits with startup behavior.
type SandboxConfig struct {
	sandbox.DockerConfig `yaml:",inline"`

	// PullImagesOnStart pre-pulls runtime images so the first duel does not
	// pay the pull latency.
	PullImagesOnStart bool `yaml:"pullImagesOnStart"`
}

// AppConfig holds the duel server configuration.
type AppConfig struct {
	Server    ServerConfig              `yaml:"server"`
	Logger    logger.Config             `yaml:"logger"`
	Redis     cache.RedisConfig         `yaml:"redis"`
	Sandbox   SandboxConfig             `yaml:"sandbox"`
	Generator challenge.GeneratorConfig `yaml:"generator"`
	Duel      duel.Config               `yaml:"duel"`
	MinIO     storage.MinIOConfig       `yaml:"minio"`
	Archive   archive.Config            `yaml:"archive"`
	// Languages adds to or overrides the built-in language catalog.
	Languages []runtime.Language `yaml:"languages"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	if cfg.Archive.Bucket != "" && cfg.MinIO.Endpoint == "" {
		return nil, fmt.Errorf("archive.bucket requires minio.endpoint")
	}
	for i, lang := range cfg.Languages {
		if lang.ID == "" || lang.Image == "" || lang.FileName == "" || lang.RunCommand == "" {
			return nil, fmt.Errorf("languages[%d]: id, image, fileName and runCommand are required", i)
		}
	}
	return &cfg, nil
}
