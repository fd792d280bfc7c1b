package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mergebox/backend/domain"
)

// Config 全局配置
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Document DocumentConfig     `yaml:"document"`
	Sync     SyncConfig         `yaml:"sync"`
	Log      LogConfig          `yaml:"log"`
	Hops     []domain.HopSource `yaml:"hops"`
	Chain    []domain.ChainEdge `yaml:"chain"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DocumentConfig 路由文档位置
type DocumentConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig 定时合并配置
type SyncConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval 定时合并周期
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputPath string `yaml:"output_path"` // 日志文件路径，为空则仅输出到控制台
	MaxSize    int    `yaml:"max_size"`    // 单个日志文件大小(MB)
	MaxBackups int    `yaml:"max_backups"` // 保留的旧日志文件数量
	MaxAge     int    `yaml:"max_age"`     // 保留天数
	Compress   bool   `yaml:"compress"`    // 是否压缩
}

// Load 读取并校验配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Document.Path == "" {
		cfg.Document.Path = "data/routing.json"
	}
	if cfg.Sync.IntervalMinutes <= 0 {
		cfg.Sync.IntervalMinutes = 60
	}

	if len(cfg.Hops) > 3 {
		return nil, fmt.Errorf("at most 3 hops are supported, got %d", len(cfg.Hops))
	}
	seen := make(map[string]struct{}, len(cfg.Hops))
	for i, hop := range cfg.Hops {
		if hop.Name == "" {
			return nil, fmt.Errorf("hop %d has empty name", i)
		}
		if _, dup := seen[hop.Name]; dup {
			return nil, fmt.Errorf("duplicate hop name: %s", hop.Name)
		}
		seen[hop.Name] = struct{}{}
	}

	for i, edge := range cfg.Chain {
		if edge.Source == "" || edge.Target == "" {
			return nil, fmt.Errorf("chain edge %d has empty endpoint", i)
		}
	}

	return cfg, nil
}
