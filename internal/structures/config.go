package structures

import (
	"time"
	_ "time/tzdata"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type EngineConfig struct {
	Timezone     string        `yaml:"timezone" validate:"required"`
	ServiceLabel string        `yaml:"serviceLabel" validate:"required"`
	ServiceEmail string        `yaml:"serviceEmail" validate:"required|email"`
	ServiceName  string        `yaml:"serviceName" validate:"required"`
	ShortWindow  time.Duration `yaml:"shortWindow" validate:"required|min:1"`
	LongWindow   time.Duration `yaml:"longWindow" validate:"required|min:1"`
}

type IngestConfig struct {
	Dir         string `yaml:"dir" validate:"required"`
	MaxFileSize int64  `yaml:"maxFileSize"`
}

type ExportConfig struct {
	FilePath string `yaml:"filePath" validate:"required|unixPath"`
	Compress bool   `yaml:"compress"`
	Level    string `yaml:"level" validate:"in:fastest,default,better,best"`
}

type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

type Config struct {
	AppName string
	Debug   bool
	Path    string
	Engine  EngineConfig  `yaml:"engine"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Export  ExportConfig  `yaml:"export"`
	Watch   WatchConfig   `yaml:"watch"`
	Logger  LoggerConfig  `yaml:"logger"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Location resolves the engine time zone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.Engine.Timezone == "" || c.Engine.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
