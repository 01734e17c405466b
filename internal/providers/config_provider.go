package providers

import (
	"auditstat/internal/structures"
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
)

const AppName = "AuditStat"

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.timezone", "Local")
	v.SetDefault("engine.serviceLabel", "SECO Reconciliation service")
	v.SetDefault("engine.serviceEmail", "service-account@system.internal")
	v.SetDefault("engine.serviceName", "System Service Account")
	v.SetDefault("engine.shortWindow", 7*24*time.Hour)
	v.SetDefault("engine.longWindow", 30*24*time.Hour)
	v.SetDefault("ingest.dir", ".")
	v.SetDefault("ingest.maxFileSize", 256<<20)
	v.SetDefault("export.filePath", "/tmp/auditstat.json.zst")
	v.SetDefault("export.compress", true)
	v.SetDefault("export.level", "default")
	v.SetDefault("watch.interval", 30*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "/tmp")
	v.SetDefault("cache.ttl", 5*time.Minute)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)

	v.BindEnv("engine.timezone", "AUDITSTAT_TIMEZONE")
	v.BindEnv("engine.serviceLabel", "AUDITSTAT_SERVICE_LABEL")
	v.BindEnv("ingest.dir", "AUDITSTAT_INGEST_DIR")
	v.BindEnv("export.filePath", "AUDITSTAT_EXPORT_PATH")
	v.BindEnv("logger.level", "AUDITSTAT_LOG_LEVEL")
	v.BindEnv("logger.dir", "AUDITSTAT_LOG_DIR")
	v.BindEnv("cache.enabled", "AUDITSTAT_CACHE_ENABLED")
	v.BindEnv("cache.size", "AUDITSTAT_CACHE_SIZE")
	v.BindEnv("metrics.enabled", "AUDITSTAT_METRICS_ENABLED")

	if flags.ConfigPath != "" {
		filename := filepath.Base(flags.ConfigPath)
		v.AddConfigPath(filepath.Dir(flags.ConfigPath))
		v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	err := v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
