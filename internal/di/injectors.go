//go:build wireinject
// +build wireinject

package di

import (
	"auditstat/internal"
	"auditstat/internal/ingest"
	"auditstat/internal/providers"
	"auditstat/internal/services"
	"auditstat/internal/statistic"
	"auditstat/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		services.SystemClock,
		services.NewUsageService,
		ingest.NewLoader,
		statistic.NewZstdCompressor,
		statistic.ProvideFileManager,
		statistic.NewWatcher,
		internal.NewApp,
	)

	return nil, nil
}
