package internal

import (
	"auditstat/internal/ingest"
	"auditstat/internal/models"
	"auditstat/internal/providers"
	"auditstat/internal/services"
	"auditstat/internal/statistic"
	"auditstat/internal/statistic/interfaces"
	"auditstat/internal/structures"
	"context"
	"fmt"
)

type App struct {
	Conf        *structures.Config
	logger      providers.Logger
	loader      ingest.LoaderInterface
	service     services.UsageServiceInterface
	fileManager *statistic.FileManager
	watcher     interfaces.WatcherInterface
	metrics     providers.MetricsProviderInterface
}

func NewApp(
	conf *structures.Config,
	logger providers.Logger,
	loader ingest.LoaderInterface,
	service services.UsageServiceInterface,
	fileManager *statistic.FileManager,
	watcher interfaces.WatcherInterface,
	metrics providers.MetricsProviderInterface,
) *App {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	return &App{
		Conf:        conf,
		logger:      logger,
		loader:      loader,
		service:     service,
		fileManager: fileManager,
		watcher:     watcher,
		metrics:     metrics,
	}
}

// Report ingests the configured input once, computes a snapshot and
// exports it when an export path is configured.
func (a *App) Report(export bool) (*models.Metrics, error) {
	batch, err := a.loader.Load(a.Conf.Ingest.Dir)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.Conf.Ingest.Dir, err)
	}
	if batch.Warnings != nil {
		a.logger.Warnf(providers.TypeIngest, "Ingest warnings: %v", batch.Warnings)
	}
	a.logger.Infof(providers.TypeIngest, "Read %d rows from %d files", len(batch.Rows), len(batch.Files))

	m, err := a.service.Compute(batch.Rows)
	if err != nil {
		return nil, err
	}
	if export {
		if err := a.fileManager.SaveToFile(a.Conf.Export.FilePath, m); err != nil {
			return m, fmt.Errorf("export: %w", err)
		}
		if err := a.metrics.WriteTextfile(a.Conf.Metrics.Textfile); err != nil {
			a.logger.Warnf(providers.TypeExport, "Could not write metrics textfile: %v", err)
		}
	}
	return m, nil
}

// Restore publishes the last exported snapshot instead of recomputing.
func (a *App) Restore() (*models.Metrics, error) {
	m, err := a.fileManager.LoadFromFile(a.Conf.Export.FilePath)
	if err != nil {
		return nil, err
	}
	a.service.Publish(m)
	return m, nil
}

// Drill answers a drill-down against the current snapshot, computing or
// restoring one first when none is published yet.
func (a *App) Drill(period models.Period, fromExport bool) ([]models.Participant, error) {
	if a.service.Current() == nil {
		var err error
		if fromExport {
			_, err = a.Restore()
		} else {
			_, err = a.Report(false)
		}
		if err != nil {
			return nil, err
		}
	}
	return a.service.DrillDown(period)
}

// Watch recomputes on every input change until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	if err := a.watcher.Init(); err != nil {
		return err
	}
	<-ctx.Done()
	a.logger.Infof(providers.TypeApp, "Shutdown signal received")
	a.watcher.Stop()

	if err := a.watcher.Export(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Final export failed: %s", err)
		return err
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}

func (a *App) Close() {
	a.fileManager.Close()
	a.logger.Close()
}
