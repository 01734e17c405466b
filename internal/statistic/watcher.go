package statistic

import (
	"auditstat/internal/ingest"
	"auditstat/internal/providers"
	"auditstat/internal/services"
	"auditstat/internal/statistic/interfaces"
	"auditstat/internal/structures"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
)

const defaultWatchInterval = 30 * time.Second

// Watcher re-reads the input directory on a schedule and recomputes the
// snapshot whenever the input digest changes.
type Watcher struct {
	config      *structures.Config
	logger      providers.Logger
	loader      ingest.LoaderInterface
	service     services.UsageServiceInterface
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex

	lastDigest atomic.String
	runs       atomic.Int64
}

func (w *Watcher) Init() error {
	interval := w.config.Watch.Interval
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	if _, err := w.Tick(); err != nil {
		return err
	}

	w.cron = gron.New()
	w.cron.AddFunc(gron.Every(interval), func() {
		if _, err := w.Tick(); err != nil {
			w.logger.Errorf(providers.TypeApp, "Watch cycle failed: %v", err)
		}
	})
	w.cron.Start()
	w.logger.Infof(providers.TypeApp, "Watching %s every %s", w.config.Ingest.Dir, interval)
	return nil
}

func (w *Watcher) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Tick runs one cycle. It reports whether a new snapshot was published.
func (w *Watcher) Tick() (bool, error) {
	w.opsMu.Lock()
	defer w.opsMu.Unlock()

	batch, err := w.loader.Load(w.config.Ingest.Dir)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", w.config.Ingest.Dir, err)
	}
	if batch.Warnings != nil {
		w.logger.Warnf(providers.TypeIngest, "Ingest warnings: %v", batch.Warnings)
	}

	digest, err := services.Digest(batch.Rows)
	if err != nil {
		return false, err
	}
	if digest == w.lastDigest.Load() {
		w.logger.Debugf(providers.TypeApp, "Input unchanged (%s), skipping", digest)
		return false, nil
	}

	if _, err := w.service.Compute(batch.Rows); err != nil {
		return false, err
	}
	w.lastDigest.Store(digest)
	w.runs.Inc()

	if err := w.exportLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Export writes the current snapshot and, when configured, the metrics textfile.
func (w *Watcher) Export() error {
	w.opsMu.Lock()
	defer w.opsMu.Unlock()
	return w.exportLocked()
}

func (w *Watcher) exportLocked() error {
	snapshot := w.service.Current()
	if snapshot == nil {
		return errors.New("no snapshot to export")
	}
	if err := w.fileManager.SaveToFile(w.config.Export.FilePath, snapshot); err != nil {
		w.logger.Errorf(providers.TypeExport, "Error while exporting snapshot: %s", err)
		return err
	}
	if err := w.metrics.WriteTextfile(w.config.Metrics.Textfile); err != nil {
		w.logger.Warnf(providers.TypeExport, "Could not write metrics textfile: %v", err)
	}
	return nil
}

// Runs is the number of recomputations performed so far.
func (w *Watcher) Runs() int64 {
	return w.runs.Load()
}

func NewWatcher(
	config *structures.Config,
	logger providers.Logger,
	loader ingest.LoaderInterface,
	service services.UsageServiceInterface,
	fileManager *FileManager,
	metrics providers.MetricsProviderInterface,
) interfaces.WatcherInterface {
	return &Watcher{
		config:      config,
		logger:      logger,
		loader:      loader,
		service:     service,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
