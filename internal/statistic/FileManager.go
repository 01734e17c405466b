package statistic

import (
	"auditstat/internal/models"
	"auditstat/internal/providers"
	"auditstat/internal/statistic/interfaces"
	"auditstat/internal/structures"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

var ErrNoExport = errors.New("no export file")

// FileManager writes snapshots to disk and reads them back.
type FileManager struct {
	compressor interfaces.CompressorInterface
	compress   bool
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, compress bool, metrics providers.MetricsProviderInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		compress:   compress,
		metrics:    metrics,
		logger:     logger,
	}
}

// SaveToFile writes the snapshot through a temp file and a rename, so a
// reader never sees a half-written export.
func (f *FileManager) SaveToFile(fileName string, snapshot *models.Metrics) error {
	if snapshot == nil {
		return errors.New("nothing to export")
	}
	start := time.Now()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if f.compress {
		data, err = f.compressor.Compress(data)
		if err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(fileName), filepath.Base(fileName)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	if _, err = tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpName)
		return err
	}
	if err = tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpName)
		return err
	}
	if err = tmpFile.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err = os.Rename(tmpName, fileName); err != nil {
		os.Remove(tmpName)
		return err
	}

	f.metrics.ObserveExportDuration(time.Since(start))
	f.logger.Infof(providers.TypeExport, "Exported snapshot %s to %s (%d bytes)", snapshot.Digest, fileName, len(data))
	return nil
}

// LoadFromFile reads an export back. Compressed and plain exports are
// told apart by the zstd frame header.
func (f *FileManager) LoadFromFile(fileName string) (*models.Metrics, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoExport, fileName)
		}
		return nil, err
	}

	if isZstd(data) {
		data, err = f.compressor.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", fileName, err)
		}
	}

	var snapshot models.Metrics
	if err := json.Unmarshal(data, &snapshot); err != nil {
		f.logger.Warnf(providers.TypeExport, "Export %s is not a snapshot: %v", fileName, err)
		return nil, fmt.Errorf("decode %s: %w", fileName, err)
	}
	f.logger.Infof(providers.TypeExport, "Loaded snapshot %s from %s", snapshot.Digest, fileName)
	return &snapshot, nil
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// ProvideFileManager builds a FileManager from the export settings.
func ProvideFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) *FileManager {
	return NewFileManager(compressor, conf.Export.Compress, metrics, logger)
}
