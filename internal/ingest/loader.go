package ingest

import (
	"auditstat/internal/models"
	"auditstat/internal/providers"
	"auditstat/internal/structures"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/zip"
)

var (
	ErrNoRows       = errors.New("no rows ingested")
	ErrFileTooLarge = errors.New("file exceeds size limit")
	ErrUnsupported  = errors.New("unsupported file type")
)

// Batch is the outcome of one ingestion. Warnings holds per-file failures
// that did not stop the batch.
type Batch struct {
	Rows     []models.RawRow
	Files    []string
	Warnings error
}

type LoaderInterface interface {
	Load(root string) (*Batch, error)
	Parse(name string, data []byte) ([]models.RawRow, error)
}

type Loader struct {
	maxFileSize int64
	logger      providers.Logger
}

func NewLoader(conf *structures.Config, logger providers.Logger) LoaderInterface {
	return &Loader{
		maxFileSize: conf.Ingest.MaxFileSize,
		logger:      logger,
	}
}

type source struct {
	name string
	size int64
	open func() (io.ReadCloser, error)
}

// Load reads a directory tree or a .zip archive. It fails only when nothing
// at all could be read.
func (l *Loader) Load(root string) (*Batch, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", root, err)
	}

	var sources []source
	var closer io.Closer
	switch {
	case info.IsDir():
		sources, err = dirSources(root)
	case strings.EqualFold(filepath.Ext(root), ".zip"):
		var zr *zip.ReadCloser
		zr, err = zip.OpenReader(root)
		if err == nil {
			closer = zr
			sources = zipSources(&zr.Reader)
		}
	default:
		sources = []source{fileSource(root, info)}
	}
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", root, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].name < sources[j].name })

	batch := &Batch{}
	var warnings *multierror.Error
	for _, src := range sources {
		rows, err := l.read(src)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				l.logger.Debugf(providers.TypeIngest, "Skipping %s", src.name)
				continue
			}
			l.logger.Warnf(providers.TypeIngest, "Failed to read %s: %v", src.name, err)
			warnings = multierror.Append(warnings, fmt.Errorf("%s: %w", src.name, err))
			continue
		}
		l.logger.Infof(providers.TypeIngest, "Read %d rows from %s", len(rows), src.name)
		batch.Files = append(batch.Files, src.name)
		batch.Rows = append(batch.Rows, rows...)
	}
	batch.Warnings = warnings.ErrorOrNil()

	if len(batch.Rows) == 0 {
		if batch.Warnings != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoRows, batch.Warnings)
		}
		return nil, ErrNoRows
	}
	return batch, nil
}

func (l *Loader) read(src source) ([]models.RawRow, error) {
	if !supported(src.name) {
		return nil, ErrUnsupported
	}
	if l.maxFileSize > 0 && src.size > l.maxFileSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, src.size, l.maxFileSize)
	}
	rc, err := src.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if l.maxFileSize > 0 {
		r = io.LimitReader(rc, l.maxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if l.maxFileSize > 0 && int64(len(data)) > l.maxFileSize {
		return nil, ErrFileTooLarge
	}
	return l.Parse(src.name, data)
}

// Parse decodes one file. Rows are tagged with the base file name, which is
// what classification keys on.
func (l *Loader) Parse(name string, data []byte) ([]models.RawRow, error) {
	base := path.Base(filepath.ToSlash(name))
	switch strings.ToLower(path.Ext(base)) {
	case ".json":
		return parseJSON(base, data)
	case ".csv":
		return parseCSV(base, data)
	}
	return nil, ErrUnsupported
}

func parseJSON(source string, data []byte) ([]models.RawRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	switch v := doc.(type) {
	case []any:
		rows := make([]models.RawRow, 0, len(v))
		for i, item := range v {
			rows = append(rows, models.RawRow{Source: source, Ordinal: i, Fields: asFields(item)})
		}
		return rows, nil
	default:
		return []models.RawRow{{Source: source, Ordinal: 0, Fields: asFields(v)}}, nil
	}
}

func asFields(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}

func parseCSV(source string, data []byte) ([]models.RawRow, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return []models.RawRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows []models.RawRow
	for i := 0; ; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", i+2, err)
		}
		if isBlank(record) {
			i--
			continue
		}
		fields := make(map[string]any, len(header))
		for col, key := range header {
			if col >= len(record) || key == "" {
				continue
			}
			if v := typedValue(record[col]); v != nil {
				fields[key] = v
			}
		}
		rows = append(rows, models.RawRow{Source: source, Ordinal: i, Fields: fields})
	}
	return rows, nil
}

// typedValue applies dynamic typing to one CSV cell: booleans and plain
// numbers are converted, everything else stays a string. Numbers with a
// leading zero, or integers wider than 15 digits, are kept as strings so ids
// survive.
func typedValue(s string) any {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	case len(s) > 1 && s[0] == '0' && s[1] != '.':
		return s
	case !strings.ContainsAny(s[:1], "-0123456789"):
		return s
	case isLongDigits(s):
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// isLongDigits reports an integer cell too wide for float64 to hold exactly.
func isLongDigits(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if len(digits) <= 15 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func supported(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".csv":
		return true
	}
	return false
}

func hidden(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if strings.HasPrefix(part, ".") || part == "__MACOSX" {
			return true
		}
	}
	return false
}

func fileSource(p string, info fs.FileInfo) source {
	return source{
		name: filepath.Base(p),
		size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(p) },
	}
}

func dirSources(root string) ([]source, error) {
	var out []source
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		if d.IsDir() {
			if rel != "." && hidden(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		src := fileSource(p, info)
		src.name = filepath.ToSlash(rel)
		out = append(out, src)
		return nil
	})
	return out, err
}

func zipSources(zr *zip.Reader) []source {
	out := make([]source, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || hidden(f.Name) {
			continue
		}
		out = append(out, source{
			name: f.Name,
			size: int64(f.UncompressedSize64),
			open: f.Open,
		})
	}
	return out
}
