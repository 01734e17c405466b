package services

import (
	"auditstat/internal/models"
	"auditstat/internal/providers"
	"auditstat/internal/structures"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
	"go.uber.org/atomic"
)

var (
	ErrComputationFailed = errors.New("metrics computation failed")
	ErrNoSnapshot        = errors.New("no snapshot available")
)

// Clock returns the reference time of a run.
type Clock func() time.Time

func SystemClock() Clock { return time.Now }

type UsageServiceInterface interface {
	Compute(rows []models.RawRow) (*models.Metrics, error)
	Current() *models.Metrics
	Publish(m *models.Metrics)
	DrillDown(period models.Period) ([]models.Participant, error)
}

// UsageService runs full passes and publishes each finished snapshot
// atomically. Readers either see the previous snapshot or the new one.
type UsageService struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	cache   providers.CacheProviderInterface
	clock   Clock

	current atomic.Pointer[models.Metrics]
}

func NewUsageService(
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	cache providers.CacheProviderInterface,
	clock Clock,
) UsageServiceInterface {
	if clock == nil {
		clock = SystemClock()
	}
	return &UsageService{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		cache:   cache,
		clock:   clock,
	}
}

func (s *UsageService) Compute(rows []models.RawRow) (m *models.Metrics, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("%w: panic: %v", ErrComputationFailed, r)
		}
		s.metrics.ObserveComputeDuration(time.Since(start))
		if err != nil {
			s.metrics.IncComputations("error")
			s.logger.Errorf(providers.TypeEngine, "Computation failed: %v", err)
			return
		}
		s.metrics.IncComputations("ok")
	}()

	m, err = s.build(rows)
	if err != nil {
		return nil, err
	}

	s.Publish(m)
	s.logger.Infof(providers.TypeEngine, "Snapshot %s published: %d users, %d conversations, %d projects",
		m.Digest, m.Totals.Users, m.Totals.Conversations, m.Totals.Projects)
	return m, nil
}

func (s *UsageService) build(rows []models.RawRow) (*models.Metrics, error) {
	short, long := s.conf.Engine.ShortWindow, s.conf.Engine.LongWindow
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("%w: window lengths must be positive (short=%s, long=%s)", ErrComputationFailed, short, long)
	}

	now := s.clock().In(s.conf.Location())
	digest, err := Digest(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComputationFailed, err)
	}

	normalizer := NewNormalizer(s.conf, now)
	records := make([]*models.ActivityRecord, 0, len(rows))
	diag := models.Diagnostics{RowsIn: len(rows)}
	for _, row := range rows {
		rec := normalizer.Normalize(row)
		if rec == nil {
			diag.RowsDropped++
			continue
		}
		if rec.TimestampFallback && rec.Kind != models.KindUserRoster {
			diag.TimestampFallbacks++
			s.logger.Debugf(providers.TypeEngine, "No usable timestamp in %s row %d, using now", row.Source, row.Ordinal)
		}
		if rec.MetadataMalformed {
			diag.MalformedMetadata++
			s.logger.Debugf(providers.TypeEngine, "Malformed actor metadata in %s row %d", row.Source, row.Ordinal)
		}
		records = append(records, rec)
	}

	resolver := NewIdentityResolver(s.conf)
	resolver.Seed(records)
	for _, rec := range records {
		resolver.Resolve(rec)
	}
	stats := resolver.Stats()
	diag.SyntheticRecords = stats.Synthetic
	diag.ServiceRecords = stats.Service

	index := models.NewIdentityIndex()
	agg := NewAggregator(index).Aggregate(records)
	cutoffs := NewCutoffs(now, short, long)
	win := NewWindowCalculator(index, cutoffs).Calculate(records, resolver)

	users := resolver.Profiles()
	realUsers := make([]*models.UserProfile, 0, len(users))
	for _, p := range users {
		if !p.IsServiceAccount {
			realUsers = append(realUsers, p)
		}
	}

	perKind := make(map[models.SourceKind]int, 4)
	conversations := make([]models.ActivityRecord, 0)
	for _, rec := range records {
		perKind[rec.Kind]++
		if rec.Kind == models.KindConversation {
			conversations = append(conversations, *rec)
		}
	}
	for _, k := range []models.SourceKind{models.KindUserRoster, models.KindConversation, models.KindProject, models.KindOther} {
		s.metrics.SetRecordsTotal(k.String(), perKind[k])
	}
	s.metrics.SetProfilesTotal(len(users), len(realUsers))

	if diag.SyntheticRecords > 0 || diag.TimestampFallbacks > 0 || diag.MalformedMetadata > 0 {
		s.logger.Warnf(providers.TypeEngine, "Recovered rows: %d synthetic identities, %d timestamp fallbacks, %d malformed metadata",
			diag.SyntheticRecords, diag.TimestampFallbacks, diag.MalformedMetadata)
	}

	return &models.Metrics{
		Digest:              digest,
		ComputedAt:          now,
		Cutoffs:             cutoffs,
		Users:               users,
		RealUsers:           realUsers,
		Daily:               agg.Daily,
		Weekly:              agg.Weekly,
		DailyUsers:          agg.DailyUsers,
		WeeklyUsers:         agg.WeeklyUsers,
		DailyConversations:  agg.DailyConversations,
		WeeklyConversations: agg.WeeklyConversations,
		DailyProjects:       agg.DailyProjects,
		Totals:              win.Totals,
		Windows:             win.Windows,
		Projects:            win.Projects,
		UserConversations:   win.UserConversations,
		DayToWeek:           agg.DayToWeek,
		WeekToDays:          agg.WeekToDays,
		HasConversationData: perKind[models.KindConversation] > 0,
		HasProjectData:      perKind[models.KindProject] > 0,
		HasUserData:         perKind[models.KindUserRoster] > 0,
		Conversations:       conversations,
		Diagnostics:         diag,
	}, nil
}

func (s *UsageService) Current() *models.Metrics {
	return s.current.Load()
}

// Publish installs a snapshot computed elsewhere, e.g. loaded from an export.
func (s *UsageService) Publish(m *models.Metrics) {
	if m == nil {
		return
	}
	s.current.Store(m)
	if n := s.cache.Len(); n > 0 {
		s.cache.Clear()
		s.logger.Debugf(providers.TypeEngine, "Dropped %d cached drill-downs", n)
	}
}

func (s *UsageService) DrillDown(period models.Period) ([]models.Participant, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	m := s.current.Load()
	if m == nil {
		return nil, ErrNoSnapshot
	}

	key := m.Digest + ":" + strconv.FormatInt(m.ComputedAt.UnixNano(), 10) + ":" + period.String()
	if raw, ok := s.cache.Get(key); ok {
		var cached []models.Participant
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	out, err := DrillDown(m, period)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		s.cache.Set(key, raw)
	} else {
		s.logger.Warnf(providers.TypeEngine, "Could not cache drill-down %s: %v", period, err)
	}
	return out, nil
}

// Digest fingerprints a row collection. Map keys are encoded in sorted
// order, so equal inputs always hash equally.
func Digest(rows []models.RawRow) (string, error) {
	h := xxhash.New()
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("digest row %d of %s: %w", row.Ordinal, row.Source, err)
		}
		_, _ = h.Write(raw)
		_, _ = h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
