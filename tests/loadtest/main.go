package main

import (
	"auditstat/internal/ingest"
	"auditstat/internal/models"
	"auditstat/internal/providers"
	"auditstat/internal/services"
	"auditstat/internal/structures"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	numWorkers       = 8
	testDuration     = 10 * time.Second
	numUsers         = 500
	numConversations = 20000
	numProjects      = 800
	numAuditRows     = 5000
	historyDays      = 90
)

var events = []string{"login", "file_uploaded", "conversation_created", "project_created", "settings_changed"}

type result struct {
	op      string
	latency time.Duration
	err     bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== AuditStat Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Users: %d | Conversations: %d | Projects: %d | Audit rows: %d\n\n",
		numUsers, numConversations, numProjects, numAuditRows)

	dir, err := os.MkdirTemp("", "auditstat-load-*")
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	defer os.RemoveAll(dir)

	now := time.Now().UTC()
	fmt.Print("Generating export... ")
	if err := generate(dir, now, rand.New(rand.NewSource(1))); err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	fmt.Println("OK")

	conf := &structures.Config{
		Engine: structures.EngineConfig{
			Timezone:     "UTC",
			ServiceLabel: "SECO Reconciliation service",
			ServiceEmail: "service-account@system.internal",
			ServiceName:  "System Service Account",
			ShortWindow:  7 * 24 * time.Hour,
			LongWindow:   30 * 24 * time.Hour,
		},
		Ingest: structures.IngestConfig{Dir: dir},
		Cache:  structures.CacheConfig{Enabled: true, Size: 16, TTL: time.Minute},
	}
	logger := providers.NewNopLogger()
	metrics := providers.NewMetricsProvider(conf)

	batch, err := ingest.NewLoader(conf, logger).Load(dir)
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	fmt.Printf("Loaded %d rows from %d files\n", len(batch.Rows), len(batch.Files))

	// Phase 1: independent full runs, one service per worker
	fmt.Println("\n--- Phase 1: Concurrent independent computations ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		svc := services.NewUsageService(conf, logger, metrics, providers.NewCacheProvider(conf, logger), services.SystemClock())
		start := time.Now()
		_, err := svc.Compute(batch.Rows)
		return result{"compute", time.Since(start), err != nil}
	})

	// Phase 2: drill-downs against one published snapshot while it is republished
	shared := services.NewUsageService(conf, logger, metrics, providers.NewInstrumentedCacheProvider(conf, logger, metrics), services.SystemClock())
	snapshot, err := shared.Compute(batch.Rows)
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	fmt.Println("\n--- Phase 2: Drill-down reads (95% drill, 5% republish) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		start := time.Now()
		if rng.Float64() < 0.05 {
			shared.Publish(snapshot)
			return result{"publish", time.Since(start), false}
		}
		if rng.Float64() < 0.5 && len(snapshot.Weekly) > 0 {
			w := snapshot.Weekly[rng.Intn(len(snapshot.Weekly))]
			_, err := shared.DrillDown(models.WeekPeriod(w.WeekStart))
			return result{"drill week", time.Since(start), err != nil}
		}
		if len(snapshot.Daily) == 0 {
			return result{"drill day", 0, true}
		}
		d := snapshot.Daily[rng.Intn(len(snapshot.Daily))]
		_, err := shared.DrillDown(models.DayPeriod(d.Date))
		return result{"drill day", time.Since(start), err != nil}
	})
}

func generate(dir string, now time.Time, rng *rand.Rand) error {
	users := make([]map[string]any, numUsers)
	for i := range users {
		users[i] = map[string]any{
			"uuid":          fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
			"email_address": fmt.Sprintf("user%d@example.com", i),
			"full_name":     fmt.Sprintf("User %d", i),
		}
	}

	ts := func() string {
		return now.Add(-time.Duration(rng.Int63n(int64(historyDays * 24 * time.Hour)))).Format(time.RFC3339)
	}

	projects := make([]map[string]any, numProjects)
	for i := range projects {
		u := users[rng.Intn(numUsers)]
		projects[i] = map[string]any{
			"uuid":       fmt.Sprintf("project-%d", i),
			"name":       fmt.Sprintf("Project %d", i),
			"created_at": ts(),
			"creator":    map[string]any{"uuid": u["uuid"], "full_name": u["full_name"]},
			"is_private": rng.Intn(2) == 0,
			"docs":       make([]any, rng.Intn(6)),
		}
	}

	conversations := make([]map[string]any, numConversations)
	for i := range conversations {
		c := map[string]any{"uuid": fmt.Sprintf("conv-%d", i), "created_at": ts()}
		switch r := rng.Float64(); {
		case r < 0.6:
			c["user_uuid"] = users[rng.Intn(numUsers)]["uuid"]
		case r < 0.9:
			c["email"] = strings.ToUpper(users[rng.Intn(numUsers)]["email_address"].(string))
		case r < 0.95:
			c["full_name"] = "SECO Reconciliation service"
		}
		if rng.Intn(3) == 0 {
			c["project_uuid"] = fmt.Sprintf("project-%d", rng.Intn(numProjects))
		}
		conversations[i] = c
	}

	for name, rows := range map[string][]map[string]any{
		models.SourceUsers:         users,
		models.SourceProjects:      projects,
		models.SourceConversations: conversations,
	} {
		data, err := json.Marshal(rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return err
		}
	}

	var sb strings.Builder
	sb.WriteString("created_at,event,actor_info\n")
	for i := 0; i < numAuditRows; i++ {
		u := users[rng.Intn(numUsers)]
		fmt.Fprintf(&sb, "%s,%s,\"{'name': '%s', 'metadata': {'email_address': '%s'}}\"\n",
			ts(), events[rng.Intn(len(events))], u["full_name"], u["email_address"])
	}
	return os.WriteFile(filepath.Join(dir, "audit_log.csv"), []byte(sb.String()), 0644)
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.op]
			if !ok {
				s = &stats{}
				allResults[r.op] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	ops := make([]string, 0, len(allResults))
	for op := range allResults {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Printf("\n  %-14s %8s %6s %10s %10s %10s %10s\n",
		"Operation", "Ops", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 80))

	for _, op := range ops {
		s := allResults[op]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-14s %8d %6d %10s %10s %10s %10s\n",
			op, s.count, s.errors, fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)), fmtDur(percentile(s.latencies, 0.95)), fmtDur(percentile(s.latencies, 0.99)))
	}

	fmt.Println("  " + strings.Repeat("-", 80))
	if totalOps == 0 {
		fmt.Println("  No operations completed")
		return
	}
	fmt.Printf("  Total: %d ops | Errors: %d (%.1f%%) | Ops/s: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, float64(totalOps)/duration.Seconds())
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
