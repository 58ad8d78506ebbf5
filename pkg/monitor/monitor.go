package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// defaultMaxRecords bounds the in-memory record buffer; when exceeded the
	// oldest records are dropped first.
	defaultMaxRecords = 10000

	// defaultSlowThreshold is the duration above which a single operation is
	// logged as slow and an endpoint's mean marks the system degraded.
	defaultSlowThreshold = 5 * time.Second

	defaultStatsWindow = time.Hour
	defaultTrendWindow = 24 * time.Hour
	defaultTrendBucket = time.Hour
	defaultRetention   = 24 * time.Hour

	// Success-rate cutoffs for the system-health verdict.
	degradedSuccessRate  = 0.95
	unhealthySuccessRate = 0.80
)

// Record is one timed operation outcome. Immutable once appended.
type Record struct {
	Endpoint   string        `json:"endpoint"`
	Duration   time.Duration `json:"duration"`
	Success    bool          `json:"success"`
	Timestamp  time.Time     `json:"timestamp"`
	CacheHit   bool          `json:"cache_hit,omitempty"`
	ErrorType  string        `json:"error_type,omitempty"`
	RetryCount int           `json:"retry_count,omitempty"`
}

// Monitor keeps a capped, chronologically ordered buffer of operation
// outcomes and answers rolling-window queries over it. Safe for concurrent
// use; query methods degrade to zero/empty results when no data matches so
// that observability code cannot itself fail.
type Monitor struct {
	mu         sync.RWMutex
	records    []Record
	maxRecords int

	log           zerolog.Logger
	slowThreshold time.Duration

	cleanupStop    chan struct{}
	cleanupRunning bool
}

// Option is a functional option for building a Monitor.
type Option func(*Monitor)

// WithMaxRecords overrides the record buffer cap.
func WithMaxRecords(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.maxRecords = n
		} else {
			panic("max records must be > 0")
		}
	}
}

// WithSlowThreshold overrides the slow-operation threshold.
func WithSlowThreshold(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.slowThreshold = d
		} else {
			panic("slow threshold must be > 0")
		}
	}
}

// New creates a Monitor logging through log.
func New(log zerolog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		maxRecords:    defaultMaxRecords,
		log:           log,
		slowThreshold: defaultSlowThreshold,
		cleanupStop:   make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// RecordOption sets one of the optional fields of a Record.
type RecordOption func(*Record)

// WithCacheHit marks whether the operation was served from cache.
func WithCacheHit(hit bool) RecordOption {
	return func(r *Record) { r.CacheHit = hit }
}

// WithErrorType tags a failed operation with an error kind.
func WithErrorType(errorType string) RecordOption {
	return func(r *Record) { r.ErrorType = errorType }
}

// WithRetryCount records how many retries the operation needed.
func WithRetryCount(n int) RecordOption {
	return func(r *Record) { r.RetryCount = n }
}

// Record appends an outcome for endpoint, trimming the oldest records if the
// buffer exceeds its cap. It is expected to be called from error-handling
// paths and never fails. Every outcome is logged at debug level; slow or
// failed operations additionally log a warning.
func (m *Monitor) Record(endpoint string, duration time.Duration, success bool, opts ...RecordOption) {
	rec := Record{
		Endpoint:  endpoint,
		Duration:  duration,
		Success:   success,
		Timestamp: time.Now(),
	}
	for _, o := range opts {
		o(&rec)
	}

	m.mu.Lock()
	m.records = append(m.records, rec)
	if len(m.records) > m.maxRecords {
		m.records = m.records[len(m.records)-m.maxRecords:]
	}
	m.mu.Unlock()

	m.log.Debug().
		Str("endpoint", rec.Endpoint).
		Dur("duration", rec.Duration).
		Bool("success", rec.Success).
		Bool("cache_hit", rec.CacheHit).
		Msg("metric recorded")

	if rec.Duration > m.slowThreshold || !rec.Success {
		m.log.Warn().
			Str("endpoint", rec.Endpoint).
			Dur("duration", rec.Duration).
			Bool("success", rec.Success).
			Str("error_type", rec.ErrorType).
			Int("retry_count", rec.RetryCount).
			Msg("slow or failed operation")
	}
}

// ClearOld permanently drops records older than olderThan (<= 0 means the
// default 24h retention).
func (m *Monitor) ClearOld(olderThan time.Duration) {
	if olderThan <= 0 {
		olderThan = defaultRetention
	}
	cutoff := time.Now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	m.records = kept
}

// StartAutoCleanup schedules ClearOld to run every interval (<= 0 means
// hourly). Intended to be called once at process startup; Stop cancels it.
func (m *Monitor) StartAutoCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	m.mu.Lock()
	if m.cleanupRunning {
		m.mu.Unlock()
		return
	}
	m.cleanupRunning = true
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.ClearOld(defaultRetention)
			case <-m.cleanupStop:
				return
			}
		}
	}()
}

// Stop cancels the auto-cleanup goroutine if running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cleanupRunning {
		close(m.cleanupStop)
		m.cleanupRunning = false
	}
}

// windowed returns a copy of the records newer than now-window, optionally
// filtered to one endpoint (empty string matches all). Chronological order is
// preserved.
func (m *Monitor) windowed(endpoint string, window time.Duration) []Record {
	cutoff := time.Now().Add(-window)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		if !rec.Timestamp.After(cutoff) {
			continue
		}
		if endpoint != "" && rec.Endpoint != endpoint {
			continue
		}
		out = append(out, rec)
	}
	return out
}
