package monitor

import (
	"sort"
	"time"
)

// EndpointStats aggregates one endpoint's records over a rolling window.
type EndpointStats struct {
	Endpoint      string        `json:"endpoint"`
	Requests      int           `json:"requests"`
	Successes     int           `json:"successes"`
	Failures      int           `json:"failures"`
	MinDuration   time.Duration `json:"min_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
	SuccessRate   float64       `json:"success_rate"`
	CacheHitRate  float64       `json:"cache_hit_rate"`
	LastErrorType string        `json:"last_error_type,omitempty"`
	LastErrorAt   time.Time     `json:"last_error_at"`
}

// Status is the overall system-health verdict.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CircuitSummary counts observed endpoints. Open-circuit detection belongs to
// an external circuit breaker; this component always reports zero open.
type CircuitSummary struct {
	Endpoints int `json:"endpoints"`
	Open      int `json:"open"`
}

// SystemHealth is the aggregate verdict over every endpoint in the window.
type SystemHealth struct {
	Status        Status                   `json:"status"`
	TotalRequests int                      `json:"total_requests"`
	SuccessRate   float64                  `json:"success_rate"`
	CacheHitRate  float64                  `json:"cache_hit_rate"`
	Endpoints     map[string]EndpointStats `json:"endpoints"`
	Circuits      CircuitSummary           `json:"circuits"`
}

// TrendBucket aggregates the records of one fixed-size time bucket.
type TrendBucket struct {
	Start        time.Time     `json:"start"`
	Requests     int           `json:"requests"`
	SuccessRate  float64       `json:"success_rate"`
	AvgDuration  time.Duration `json:"avg_duration"`
	CacheHitRate float64       `json:"cache_hit_rate"`
}

// SlowEndpoint is one entry of the top-N slowest report.
type SlowEndpoint struct {
	Endpoint    string        `json:"endpoint"`
	AvgDuration time.Duration `json:"avg_duration"`
	Requests    int           `json:"requests"`
}

// MetricsExport is a diagnostic snapshot of the record buffer.
type MetricsExport struct {
	Count   int       `json:"count"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Records []Record  `json:"records"`
}

// EndpointStats aggregates the endpoint's records newer than now-window
// (<= 0 means one hour). With no matching records every field is zero.
func (m *Monitor) EndpointStats(endpoint string, window time.Duration) EndpointStats {
	if window <= 0 {
		window = defaultStatsWindow
	}
	return computeEndpointStats(endpoint, m.windowed(endpoint, window))
}

// SystemHealth derives the overall verdict over every endpoint observed in
// the window (<= 0 means one hour):
//
//   - unhealthy when the aggregate success rate drops below 0.80
//   - degraded when the aggregate rate is below 0.95, any single endpoint's
//     rate is below 0.95, or any endpoint's mean duration exceeds the slow
//     threshold
//   - healthy otherwise, including an empty window
func (m *Monitor) SystemHealth(window time.Duration) SystemHealth {
	if window <= 0 {
		window = defaultStatsWindow
	}
	records := m.windowed("", window)

	health := SystemHealth{
		Status:        StatusHealthy,
		TotalRequests: len(records),
		Endpoints:     make(map[string]EndpointStats),
	}
	if len(records) == 0 {
		return health
	}

	byEndpoint := make(map[string][]Record)
	successes, cacheHits := 0, 0
	for _, rec := range records {
		byEndpoint[rec.Endpoint] = append(byEndpoint[rec.Endpoint], rec)
		if rec.Success {
			successes++
		}
		if rec.CacheHit {
			cacheHits++
		}
	}
	health.SuccessRate = float64(successes) / float64(len(records))
	health.CacheHitRate = float64(cacheHits) / float64(len(records))
	health.Circuits = CircuitSummary{Endpoints: len(byEndpoint)}

	degraded := health.SuccessRate < degradedSuccessRate
	for endpoint, recs := range byEndpoint {
		stats := computeEndpointStats(endpoint, recs)
		health.Endpoints[endpoint] = stats
		if stats.SuccessRate < degradedSuccessRate || stats.AvgDuration > m.slowThreshold {
			degraded = true
		}
	}

	switch {
	case health.SuccessRate < unhealthySuccessRate:
		health.Status = StatusUnhealthy
	case degraded:
		health.Status = StatusDegraded
	}
	return health
}

// Trends partitions the windowed records (optionally filtered to one
// endpoint; empty string means all) into floor-aligned buckets of bucket
// size. Non-empty buckets are returned in ascending chronological order.
// window <= 0 means 24h, bucket <= 0 means one hour.
func (m *Monitor) Trends(endpoint string, window, bucket time.Duration) []TrendBucket {
	if window <= 0 {
		window = defaultTrendWindow
	}
	if bucket <= 0 {
		bucket = defaultTrendBucket
	}
	records := m.windowed(endpoint, window)

	bucketMs := bucket.Milliseconds()
	grouped := make(map[int64][]Record)
	for _, rec := range records {
		start := rec.Timestamp.UnixMilli() / bucketMs * bucketMs
		grouped[start] = append(grouped[start], rec)
	}

	starts := make([]int64, 0, len(grouped))
	for start := range grouped {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	trends := make([]TrendBucket, 0, len(starts))
	for _, start := range starts {
		recs := grouped[start]
		successes, cacheHits := 0, 0
		var total time.Duration
		for _, rec := range recs {
			if rec.Success {
				successes++
			}
			if rec.CacheHit {
				cacheHits++
			}
			total += rec.Duration
		}
		trends = append(trends, TrendBucket{
			Start:        time.UnixMilli(start),
			Requests:     len(recs),
			SuccessRate:  float64(successes) / float64(len(recs)),
			AvgDuration:  total / time.Duration(len(recs)),
			CacheHitRate: float64(cacheHits) / float64(len(recs)),
		})
	}
	return trends
}

// SlowestEndpoints reports up to limit endpoints (<= 0 means ten) ordered by
// descending mean duration over the window (<= 0 means one hour).
func (m *Monitor) SlowestEndpoints(limit int, window time.Duration) []SlowEndpoint {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = defaultStatsWindow
	}
	records := m.windowed("", window)

	type acc struct {
		total time.Duration
		count int
	}
	byEndpoint := make(map[string]*acc)
	for _, rec := range records {
		a := byEndpoint[rec.Endpoint]
		if a == nil {
			a = &acc{}
			byEndpoint[rec.Endpoint] = a
		}
		a.total += rec.Duration
		a.count++
	}

	slowest := make([]SlowEndpoint, 0, len(byEndpoint))
	for endpoint, a := range byEndpoint {
		slowest = append(slowest, SlowEndpoint{
			Endpoint:    endpoint,
			AvgDuration: a.total / time.Duration(a.count),
			Requests:    a.count,
		})
	}
	sort.Slice(slowest, func(i, j int) bool {
		if slowest[i].AvgDuration != slowest[j].AvgDuration {
			return slowest[i].AvgDuration > slowest[j].AvgDuration
		}
		return slowest[i].Endpoint < slowest[j].Endpoint
	})
	if limit < len(slowest) {
		slowest = slowest[:limit]
	}
	return slowest
}

// Export returns a diagnostic snapshot of the buffer, optionally limited to
// the given window (<= 0 exports everything).
func (m *Monitor) Export(window time.Duration) MetricsExport {
	var records []Record
	if window > 0 {
		records = m.windowed("", window)
	} else {
		m.mu.RLock()
		records = make([]Record, len(m.records))
		copy(records, m.records)
		m.mu.RUnlock()
	}

	export := MetricsExport{Count: len(records), Records: records}
	if len(records) > 0 {
		export.From = records[0].Timestamp
		export.To = records[len(records)-1].Timestamp
	}
	return export
}

func computeEndpointStats(endpoint string, records []Record) EndpointStats {
	stats := EndpointStats{Endpoint: endpoint, Requests: len(records)}
	if len(records) == 0 {
		return stats
	}

	cacheHits := 0
	var total time.Duration
	for i, rec := range records {
		if rec.Success {
			stats.Successes++
		} else {
			stats.Failures++
			stats.LastErrorType = rec.ErrorType
			stats.LastErrorAt = rec.Timestamp
		}
		if rec.CacheHit {
			cacheHits++
		}
		total += rec.Duration
		if i == 0 || rec.Duration < stats.MinDuration {
			stats.MinDuration = rec.Duration
		}
		if rec.Duration > stats.MaxDuration {
			stats.MaxDuration = rec.Duration
		}
	}
	stats.AvgDuration = total / time.Duration(len(records))
	stats.SuccessRate = float64(stats.Successes) / float64(len(records))
	stats.CacheHitRate = float64(cacheHits) / float64(len(records))
	return stats
}
