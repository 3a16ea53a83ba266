package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	totalDuration map[string]time.Duration
}

// Counter is one labelled counter value.
type Counter struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// LatencyStat is the average latency recorded for a request key.
type LatencyStat struct {
	Key       string  `json:"key"`
	AverageMS float64 `json:"average_ms"`
}

// Snapshot is a point-in-time copy of all counters, sorted by key.
type Snapshot struct {
	Requests []Counter     `json:"requests"`
	Errors   []Counter     `json:"errors"`
	Latency  []LatencyStat `json:"latency"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Requests: counters(m.requestCount),
		Errors:   counters(m.errorCount),
		Latency:  make([]LatencyStat, 0, len(m.requestCount)),
	}
	for _, c := range snap.Requests {
		avg := m.totalDuration[c.Key] / time.Duration(c.Count)
		snap.Latency = append(snap.Latency, LatencyStat{
			Key:       c.Key,
			AverageMS: float64(avg) / float64(time.Millisecond),
		})
	}
	return snap
}

func counters(src map[string]int64) []Counter {
	out := make([]Counter, 0, len(src))
	for k, v := range src {
		out = append(out, Counter{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
