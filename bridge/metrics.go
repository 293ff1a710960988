package bridge

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Metrics are the counters spec.md §4.6 exposes at /metrics. Plain
// atomics, not a metrics-exporter library: the teacher's own admin
// surfaces favor hand-rolled fmt.Fprintf text over a templating or
// exporter dependency, and nothing in the examples corpus pulls in a
// Prometheus client for this narrow a need.
type Metrics struct {
	RequestsTotal    atomic.Int64
	RequestsInflight atomic.Int64
	RequestsFailed   atomic.Int64
	CacheHits        atomic.Int64
	CacheEvictions   atomic.Int64
	BytesOut         atomic.Int64

	mu        sync.Mutex
	perFormat map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{perFormat: make(map[string]int64)}
}

func (m *Metrics) ObserveFormat(format string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perFormat[format]++
}

// WriteText renders every counter as plain "name value" lines, the
// format the admin endpoint serves.
func (m *Metrics) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "requests_total %d\n", m.RequestsTotal.Load()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "requests_inflight %d\n", m.RequestsInflight.Load()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "requests_failed %d\n", m.RequestsFailed.Load()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "cache_hits %d\n", m.CacheHits.Load()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "cache_evictions %d\n", m.CacheEvictions.Load()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "bytes_out %d\n", m.BytesOut.Load()); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for format, n := range m.perFormat {
		if _, err := fmt.Fprintf(w, "requests_by_format{format=%q} %d\n", format, n); err != nil {
			return err
		}
	}
	return nil
}
