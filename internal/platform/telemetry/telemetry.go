// Package telemetry keeps in-process HTTP metrics for the hospital API and
// serves them in Prometheus text exposition format. No collector SDK is
// involved; counters and histograms live in memory for the life of the process.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/db"
)

// Request duration buckets, in seconds.
var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// histogram is a thread-safe histogram. Bucket counts are stored
// non-cumulative and summed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	atomicAddFloat64(&h.sum, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 { return atomic.LoadInt64(&h.count) }

func (h *histogram) Sum() float64 { return math.Float64frombits(atomic.LoadUint64(&h.sum)) }

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum := make([]int64, len(h.bucketCounts))
	var running int64
	for i, c := range h.bucketCounts {
		running += c
		cum[i] = running
	}
	return cum
}

func atomicAddFloat64(addr *uint64, delta float64) {
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// LabelsKey builds the map key for a (method, route, status) series.
func LabelsKey(method, route, status string) string {
	return method + "|" + route + "|" + status
}

// Provider records request metrics. The zero value is not usable; call New.
type Provider struct {
	mu        sync.RWMutex
	durations map[string]*histogram
	modules   map[string]*int64

	active int64
	pool   *pgxpool.Pool
}

func New() *Provider {
	return &Provider{
		durations: make(map[string]*histogram),
		modules:   make(map[string]*int64),
	}
}

// WithPool makes the exporter report connection pool gauges.
func (p *Provider) WithPool(pool *pgxpool.Pool) *Provider {
	p.pool = pool
	return p
}

func (p *Provider) durationFor(key string) *histogram {
	p.mu.RLock()
	h, ok := p.durations[key]
	p.mu.RUnlock()
	if ok {
		return h
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok = p.durations[key]; !ok {
		h = newHistogram(defaultDurationBuckets)
		p.durations[key] = h
	}
	return h
}

func (p *Provider) incModule(module, action string) {
	key := module + "|" + action
	p.mu.RLock()
	c, ok := p.modules[key]
	p.mu.RUnlock()
	if !ok {
		p.mu.Lock()
		if c, ok = p.modules[key]; !ok {
			c = new(int64)
			p.modules[key] = c
		}
		p.mu.Unlock()
	}
	atomic.AddInt64(c, 1)
}

// ModuleCount returns how many API requests hit module with action.
func (p *Provider) ModuleCount(module, action string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if c, ok := p.modules[module+"|"+action]; ok {
		return atomic.LoadInt64(c)
	}
	return 0
}

// RequestCount returns the number of observed requests for one series.
func (p *Provider) RequestCount(method, route, status string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if h, ok := p.durations[LabelsKey(method, route, status)]; ok {
		return h.Count()
	}
	return 0
}

// Middleware records duration per route and status, the number of requests
// in flight, and a per-module counter for /api/v1 traffic.
func (p *Provider) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&p.active, 1)
			start := time.Now()

			err := next(c)
			atomic.AddInt64(&p.active, -1)

			code := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			status := strconv.Itoa(code)
			p.durationFor(LabelsKey(req.Method, route, status)).Observe(time.Since(start).Seconds())

			if module := apiModule(req.URL.Path); module != "" {
				p.incModule(module, methodAction(req.Method))
			}
			return err
		}
	}
}

// Handler serves the Prometheus text exposition.
func (p *Provider) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		p.mu.RLock()
		durations := make(map[string]*histogram, len(p.durations))
		for k, v := range p.durations {
			durations[k] = v
		}
		modules := make(map[string]int64, len(p.modules))
		for k, v := range p.modules {
			modules[k] = atomic.LoadInt64(v)
		}
		p.mu.RUnlock()

		b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
		b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
		for _, key := range sortedKeys(durations) {
			parts := strings.SplitN(key, "|", 3)
			labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
			writeHistogram(&b, "http_server_request_duration_seconds", labels, durations[key])
		}
		b.WriteByte('\n')

		b.WriteString("# HELP http_server_active_requests Number of HTTP requests in flight.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", atomic.LoadInt64(&p.active))

		b.WriteString("# HELP hms_api_requests_total API requests by module and action.\n")
		b.WriteString("# TYPE hms_api_requests_total counter\n")
		for _, key := range sortedKeys(modules) {
			parts := strings.SplitN(key, "|", 2)
			fmt.Fprintf(&b, "hms_api_requests_total{module=%q,action=%q} %d\n", parts[0], parts[1], modules[key])
		}
		b.WriteByte('\n')

		if p.pool != nil {
			stats := db.GetPoolStats(p.pool)
			gauges := []struct {
				name, help string
				val        int32
			}{
				{"db_pool_acquired_connections", "Connections currently in use.", stats.AcquiredConns},
				{"db_pool_idle_connections", "Idle connections in the pool.", stats.IdleConns},
				{"db_pool_max_connections", "Configured pool size.", stats.MaxConns},
			}
			for _, g := range gauges {
				fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", g.name, g.help, g.name, g.name, g.val)
			}
		}

		return c.String(http.StatusOK, b.String())
	}
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, boundary := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, boundary, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, h.Sum())
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// apiModule returns the first segment after /api/v1/, or "" for other paths.
func apiModule(path string) string {
	const prefix = "/api/v1/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func methodAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
