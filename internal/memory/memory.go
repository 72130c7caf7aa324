package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Config holds memory monitor configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT or no limit)
	MemoryLimitBytes int64

	// HighWaterMark is the usage ratio below which a paused monitor resumes (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which work pauses (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often to sample memory usage
	CheckInterval time.Duration
}

// DefaultConfig returns the defaults used by the thumbnail warmer.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and pauses thumbnail work while it is critical.
type Monitor struct {
	config    Config
	limit     int64
	stopOnce  sync.Once
	stopChan  chan struct{}
	mu        sync.RWMutex
	current   uint64
	isPaused  bool
	pauseChan chan struct{}
}

// NewMonitor creates a memory monitor. Without an explicit limit it falls back
// to GOMEMLIMIT; with neither, the monitor never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.MemoryLimitBytes

	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}

	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		stopChan:  make(chan struct{}),
		pauseChan: make(chan struct{}),
	}
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}

	go m.monitorLoop()
}

// Stop ends sampling and releases any goroutine blocked in WaitIfPaused.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) monitorLoop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.observe(stats.Alloc)
		case <-m.stopChan:
			return
		}
	}
}

// observe applies the water marks to one heap sample.
func (m *Monitor) observe(alloc uint64) {
	if m.limit == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.isPaused:
		logging.Warn("Memory critical (%.1f%% of %s), pausing thumbnail work", usage*100, formatBytes(m.limit))
		m.isPaused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.isPaused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming thumbnail work", usage*100)
		m.isPaused = false
		metrics.MemoryPaused.Set(0)
		close(m.pauseChan)
		m.pauseChan = make(chan struct{})
	}
}

// WaitIfPaused blocks while memory usage is critical. It returns false if the
// monitor is stopped while waiting.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.isPaused {
		m.mu.RUnlock()
		return true
	}
	pauseChan := m.pauseChan
	m.mu.RUnlock()

	select {
	case <-pauseChan:
		return true
	case <-m.stopChan:
		return false
	}
}

// IsPaused reports whether work is currently paused.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// Usage returns the last sample as a fraction of the limit, or 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return float64(m.current) / float64(m.limit)
}
