package metrics

import (
	"time"

	"photo-library/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() (Stats, error)
}

// Stats holds the current library totals.
type Stats struct {
	TotalGalleries  int
	TotalPictures   int
	TotalThumbnails int
	TotalTags       int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats, err := c.statsProvider.GetStats()
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	LibraryGalleriesTotal.Set(float64(stats.TotalGalleries))
	LibraryPicturesTotal.Set(float64(stats.TotalPictures))
	LibraryThumbnailsTotal.Set(float64(stats.TotalThumbnails))
	LibraryTagsTotal.Set(float64(stats.TotalTags))

	logging.Debug("Metrics collected: galleries=%d, pictures=%d, thumbnails=%d, tags=%d",
		stats.TotalGalleries, stats.TotalPictures, stats.TotalThumbnails, stats.TotalTags)
}
