package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	err   error
	calls int
}

func (m *mockStatsProvider) GetStats() (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats, m.err
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorCollect(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		TotalGalleries:  3,
		TotalPictures:   42,
		TotalThumbnails: 40,
		TotalTags:       5,
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	assert.Equal(t, 3.0, testutil.ToFloat64(LibraryGalleriesTotal))
	assert.Equal(t, 42.0, testutil.ToFloat64(LibraryPicturesTotal))
	assert.Equal(t, 40.0, testutil.ToFloat64(LibraryThumbnailsTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(LibraryTagsTotal))
}

func TestCollectorKeepsPreviousValuesOnError(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{TotalPictures: 7}}
	c := NewCollector(provider, time.Hour)
	c.collect()

	provider.mu.Lock()
	provider.stats = Stats{TotalPictures: 99}
	provider.err = errors.New("store unavailable")
	provider.mu.Unlock()

	c.collect()
	assert.Equal(t, 7.0, testutil.ToFloat64(LibraryPicturesTotal))
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	assert.NotPanics(t, c.collect)
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, 10*time.Millisecond)
	c.Start()

	assert.Eventually(t, func() bool { return provider.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	c.Stop()
}
