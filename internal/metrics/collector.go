package metrics

import (
	"time"

	"meilisync/internal/logging"
)

// ConnectionProvider reports the state of the search engine session.
type ConnectionProvider interface {
	Connected() bool
	Status() string
}

// Collector periodically publishes the connection state as a gauge.
type Collector struct {
	provider ConnectionProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider ConnectionProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
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
	if c.provider == nil {
		return
	}

	if c.provider.Connected() {
		SearchConnected.Set(1)
	} else {
		SearchConnected.Set(0)
	}

	logging.Debug("Metrics collected: search status=%q", c.provider.Status())
}
