package observer

import (
	"sync"
	"time"
)

// Metrics holds aggregated workflow counters since process start
type Metrics struct {
	AgentsCompleted  int       `json:"agents_completed"`
	AgentsFailed     int       `json:"agents_failed"`
	LaunchesComplete int       `json:"launches_completed"`
	LaunchesFailed   int       `json:"launches_failed"`
	LastActivity     time.Time `json:"last_activity"`
}

// Collector accumulates workflow metrics. Safe for concurrent use.
type Collector struct {
	mu sync.RWMutex
	m  Metrics

	now func() time.Time
}

// NewCollector creates a Collector
func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// RecordAgent records one agent outcome
func (c *Collector) RecordAgent(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if failed {
		c.m.AgentsFailed++
	} else {
		c.m.AgentsCompleted++
	}
	c.m.LastActivity = c.now()
}

// RecordLaunch records one terminal launch outcome
func (c *Collector) RecordLaunch(failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if failed {
		c.m.LaunchesFailed++
	} else {
		c.m.LaunchesComplete++
	}
	c.m.LastActivity = c.now()
}

// Snapshot returns a copy of the current counters
func (c *Collector) Snapshot() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m
}
