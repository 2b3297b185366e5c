package adherence

import (
	"sync"
	"time"

	"github.com/yourname/medtracker/internal"
)

// StatsCache memoizes ComputeStats keyed on the ledger's collection version
// counters and the calendar date, so unchanged collections are not rescanned
// on every read. The day is part of the key because the snapshot shifts at
// midnight even when nothing was written.
type StatsCache struct {
	mu      sync.Mutex
	medsVer uint64
	logsVer uint64
	day     string
	valid   bool
	stats   internal.AdherenceStats
}

func (c *StatsCache) Get(medications []internal.Medication, logs []internal.IntakeLog, medsVer, logsVer uint64, asOf time.Time) internal.AdherenceStats {
	day := asOf.Format(internal.DateLayout)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.medsVer == medsVer && c.logsVer == logsVer && c.day == day {
		return c.stats
	}
	c.stats = ComputeStats(medications, logs, asOf)
	c.medsVer = medsVer
	c.logsVer = logsVer
	c.day = day
	c.valid = true
	return c.stats
}

// Invalidate drops the memoized snapshot.
func (c *StatsCache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
