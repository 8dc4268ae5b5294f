package workers

import (
	"log"
	"time"

	"goassetbridge/bridge"
	"goassetbridge/config"
)

var WorkerShutdown = false

// Worker_snapshot periodically flushes the bridge counters to redis and
// logs the operator stats. The write-through on every mutation already
// persists the snapshot; this loop covers the case where those writes
// failed transiently.
func Worker_snapshot(b *bridge.Bridge) {
	failures := 0
	ticks := 0

	for !WorkerShutdown {
		time.Sleep(time.Duration(config.SNAPSHOT_INTERVAL_SECONDS) * time.Second)

		if err := b.PersistSnapshot(); err != nil {
			failures++
			log.Printf("Error persisting bridge snapshot (%d in a row): %v", failures, err)
			if failures >= 10 {
				// emergency exit
				log.Printf("Too many snapshot failures, emergency exit to avoid silent data loss")
				WorkerShutdown = true
			}
			continue
		}
		failures = 0

		// stats once a minute is enough for the log
		ticks++
		if ticks*config.SNAPSHOT_INTERVAL_SECONDS < 60 {
			continue
		}
		ticks = 0

		stats, err := b.Stats()
		if err != nil {
			log.Printf("Error reading bridge stats: %v", err)
			continue
		}
		log.Printf("Bridge stats: locked=%d released=%d custody=%d headroom=%d/%d nonce=%d paused=%v",
			stats.TotalLocked, stats.TotalReleased, stats.CustodyBalance,
			stats.DailyHeadroom, stats.DailyLimit, stats.NextNonce, stats.Paused)
	}
}
