package metrics

import (
	"runtime"
	"time"
)

const collectionInterval = 10 * time.Second

// StartMetricsCollection starts collecting system metrics in the background
func StartMetricsCollection() {
	go func() {
		ticker := time.NewTicker(collectionInterval)
		defer ticker.Stop()

		for range ticker.C {
			collectSystemMetrics()
		}
	}()
}

// Collects system resource metrics
func collectSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	UptimeSeconds.Set(time.Since(startTime).Seconds())
	MemoryUsageBytes.Set(float64(memStats.Alloc))
	GoroutinesActive.Set(float64(runtime.NumGoroutine()))
	GCDurationSeconds.Set(float64(memStats.PauseTotalNs) / 1e9)
}
