package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	highCPUThreshold = 90.0
	alertCooldown    = 15 * time.Minute
)

// SampleFunc reads the current host stats.
type SampleFunc func(ctx context.Context) (models.SystemStats, error)

// SampleHost reads CPU, memory and uptime of the machine.
func SampleHost(ctx context.Context) (models.SystemStats, error) {
	var stats models.SystemStats

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read memory usage: %w", err)
	}
	stats.MemoryPercent = vm.UsedPercent

	if stats.UptimeSeconds, err = host.UptimeWithContext(ctx); err != nil {
		return stats, fmt.Errorf("failed to read uptime: %w", err)
	}
	return stats, nil
}

// StatUpdater periodically samples host stats for the admin dashboard and
// records an alert event when CPU stays high.
type StatUpdater struct {
	sample   SampleFunc
	eventSvc services.EventServiceProvider
	interval time.Duration
	done     chan struct{}
	now      func() time.Time

	mu        sync.RWMutex
	latest    models.SystemStats
	lastAlert time.Time
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(sample SampleFunc, eventSvc services.EventServiceProvider, interval time.Duration) *StatUpdater {
	return &StatUpdater{
		sample:   sample,
		eventSvc: eventSvc,
		interval: interval,
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Run starts the periodic updates. It blocks until Stop is called.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	close(su.done)
}

// Latest returns the most recent sample.
func (su *StatUpdater) Latest() models.SystemStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) update() {
	ctx, cancel := context.WithTimeout(context.Background(), su.interval)
	defer cancel()

	stats, err := su.sample(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Non-fatal error sampling host")
		return
	}

	su.mu.Lock()
	su.latest = stats
	alert := stats.CPUPercent > highCPUThreshold && su.now().Sub(su.lastAlert) >= alertCooldown
	if alert {
		su.lastAlert = su.now()
	}
	su.mu.Unlock()

	if alert && su.eventSvc != nil {
		msg := fmt.Sprintf("High CPU usage (%.1f%%) detected on the MediInsight host.", stats.CPUPercent)
		if err := su.eventSvc.CreateEvent(ctx, "system.alert.cpu", "warn", msg, nil); err != nil {
			log.Error().Err(err).Msg("StatUpdater: Failed to record CPU alert")
		}
	}
}
