// Package observability carries side-channel telemetry; nothing in here
// feeds back into the guard's behavior.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Heartbeat periodically logs the process's own resource usage. The guard
// is meant to run unattended for months; this is how an operator tailing
// the logs knows it is alive and not leaking.
type Heartbeat struct {
	log      *slog.Logger
	interval time.Duration
}

func NewHeartbeat(log *slog.Logger, interval time.Duration) *Heartbeat {
	return &Heartbeat{log: log, interval: interval}
}

func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				h.log.Warn("failed to collect self stats", "err", err)
				continue
			}
			h.log.Info("heartbeat", "ram_bytes", rss, "cpu_percent", cpu, "status", status)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
