// Package sysmon samples system CPU and memory usage while a run is in
// progress and keeps the peak values for the summary.
package sysmon

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultInterval is the sampling period used when none is given.
const DefaultInterval = time.Second

// Stats holds a single snapshot of resource usage.
type Stats struct {
	CPUPercent float64 // system-wide, 0.0 .. 100.0
	MemPercent float64 // system-wide, 0.0 .. 100.0
	RSSBytes   uint64  // resident set of this process
}

// Sample collects a single snapshot. CPU uses interval=0 (delta since last
// call). Fields that cannot be read are left at zero.
func Sample() Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfo(); err == nil && info != nil {
			s.RSSBytes = info.RSS
		}
	}
	return s
}

// Sampler periodically samples resource usage and tracks the maximum of
// each field.
type Sampler struct {
	interval time.Duration
	sample   func() Stats

	mu      sync.Mutex
	peak    Stats
	samples int
}

// NewSampler returns a sampler ticking every interval. A non-positive
// interval selects DefaultInterval.
func NewSampler(interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{interval: interval, sample: Sample}
}

// Run samples once immediately, then on every tick until ctx is done.
func (s *Sampler) Run(ctx context.Context) {
	s.record(s.sample())
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.record(s.sample())
		}
	}
}

// Start runs the sampler in the background. The returned function stops it,
// waits for the goroutine and returns the peak.
func (s *Sampler) Start(ctx context.Context) (stop func() Stats) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return func() Stats {
		cancel()
		<-done
		return s.Peak()
	}
}

// Peak returns the per-field maxima seen so far.
func (s *Sampler) Peak() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// Samples returns how many snapshots were taken.
func (s *Sampler) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func (s *Sampler) record(st Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples++
	s.peak.CPUPercent = max(s.peak.CPUPercent, st.CPUPercent)
	s.peak.MemPercent = max(s.peak.MemPercent, st.MemPercent)
	s.peak.RSSBytes = max(s.peak.RSSBytes, st.RSSBytes)
}
