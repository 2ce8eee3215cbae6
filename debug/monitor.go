// Package debug logs runtime and process resource usage while debug mode is on.
// It exists to tell Go heap growth apart from native (GPU driver, inference
// runtime) growth during long detection sessions.
package debug

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"runtime/metrics"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Sample is one resource reading.
type Sample struct {
	Goroutines uint64
	StackInuse uint64
	HeapAlloc  uint64
	HeapInuse  uint64
	NumGC      uint32
	RSS        uint64
	Threads    int32
	CPUPercent float64
}

// Extra contributes component attributes (capture stats, loop counters) to each log line.
type Extra func() []any

// Monitor periodically logs a Sample.
type Monitor struct {
	logger   *slog.Logger
	interval time.Duration
	extra    Extra
	proc     *process.Process

	errOnce sync.Once
	wg      sync.WaitGroup
}

// NewMonitor returns a monitor logging every interval (2s when <= 0).
func NewMonitor(logger *slog.Logger, interval time.Duration, extra Extra) *Monitor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{logger: logger.With("component", "debug"), interval: interval, extra: extra}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		m.proc = p
	} else {
		m.logger.Warn("process stats unavailable", "error", err)
	}
	return m
}

// Start launches the logging goroutine; it exits when ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		t := time.NewTicker(m.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.log(m.Sample())
			}
		}
	}()
}

// Wait blocks until the logging goroutine has exited.
func (m *Monitor) Wait() { m.wg.Wait() }

// Sample reads the current runtime and process figures. Process figures stay zero
// when the platform does not expose them.
func (m *Monitor) Sample() Sample {
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := Sample{
		StackInuse: ms.StackInuse,
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
		NumGC:      ms.NumGC,
	}
	if samples[0].Value.Kind() == metrics.KindUint64 {
		s.Goroutines = samples[0].Value.Uint64()
	}
	if m.proc == nil {
		return s
	}
	if mem, err := m.proc.MemoryInfo(); err == nil {
		s.RSS = mem.RSS
	} else {
		m.errOnce.Do(func() { m.logger.Warn("read process memory", "error", err) })
	}
	if n, err := m.proc.NumThreads(); err == nil {
		s.Threads = n
	}
	if pct, err := m.proc.CPUPercent(); err == nil {
		s.CPUPercent = pct
	}
	return s
}

func (m *Monitor) log(s Sample) {
	args := []any{
		slog.Uint64("goroutines", s.Goroutines),
		slog.Uint64("stack_inuse", s.StackInuse),
		slog.Uint64("heap_alloc", s.HeapAlloc),
		slog.Uint64("heap_inuse", s.HeapInuse),
		slog.Uint64("num_gc", uint64(s.NumGC)),
		slog.Uint64("rss", s.RSS),
		slog.Int("threads", int(s.Threads)),
		slog.Float64("cpu_percent", s.CPUPercent),
	}
	if m.extra != nil {
		args = append(args, m.extra()...)
	}
	m.logger.Info("memstats", args...)
}
