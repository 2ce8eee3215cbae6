package loop

import "time"

const (
	frameSlots   = 100
	latencyBatch = 1000
	fpsPublishN  = 10
)

// FrameTimes is a fixed ring of the most recent cycle durations with a running sum.
type FrameTimes struct {
	slots [frameSlots]time.Duration
	next  int
	n     int
	sum   time.Duration
	added uint64
}

// Add records d, evicting the oldest sample once the ring is full.
func (f *FrameTimes) Add(d time.Duration) {
	if f.n == frameSlots {
		f.sum -= f.slots[f.next]
	} else {
		f.n++
	}
	f.slots[f.next] = d
	f.sum += d
	f.next = (f.next + 1) % frameSlots
	f.added++
}

// Len returns the number of samples held.
func (f *FrameTimes) Len() int { return f.n }

// Added returns the number of samples ever recorded.
func (f *FrameTimes) Added() uint64 { return f.added }

// Average returns the mean cycle duration, or 0 when empty.
func (f *FrameTimes) Average() time.Duration {
	if f.n == 0 {
		return 0
	}
	return f.sum / time.Duration(f.n)
}

// FPS returns the rolling iterations per second.
func (f *FrameTimes) FPS() float64 {
	avg := f.Average()
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// LatencyBatch accumulates cycle latency over batches of detecting cycles.
type LatencyBatch struct {
	Size  int
	n     int
	total time.Duration
}

// Add records d. When the batch is complete it returns the batch average and true,
// then starts a new batch.
func (b *LatencyBatch) Add(d time.Duration) (time.Duration, bool) {
	size := b.Size
	if size <= 0 {
		size = latencyBatch
	}
	b.n++
	b.total += d
	if b.n < size {
		return 0, false
	}
	avg := b.total / time.Duration(b.n)
	b.n, b.total = 0, 0
	return avg, true
}
