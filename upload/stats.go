package upload

import (
	"time"
)

// Stats tracks the chunk timings of a single upload for progress reporting.
type Stats struct {
	sum            time.Duration
	finishedChunks int
	bytes          int64
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// Update records a successful chunk upload.
func (s *Stats) Update(d time.Duration, size int) {
	s.sum += d
	s.finishedChunks++
	s.bytes += int64(size)
}

// Average returns the average upload duration of the completed chunks.
func (s *Stats) Average() time.Duration {
	if s.finishedChunks == 0 {
		return 0
	}
	return s.sum / time.Duration(s.finishedChunks)
}

// FinishedCount returns the number of completed chunk uploads.
func (s *Stats) FinishedCount() int {
	return s.finishedChunks
}

// TotalDuration returns the sum of all chunk upload durations.
func (s *Stats) TotalDuration() time.Duration {
	return s.sum
}

// BytesPerSecond returns the observed chunk throughput.
func (s *Stats) BytesPerSecond() float64 {
	if s.sum <= 0 {
		return 0
	}
	return float64(s.bytes) / s.sum.Seconds()
}
