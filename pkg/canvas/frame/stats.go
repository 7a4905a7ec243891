package frame

import "time"

// StatsWindow is the number of recent frames kept for timing statistics.
const StatsWindow = 60

// Stats is a ring of the most recent frame durations.
type Stats struct {
	samples [StatsWindow]time.Duration
	next    int
	count   int
	total   uint64
}

// Record adds one frame duration.
func (s *Stats) Record(d time.Duration) {
	s.samples[s.next] = d
	s.next = (s.next + 1) % StatsWindow
	if s.count < StatsWindow {
		s.count++
	}
	s.total++
}

// Frames returns the number of frames recorded since creation.
func (s *Stats) Frames() uint64 { return s.total }

// Mean returns the mean duration over the window, or zero before the first
// frame.
func (s *Stats) Mean() time.Duration {
	if s.count == 0 {
		return 0
	}
	var sum time.Duration
	for i := range s.count {
		sum += s.samples[i]
	}
	return sum / time.Duration(s.count)
}

// Max returns the longest duration in the window.
func (s *Stats) Max() time.Duration {
	var m time.Duration
	for i := range s.count {
		m = max(m, s.samples[i])
	}
	return m
}

// FPS returns the frame rate implied by Mean.
func (s *Stats) FPS() float64 {
	m := s.Mean()
	if m <= 0 {
		return 0
	}
	return float64(time.Second) / float64(m)
}
