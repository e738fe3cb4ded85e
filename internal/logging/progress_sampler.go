package logging

// ProgressSampler suppresses repetitive progress logs, emitting only when a
// counter crosses the next multiple of its step or reaches the total.
type ProgressSampler struct {
	step int
	last int
}

// NewProgressSampler constructs a sampler that emits every step events
// (default 100).
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 100
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether progress at count out of total should be logged.
// A total of zero or less means unknown.
func (s *ProgressSampler) ShouldLog(count, total int) bool {
	if s == nil {
		return true
	}
	if count <= s.last {
		return false
	}
	if count/s.step > s.last/s.step || (total > 0 && count >= total) {
		s.last = count
		return true
	}
	return false
}

