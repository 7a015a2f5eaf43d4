package logging

// ProgressSampler suppresses repetitive progress logs. It emits when the
// percentage crosses a bucket boundary or when the step name changes.
type ProgressSampler struct {
	bucketSize int
	lastStep   string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in percent (default 25).
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event for percent/step is worth logging.
func (s *ProgressSampler) ShouldLog(percent int, step string) bool {
	if s == nil {
		return true
	}
	emit := false
	if step != "" && step != s.lastStep {
		s.lastStep = step
		emit = true
	}
	if percent >= 0 {
		bucket := percent / s.bucketSize
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}
