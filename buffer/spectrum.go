package buffer

import (
	"runtime"
	"sync/atomic"
)

// DefaultBinCount is the number of spectrum bins per channel.
const DefaultBinCount = 128

// SpectrumStore is a two slot, per channel store of bin energies.
//
// A single writer fills the slot that is not published and then flips the
// published index. Any number of readers copy the published slot. Each
// publish also bumps a generation counter; readers check it around their
// copy and retry when a publish landed mid copy, so they never return a half
// old, half new snapshot.
type SpectrumStore struct {
	binCount int

	left  [2][]float32
	right [2][]float32

	// state is (generation << 1) | publishedIndex.
	state atomic.Uint64
}

// NewSpectrumStore returns a store holding binCount bins per channel.
func NewSpectrumStore(binCount int) *SpectrumStore {
	if binCount < 1 {
		binCount = DefaultBinCount
	}

	s := &SpectrumStore{binCount: binCount}

	for idx := range s.left {
		s.left[idx] = make([]float32, binCount)
		s.right[idx] = make([]float32, binCount)
	}

	return s
}

// BinCount returns the number of bins per channel.
func (s *SpectrumStore) BinCount() int {
	return s.binCount
}

// BeginWrite returns the index of the slot that is not published.
func (s *SpectrumStore) BeginWrite() int {
	return 1 - int(s.state.Load()&1)
}

// WriteBuffers returns the left and right bins of slot idx for the writer.
// Only the writer may call it, and only with an index from BeginWrite.
func (s *SpectrumStore) WriteBuffers(idx int) ([]float32, []float32) {
	return s.left[idx&1], s.right[idx&1]
}

// Publish makes slot idx the one readers copy from.
func (s *SpectrumStore) Publish(idx int) {
	gen := s.state.Load() >> 1
	s.state.Store((gen+1)<<1 | uint64(idx&1))
}

// Generation returns the number of publishes so far.
func (s *SpectrumStore) Generation() uint64 {
	return s.state.Load() >> 1
}

// CopyLatestLeft copies the published left channel bins into out.
func (s *SpectrumStore) CopyLatestLeft(out []float32) {
	s.copyLatest(&s.left, out)
}

// CopyLatestRight copies the published right channel bins into out.
func (s *SpectrumStore) CopyLatestRight(out []float32) {
	s.copyLatest(&s.right, out)
}

// copyLatest retries until no publish lands during the copy. The writer
// publishes at display rate, so a reader waits at most a few rounds.
func (s *SpectrumStore) copyLatest(slots *[2][]float32, out []float32) {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			runtime.Gosched()
		}

		before := s.state.Load()
		copy(out, slots[before&1])

		// The writer only starts on our slot after publishing the other
		// one, which moves the generation by one.
		if s.state.Load()>>1 == before>>1 {
			return
		}
	}
}
