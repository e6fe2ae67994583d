// Package buffer provides the lock-free structures that carry audio between
// the render goroutine, the analysis loop and the display consumer.
package buffer

import "sync/atomic"

const (
	// MinSlotCount is the smallest ring that keeps a slot between the write
	// cursor and the oldest frame a reader may ask for.
	MinSlotCount = 3

	// slotBits is the number of low bits of the published word used for the
	// slot index. The remaining bits hold the sequence number.
	slotBits = 16
	slotMask = 1<<slotBits - 1

	// maxCopyAttempts bounds the retries of a reader that was lapped.
	maxCopyAttempts = 3
)

// Ring is a circular store of fixed length stereo frames.
//
// There is exactly one writer (the tap, called from the render goroutine)
// and one reader (the analysis loop). No mutex is used. The writer only ever
// touches the slot after the published one, and readers only copy slots at
// or behind the published one, so a reader never sees a slot that is being
// filled. The published sequence and slot are packed into a single atomic
// word so a reader always gets a consistent pair.
type Ring struct {
	frameSize int
	slotCount int

	left  [][]float32
	right [][]float32

	// published is (sequence << slotBits) | slot.
	published atomic.Uint64

	// writer state, owned by the render goroutine.
	seqCounter uint64
	writeSlot  int
	writePos   int
}

// NewRing returns a ring of slotCount frames of frameSize samples per channel.
func NewRing(frameSize, slotCount int) *Ring {
	if frameSize < 1 {
		frameSize = 1
	}

	if slotCount < MinSlotCount {
		slotCount = MinSlotCount
	}

	if slotCount > slotMask {
		slotCount = slotMask
	}

	r := &Ring{
		frameSize: frameSize,
		slotCount: slotCount,
		left:      make([][]float32, slotCount),
		right:     make([][]float32, slotCount),
	}

	for idx := range r.left {
		r.left[idx] = make([]float32, frameSize)
		r.right[idx] = make([]float32, frameSize)
	}

	return r
}

// FrameSize returns the number of samples per channel in a frame.
func (r *Ring) FrameSize() int {
	return r.frameSize
}

// SlotCount returns the number of frames the ring holds.
func (r *Ring) SlotCount() int {
	return r.slotCount
}

// MaxDelay returns the largest delay, in slots, that CopyDelayedTo honors.
func (r *Ring) MaxDelay() int {
	return r.slotCount - 2
}

// Reset zeroes all counters. Called when playback is stopped.
func (r *Ring) Reset() {
	r.published.Store(0)
	r.seqCounter = 0
	r.writeSlot = 0
	r.writePos = 0
}

// ResetWriteCursor drops the partially written frame and moves the write
// cursor just past the published slot. Called when playback is flushed, so
// recording resumes without touching the slot a reader may be copying.
func (r *Ring) ResetWriteCursor() {
	_, slot := unpack(r.published.Load())

	r.writeSlot = slot + 1
	if r.writeSlot == r.slotCount {
		r.writeSlot = 0
	}

	r.writePos = 0
}

// Write appends one sample pair to the current frame, publishing it when it
// fills. Write never blocks and never allocates.
func (r *Ring) Write(left, right float32) {
	r.left[r.writeSlot][r.writePos] = left
	r.right[r.writeSlot][r.writePos] = right

	if r.writePos++; r.writePos == r.frameSize {
		r.publish()
	}
}

func (r *Ring) publish() {
	r.seqCounter++
	slot := r.writeSlot

	r.published.Store(pack(r.seqCounter, slot))

	if r.writeSlot++; r.writeSlot == r.slotCount {
		r.writeSlot = 0
	}

	// never start writing into the slot readers were just handed.
	if r.writeSlot == slot {
		if r.writeSlot++; r.writeSlot == r.slotCount {
			r.writeSlot = 0
		}
	}

	r.writePos = 0
}

// CopyLatestTo copies the most recently published frame. It returns the
// sequence number of the copied frame, or 0 if nothing has been published.
func (r *Ring) CopyLatestTo(outLeft, outRight []float32) uint64 {
	return r.CopyDelayedTo(outLeft, outRight, 0)
}

// CopyDelayedTo copies the frame published delaySlots frames before the
// latest one. It returns the sequence number of the copied frame, or 0 when
// not enough frames have been published yet (sequence <= delaySlots).
//
// delaySlots is clamped to [0, MaxDelay()].
func (r *Ring) CopyDelayedTo(outLeft, outRight []float32, delaySlots int) uint64 {
	switch {
	case delaySlots < 0:
		delaySlots = 0
	case delaySlots > r.MaxDelay():
		delaySlots = r.MaxDelay()
	}

	delay := uint64(delaySlots)

	for attempt := 0; attempt < maxCopyAttempts; attempt++ {
		seq, slot := unpack(r.published.Load())
		if seq == 0 || seq <= delay {
			return 0
		}

		if slot -= delaySlots; slot < 0 {
			slot += r.slotCount
		}

		copy(outLeft, r.left[slot])
		copy(outRight, r.right[slot])

		// The writer starts refilling our slot once it has published
		// slotCount-1 frames past it. If that happened during the copy the
		// data may be mixed, so try again with the newer frame.
		copied := seq - delay
		now, _ := unpack(r.published.Load())
		if now < copied+uint64(r.slotCount-1) {
			return copied
		}
	}

	return 0
}

func pack(seq uint64, slot int) uint64 {
	return seq<<slotBits | uint64(slot)
}

func unpack(word uint64) (uint64, int) {
	return word >> slotBits, int(word & slotMask)
}
