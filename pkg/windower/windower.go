// Package windower slices a stream of blocks into overlapping frames.
//
// Every frame start position i*hop (i = 0, 1, 2, ...) for which a full
// frame exists is produced exactly once and in ascending order, no matter
// how the stream is split into blocks. Frames straddling block boundaries
// are reconstructed from a carry buffer of at most frameLength-1 samples.
package windower

import (
	"fmt"
)

type Windower struct {
	frameLength int
	hop         int

	// carry holds the samples that are not consumed by produced frames
	// yet; carry[0] is at the global position carryOffset.
	carry       []float64
	carryOffset int64
	// next is the global position of the next frame start.
	next int64
	// received is the amount of samples pushed so far.
	received int64
}

func New(frameLength, hop int) (*Windower, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive: got %d", frameLength)
	}
	if hop <= 0 {
		return nil, fmt.Errorf("hop length must be positive: got %d", hop)
	}
	return &Windower{
		frameLength: frameLength,
		hop:         hop,
	}, nil
}

func (w *Windower) FrameLength() int {
	return w.frameLength
}

func (w *Windower) Hop() int {
	return w.hop
}

// NextOffset returns the global position of the next frame to be produced.
func (w *Windower) NextOffset() int64 {
	return w.next
}

// SamplesReceived returns the total amount of samples pushed.
func (w *Windower) SamplesReceived() int64 {
	return w.received
}

// CarryLength returns the amount of samples retained for the next block.
func (w *Windower) CarryLength() int {
	return len(w.carry)
}

// Push appends a block to the stream and returns every frame that got
// completed by it. The block is not retained.
func (w *Windower) Push(block []float64) Batch {
	w.received += int64(len(block))
	buf := append(w.carry, block...)
	bufOffset := w.carryOffset

	if skip := w.next - bufOffset; skip > 0 {
		// hop is longer than the frame, the gap is never part of any frame
		skip = min(skip, int64(len(buf)))
		buf = buf[skip:]
		bufOffset += skip
	}

	var batch Batch
	if len(buf) >= w.frameLength {
		count := (len(buf)-w.frameLength)/w.hop + 1
		spanLength := (count-1)*w.hop + w.frameLength
		batch = Batch{
			Offset:      w.next,
			Count:       count,
			Hop:         w.hop,
			FrameLength: w.frameLength,
			Samples:     append([]float64(nil), buf[:spanLength]...),
		}
		w.next += int64(count) * int64(w.hop)
	}

	// everything before the next frame start is never needed again
	keepFrom := min(max(w.next-bufOffset, 0), int64(len(buf)))
	w.carry = append(make([]float64, 0, len(buf)-int(keepFrom)), buf[keepFrom:]...)
	w.carryOffset = bufOffset + keepFrom
	return batch
}
