package windower

// Frame is a candidate window of the stream.
type Frame struct {
	// Offset is the amount of stream samples preceding the frame.
	Offset  int64
	Samples []float64
}

// Batch is a run of frames sharing one contiguous span of samples:
// frame i covers Samples[i*Hop : i*Hop+FrameLength] and starts at the
// global position Offset + i*Hop.
type Batch struct {
	Offset      int64
	Count       int
	Hop         int
	FrameLength int
	Samples     []float64
}

func (b Batch) IsEmpty() bool {
	return b.Count == 0
}

func (b Batch) FrameOffset(i int) int64 {
	return b.Offset + int64(i)*int64(b.Hop)
}

func (b Batch) Frame(i int) Frame {
	start := i * b.Hop
	return Frame{
		Offset:  b.FrameOffset(i),
		Samples: b.Samples[start : start+b.FrameLength : start+b.FrameLength],
	}
}

// Truncate returns the batch reduced to its first count frames.
func (b Batch) Truncate(count int) Batch {
	if count >= b.Count {
		return b
	}
	if count <= 0 {
		return Batch{Offset: b.Offset, Hop: b.Hop, FrameLength: b.FrameLength}
	}
	b.Samples = b.Samples[:(count-1)*b.Hop+b.FrameLength]
	b.Count = count
	return b
}

// End returns the global position right after the last sample of the batch.
func (b Batch) End() int64 {
	return b.Offset + int64(len(b.Samples))
}
