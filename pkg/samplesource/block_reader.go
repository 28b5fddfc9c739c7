package samplesource

import (
	"errors"
	"fmt"
	"io"
)

// BlockReader slices a Source into blocks of a fixed nominal length. Only
// the final block of a stream may be shorter.
type BlockReader struct {
	Source      Source
	BlockLength int

	samplesRead int64
	pendingErr  error
}

func NewBlockReader(source Source, blockLength int) *BlockReader {
	if blockLength <= 0 {
		panic(fmt.Errorf("block length must be positive: got %d", blockLength))
	}
	return &BlockReader{
		Source:      source,
		BlockLength: blockLength,
	}
}

// SamplesRead returns the amount of samples returned so far.
func (r *BlockReader) SamplesRead() int64 {
	return r.samplesRead
}

// Next returns the next block. At the end of the stream it returns io.EOF.
//
// A failure of the source after the first sample is reported as
// *IncompleteStreamError. A failure before that is returned as is (so a
// *DecodeError stays fatal). If some samples were read before a failure,
// they are returned first and the error is returned by the next call.
func (r *BlockReader) Next() ([]float64, error) {
	if r.pendingErr != nil {
		return nil, r.pendingErr
	}

	block := make([]float64, r.BlockLength)
	filled := 0
	zeroReads := 0
	for filled < len(block) {
		n, err := r.Source.ReadSamples(block[filled:])
		if n < 0 || n > len(block)-filled {
			err = fmt.Errorf("the source returned an invalid amount of samples: %d", n)
			n = 0
		}
		filled += n
		if err != nil {
			r.pendingErr = r.wrapErr(err, int64(filled))
			break
		}
		if n == 0 {
			zeroReads++
			if zeroReads > 100 {
				r.pendingErr = r.wrapErr(io.ErrNoProgress, int64(filled))
				break
			}
		}
	}
	r.samplesRead += int64(filled)

	if filled == 0 {
		return nil, r.pendingErr
	}
	return block[:filled], nil
}

func (r *BlockReader) wrapErr(err error, pending int64) error {
	total := r.samplesRead + pending
	var decodeErr *DecodeError
	if total == 0 && errors.As(err, &decodeErr) {
		return err
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var incompleteErr *IncompleteStreamError
	if errors.As(err, &incompleteErr) {
		return err
	}
	return &IncompleteStreamError{
		SamplesRead: total,
		Err:         err,
	}
}
