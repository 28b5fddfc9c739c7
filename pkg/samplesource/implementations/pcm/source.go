// Package pcm implements a sample source reading raw interleaved PCM.
package pcm

import (
	"errors"
	"fmt"
	"io"

	"github.com/iamcalledrob/circular"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

const (
	defaultReadSize = 65536
)

type Format struct {
	PCMFormat  audio.PCMFormat
	SampleRate audio.SampleRate
	Channels   audio.Channel
}

func (f Format) frameSize() int {
	return int(f.PCMFormat.Size()) * int(f.Channels)
}

// Source decodes raw interleaved PCM from an io.Reader and downmixes it
// to mono.
type Source struct {
	Format Format

	reader  *datacounter.ReaderCounter
	closer  io.Closer
	readBuf []byte
	// pending holds the bytes of incomplete sample frames between reads.
	pending      *circular.Buffer
	pendingBytes int
	frameBuf     []byte
	interleaved  []float64
	totalBytes   int64
	err          error
}

var (
	_ samplesource.Source      = (*Source)(nil)
	_ samplesource.Lengther    = (*Source)(nil)
	_ samplesource.ByteCounter = (*Source)(nil)
)

// NewSource creates a PCM source. totalBytes is the size of the input if
// known, otherwise it should be zero.
func NewSource(
	r io.Reader,
	format Format,
	totalBytes int64,
) (*Source, error) {
	if format.PCMFormat.Size() == 0 {
		return nil, &samplesource.DecodeError{Err: fmt.Errorf("unsupported PCM format: %v", format.PCMFormat)}
	}
	if format.SampleRate == 0 {
		return nil, &samplesource.DecodeError{Err: fmt.Errorf("sample rate is mandatory")}
	}
	if format.Channels == 0 {
		return nil, &samplesource.DecodeError{Err: fmt.Errorf("channels must be greater than 0")}
	}

	readSize := defaultReadSize - defaultReadSize%format.frameSize()
	s := &Source{
		Format:     format,
		reader:     datacounter.NewReaderCounter(r),
		readBuf:    make([]byte, readSize),
		pending:    circular.NewBuffer(readSize + format.frameSize()),
		frameBuf:   make([]byte, readSize+format.frameSize()),
		totalBytes: totalBytes,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s, nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Source) SampleRate() audio.SampleRate {
	return s.Format.SampleRate
}

func (s *Source) NumSamples() int64 {
	return s.totalBytes / int64(s.Format.frameSize())
}

// BytesRead returns the amount of bytes consumed from the underlying reader.
func (s *Source) BytesRead() uint64 {
	return s.reader.Count()
}

func (s *Source) ReadSamples(p []float64) (int, error) {
	frameSize := s.Format.frameSize()
	for s.pendingBytes < frameSize {
		if s.err != nil {
			return 0, s.finalErr()
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
	}

	frames := min(len(p), s.pendingBytes/frameSize, len(s.frameBuf)/frameSize)
	raw := s.frameBuf[:frames*frameSize]
	for got := 0; got < len(raw); {
		n, err := s.pending.Read(raw[got:])
		if err != nil || n == 0 {
			return 0, fmt.Errorf("unable to read %d bytes from the circular buffer (got %d): %w", len(raw), got, err)
		}
		got += n
	}
	s.pendingBytes -= len(raw)

	sampleSize := int(s.Format.PCMFormat.Size())
	channels := int(s.Format.Channels)
	if cap(s.interleaved) < frames*channels {
		s.interleaved = make([]float64, frames*channels)
	}
	interleaved := s.interleaved[:frames*channels]
	for i := range interleaved {
		interleaved[i] = audio.DecodeSample(s.Format.PCMFormat, raw[i*sampleSize:])
	}
	return audio.DownmixInto(p, interleaved, s.Format.Channels), nil
}

func (s *Source) fill() error {
	n, err := s.reader.Read(s.readBuf)
	if n > 0 {
		w, wErr := s.pending.Write(s.readBuf[:n])
		if wErr != nil {
			return fmt.Errorf("unable to write to the circular buffer: %w", wErr)
		}
		if w != n {
			return fmt.Errorf("wrote != read: %d != %d", w, n)
		}
		s.pendingBytes += n
	}
	if err != nil {
		s.err = err
	}
	return nil
}

func (s *Source) finalErr() error {
	if errors.Is(s.err, io.EOF) {
		if s.pendingBytes > 0 {
			return &samplesource.IncompleteStreamError{
				SamplesRead: int64(s.reader.Count()) / int64(s.Format.frameSize()),
				Err:         fmt.Errorf("%d trailing bytes do not form a whole sample frame: %w", s.pendingBytes, io.ErrUnexpectedEOF),
			}
		}
		return io.EOF
	}
	return fmt.Errorf("unable to read the PCM stream: %w", s.err)
}
