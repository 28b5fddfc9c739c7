// Package wav implements a sample source for RIFF/WAVE files with
// integer PCM payload.
package wav

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

const (
	wavFormatPCM = 1

	framesPerRead = 16384
)

type Source struct {
	decoder    *wav.Decoder
	closer     io.Closer
	sampleRate audio.SampleRate
	channels   audio.Channel
	bitDepth   int
	numSamples int64
	intBuf     *goaudio.IntBuffer
	floatBuf   []float64
	// left holds the already decoded mono samples not returned yet.
	left []float64
	err  error
}

var (
	_ samplesource.Source   = (*Source)(nil)
	_ samplesource.Lengther = (*Source)(nil)
)

func NewSource(r io.ReadSeeker, name string) (*Source, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		err := d.Err()
		if err == nil {
			err = errors.New("not a valid WAV file")
		}
		return nil, &samplesource.DecodeError{Input: name, Err: err}
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, &samplesource.DecodeError{Input: name, Err: fmt.Errorf("unsupported WAV audio format %d, only integer PCM is supported", d.WavAudioFormat)}
	}
	switch d.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, &samplesource.DecodeError{Input: name, Err: fmt.Errorf("unsupported bit depth %d", d.BitDepth)}
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, &samplesource.DecodeError{Input: name, Err: fmt.Errorf("invalid format: %d channels at %d Hz", d.NumChans, d.SampleRate)}
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, &samplesource.DecodeError{Input: name, Err: fmt.Errorf("unable to find the PCM chunk: %w", err)}
	}

	channels := int(d.NumChans)
	s := &Source{
		decoder:    d,
		sampleRate: audio.SampleRate(d.SampleRate),
		channels:   audio.Channel(channels),
		bitDepth:   int(d.BitDepth),
		numSamples: d.PCMLen() / int64(channels*int(d.BitDepth)/8),
		intBuf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  int(d.SampleRate),
			},
			Data:           make([]int, framesPerRead*channels),
			SourceBitDepth: int(d.BitDepth),
		},
		floatBuf: make([]float64, framesPerRead*channels),
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
	return s.sampleRate
}

func (s *Source) Channels() audio.Channel {
	return s.channels
}

func (s *Source) NumSamples() int64 {
	return s.numSamples
}

func (s *Source) ReadSamples(p []float64) (int, error) {
	if len(s.left) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		if err := s.decode(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.left)
	s.left = s.left[n:]
	return n, nil
}

func (s *Source) decode() error {
	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil {
		return fmt.Errorf("unable to decode PCM data: %w", err)
	}
	if n == 0 {
		return io.EOF
	}

	channels := int(s.channels)
	whole := n - n%channels
	scale := float64(int64(1) << (s.bitDepth - 1))
	for i, v := range s.intBuf.Data[:whole] {
		if s.bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		s.floatBuf[i] = float64(v) / scale
	}
	mono := s.floatBuf[:whole/channels]
	audio.DownmixInto(mono, s.floatBuf[:whole], s.channels)
	s.left = mono
	if whole != n {
		s.err = fmt.Errorf("%d trailing samples do not form a whole frame: %w", n-whole, io.ErrUnexpectedEOF)
	}
	if len(s.left) == 0 {
		return s.err
	}
	return nil
}

type Factory struct{}

var _ samplesource.Factory = Factory{}

func (Factory) NewSource(r io.ReadSeekCloser, name string) (samplesource.Source, error) {
	return NewSource(r, name)
}

func init() {
	samplesource.RegisterFactory(100, Factory{})
}
