// Package vorbis implements a sample source for Ogg/Vorbis streams.
package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/vodsync/pkg/audio"
	"github.com/xaionaro-go/vodsync/pkg/samplesource"
)

const (
	framesPerRead = 8192
)

type Source struct {
	reader   *oggvorbis.Reader
	closer   io.Closer
	channels audio.Channel
	buf      []float32
	floatBuf []float64
	left     []float64
	err      error
}

var (
	_ samplesource.Source   = (*Source)(nil)
	_ samplesource.Lengther = (*Source)(nil)
)

func NewSource(r io.Reader, name string) (*Source, error) {
	oggReader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, &samplesource.DecodeError{Input: name, Err: fmt.Errorf("unable to initialize a vorbis reader: %w", err)}
	}
	channels := oggReader.Channels()
	if channels <= 0 || oggReader.SampleRate() <= 0 {
		return nil, &samplesource.DecodeError{Input: name, Err: fmt.Errorf("invalid format: %d channels at %d Hz", channels, oggReader.SampleRate())}
	}
	s := &Source{
		reader:   oggReader,
		channels: audio.Channel(channels),
		buf:      make([]float32, framesPerRead*channels),
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
	return audio.SampleRate(s.reader.SampleRate())
}

func (s *Source) Channels() audio.Channel {
	return s.channels
}

// NumSamples returns zero if the length is unknown.
func (s *Source) NumSamples() int64 {
	return s.reader.Length()
}

func (s *Source) ReadSamples(p []float64) (int, error) {
	for len(s.left) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.decode()
	}
	n := copy(p, s.left)
	s.left = s.left[n:]
	return n, nil
}

func (s *Source) decode() {
	n, err := s.reader.Read(s.buf)
	channels := int(s.channels)
	whole := n - n%channels
	for i, v := range s.buf[:whole] {
		s.floatBuf[i] = float64(v)
	}
	mono := s.floatBuf[:whole/channels]
	audio.DownmixInto(mono, s.floatBuf[:whole], s.channels)
	s.left = mono

	switch {
	case err == io.EOF:
		s.err = io.EOF
	case err != nil:
		s.err = fmt.Errorf("unable to decode the vorbis stream: %w", err)
	case n == 0:
		s.err = fmt.Errorf("the vorbis decoder made no progress: %w", io.ErrNoProgress)
	}
	if whole != n && s.err == nil {
		s.err = fmt.Errorf("%d trailing samples do not form a whole frame: %w", n-whole, io.ErrUnexpectedEOF)
	}
}

type Factory struct{}

var _ samplesource.Factory = Factory{}

func (Factory) NewSource(r io.ReadSeekCloser, name string) (samplesource.Source, error) {
	return NewSource(r, name)
}

func init() {
	samplesource.RegisterFactory(50, Factory{})
}
