package scorer

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindUndefined = Kind("")
	KindAuto      = Kind("auto")
	KindDirect    = Kind("direct")
	KindFFT       = Kind("fft")
)

func (k Kind) String() string {
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAuto, KindDirect, KindFFT:
		return k, nil
	case KindUndefined:
		return KindAuto, nil
	default:
		return KindUndefined, fmt.Errorf("unknown scorer '%s', expected one of: auto, direct, fft", s)
	}
}

// Set implements pflag.Value.
func (k *Kind) Set(s string) error {
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Type implements pflag.Value.
func (k *Kind) Type() string {
	return "scorer"
}
