package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeSample converts a single sample of format f stored at the beginning
// of p into a float64 in the range [-1, 1].
func DecodeSample(f PCMFormat, p []byte) float64 {
	switch f {
	case PCMFormatU8:
		return (float64(p[0]) - 128) / 128
	case PCMFormatS16LE:
		return float64(int16(binary.LittleEndian.Uint16(p))) / 32768
	case PCMFormatS16BE:
		return float64(int16(binary.BigEndian.Uint16(p))) / 32768
	case PCMFormatS24LE:
		val := int32(uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16)
		if val&0x800000 != 0 {
			val |= -16777216
		}
		return float64(val) / 8388608
	case PCMFormatS24BE:
		val := int32(uint32(p[2]) | uint32(p[1])<<8 | uint32(p[0])<<16)
		if val&0x800000 != 0 {
			val |= -16777216
		}
		return float64(val) / 8388608
	case PCMFormatS32LE:
		return float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648
	case PCMFormatS32BE:
		return float64(int32(binary.BigEndian.Uint32(p))) / 2147483648
	case PCMFormatS64LE:
		return float64(int64(binary.LittleEndian.Uint64(p))) / 9223372036854775808
	case PCMFormatS64BE:
		return float64(int64(binary.BigEndian.Uint64(p))) / 9223372036854775808
	case PCMFormatFloat32LE:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case PCMFormatFloat32BE:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
	case PCMFormatFloat64LE:
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	case PCMFormatFloat64BE:
		return math.Float64frombits(binary.BigEndian.Uint64(p))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

// EncodeSample is the inverse of DecodeSample. Integer formats are clamped.
func EncodeSample(f PCMFormat, p []byte, v float64) {
	switch f {
	case PCMFormatU8:
		p[0] = byte(clamp(math.Round(v*128+128), 0, 255))
	case PCMFormatS16LE:
		binary.LittleEndian.PutUint16(p, uint16(int16(clamp(math.Round(v*32768), math.MinInt16, math.MaxInt16))))
	case PCMFormatS16BE:
		binary.BigEndian.PutUint16(p, uint16(int16(clamp(math.Round(v*32768), math.MinInt16, math.MaxInt16))))
	case PCMFormatS24LE:
		val := int32(clamp(math.Round(v*8388608), -8388608, 8388607))
		p[0] = byte(val)
		p[1] = byte(val >> 8)
		p[2] = byte(val >> 16)
	case PCMFormatS24BE:
		val := int32(clamp(math.Round(v*8388608), -8388608, 8388607))
		p[0] = byte(val >> 16)
		p[1] = byte(val >> 8)
		p[2] = byte(val)
	case PCMFormatS32LE:
		binary.LittleEndian.PutUint32(p, uint32(int32(clamp(math.Round(v*2147483648), math.MinInt32, math.MaxInt32))))
	case PCMFormatS32BE:
		binary.BigEndian.PutUint32(p, uint32(int32(clamp(math.Round(v*2147483648), math.MinInt32, math.MaxInt32))))
	case PCMFormatS64LE:
		binary.LittleEndian.PutUint64(p, uint64(int64(math.Round(v*9223372036854775807))))
	case PCMFormatS64BE:
		binary.BigEndian.PutUint64(p, uint64(int64(math.Round(v*9223372036854775807))))
	case PCMFormatFloat32LE:
		binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v)))
	case PCMFormatFloat32BE:
		binary.BigEndian.PutUint32(p, math.Float32bits(float32(v)))
	case PCMFormatFloat64LE:
		binary.LittleEndian.PutUint64(p, math.Float64bits(v))
	case PCMFormatFloat64BE:
		binary.BigEndian.PutUint64(p, math.Float64bits(v))
	default:
		panic(fmt.Sprintf("unknown format: %v", f))
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DownmixInto averages every interleaved frame of channels samples from
// src into a single mono sample in dst. It returns the amount of mono
// samples written.
func DownmixInto(dst []float64, src []float64, channels Channel) int {
	if channels <= 1 {
		return copy(dst, src)
	}
	ch := int(channels)
	n := min(len(dst), len(src)/ch)
	for i := 0; i < n; i++ {
		var sum float64
		for _, v := range src[i*ch : (i+1)*ch] {
			sum += v
		}
		dst[i] = sum / float64(ch)
	}
	return n
}
