// Package wav reads and writes minimal RIFF/WAVE PCM files as mono float64
// buffers. It understands 8/16/24/32-bit integer PCM and 32-bit float PCM,
// which covers everything the ingest limits accept.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

// Info describes a decoded recording.
type Info struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	Float       bool
	Frames      int
	DurationSec float64
}

// Buffer is a mono audio buffer with its sample rate.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Probe reads only the header of a WAV file and reports its format.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	info, _, err := readHeader(f)
	return info, err
}

// Decode reads a WAV file and downmixes it to a mono float64 buffer in
// [-1, 1].
func Decode(path string) (Buffer, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, Info{}, err
	}
	defer f.Close()

	info, data, err := readHeader(f)
	if err != nil {
		return Buffer{}, Info{}, err
	}

	raw := make([]byte, data)
	if _, err := io.ReadFull(f, raw); err != nil {
		return Buffer{}, Info{}, fmt.Errorf("read samples: %w", err)
	}

	samples, err := decodeSamples(raw, info)
	if err != nil {
		return Buffer{}, Info{}, err
	}
	return Buffer{Samples: samples, SampleRate: info.SampleRate}, info, nil
}

// Encode writes a mono buffer as 16-bit PCM.
func Encode(path string, buf Buffer) error {
	if buf.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	dataLen := len(buf.Samples) * 2
	header := make([]byte, 0, 44)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataLen))
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, formatPCM)
	header = binary.LittleEndian.AppendUint16(header, 1)
	header = binary.LittleEndian.AppendUint32(header, uint32(buf.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(buf.SampleRate*2))
	header = binary.LittleEndian.AppendUint16(header, 2)
	header = binary.LittleEndian.AppendUint16(header, 16)
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataLen))

	out := make([]byte, len(header), len(header)+dataLen)
	copy(out, header)
	for _, sample := range buf.Samples {
		clamped := math.Max(-1, math.Min(1, sample))
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(clamped*math.MaxInt16)))
	}
	return os.WriteFile(path, out, 0o644)
}

func readHeader(r io.Reader) (Info, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Info{}, 0, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Info{}, 0, errors.New("not a RIFF/WAVE file")
	}

	var (
		info     Info
		haveFmt  bool
		format   uint16
		chunkHdr [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			return Info{}, 0, fmt.Errorf("read chunk header: %w", err)
		}
		chunkID := string(chunkHdr[0:4])
		chunkLen := int(binary.LittleEndian.Uint32(chunkHdr[4:8]))

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return Info{}, 0, errors.New("fmt chunk too short")
			}
			fmtData := make([]byte, chunkLen)
			if _, err := io.ReadFull(r, fmtData); err != nil {
				return Info{}, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			format = binary.LittleEndian.Uint16(fmtData[0:2])
			info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
			info.BitDepth = int(binary.LittleEndian.Uint16(fmtData[14:16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return Info{}, 0, errors.New("data chunk before fmt chunk")
			}
			if format != formatPCM && format != formatIEEEFloat {
				return Info{}, 0, fmt.Errorf("unsupported wav format code %d", format)
			}
			info.Float = format == formatIEEEFloat
			if info.Channels < 1 || info.BitDepth < 8 {
				return Info{}, 0, errors.New("malformed fmt chunk")
			}
			frameSize := info.Channels * info.BitDepth / 8
			if frameSize > 0 {
				info.Frames = chunkLen / frameSize
			}
			if info.SampleRate > 0 {
				info.DurationSec = float64(info.Frames) / float64(info.SampleRate)
			}
			return info, chunkLen, nil
		default:
			skip := int64(chunkLen)
			if skip%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Info{}, 0, fmt.Errorf("skip chunk %q: %w", chunkID, err)
			}
		}
	}
}

func decodeSamples(raw []byte, info Info) ([]float64, error) {
	bytesPer := info.BitDepth / 8
	frameSize := info.Channels * bytesPer
	if frameSize == 0 || len(raw) < frameSize {
		return nil, nil
	}
	frames := len(raw) / frameSize

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < info.Channels; ch++ {
			offset := i*frameSize + ch*bytesPer
			value, err := sampleAt(raw, offset, info.BitDepth, info.Float)
			if err != nil {
				return nil, err
			}
			sum += value
		}
		samples[i] = sum / float64(info.Channels)
	}
	return samples, nil
}

func sampleAt(raw []byte, offset, bitDepth int, isFloat bool) (float64, error) {
	switch bitDepth {
	case 8:
		// 8-bit wav is unsigned
		return (float64(raw[offset]) - 128) / 128, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(raw[offset:]))
		return float64(v) / math.MaxInt16, nil
	case 24:
		v := int32(raw[offset]) | int32(raw[offset+1])<<8 | int32(raw[offset+2])<<16
		if v&0x800000 != 0 {
			v |= ^int32(0xFFFFFF)
		}
		return float64(v) / float64(1<<23), nil
	case 32:
		bits := binary.LittleEndian.Uint32(raw[offset:])
		if isFloat {
			return float64(math.Float32frombits(bits)), nil
		}
		return float64(int32(bits)) / math.MaxInt32, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}
