// Package audio turns speech payloads from the AI provider into playable
// buffers, plays them through a lazily created output context and caches
// pronunciations between requests.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// Speech payloads are signed 16-bit little-endian PCM
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	bytesPerSample    = 2
)

var ErrOddLength = errors.New("pcm payload has an odd number of bytes")

// Buffer holds decoded samples per channel in the range [-1, 1)
type Buffer struct {
	SampleRate int
	Channels   int
	Data       [][]float32
}

// DecodePCM16 converts interleaved int16 LE samples into a Buffer.
// A trailing partial frame is dropped.
func DecodePCM16(data []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if len(data)%bytesPerSample != 0 {
		return nil, ErrOddLength
	}

	frames := len(data) / bytesPerSample / channels
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Data:       make([][]float32, channels),
	}
	for c := range buf.Data {
		buf.Data[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * bytesPerSample
			sample := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Data[c][i] = float32(sample) / 32768.0
		}
	}
	return buf, nil
}

// Frames returns the number of samples per channel
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// PCM16 re-encodes the buffer as interleaved int16 LE samples
func (b *Buffer) PCM16() []byte {
	frames := b.Frames()
	out := make([]byte, frames*b.Channels*bytesPerSample)
	for i := 0; i < frames; i++ {
		for c := 0; c < b.Channels; c++ {
			off := (i*b.Channels + c) * bytesPerSample
			binary.LittleEndian.PutUint16(out[off:], uint16(toInt16(b.Data[c][i])))
		}
	}
	return out
}

func toInt16(s float32) int16 {
	v := math.Round(float64(s) * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// WriteWAV writes the buffer as a canonical 44-byte-header PCM WAV file
func (b *Buffer) WriteWAV(w io.Writer) error {
	pcm := b.PCM16()
	byteRate := b.SampleRate * b.Channels * bytesPerSample

	header := struct {
		ChunkID       [4]byte
		ChunkSize     uint32
		Format        [4]byte
		Subchunk1ID   [4]byte
		Subchunk1Size uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Subchunk2ID   [4]byte
		Subchunk2Size uint32
	}{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(b.Channels),
		SampleRate:    uint32(b.SampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(b.Channels * bytesPerSample),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return nil
}
