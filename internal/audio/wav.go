// Package audio encodes raw PCM speech into WAV containers.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// WAV header layout constants.
const (
	HeaderSize = 44

	riffSizeOffset = 36 // RIFF chunk size = 36 + data size
	fmtChunkSize   = 16
	formatPCM      = 1
	bitsPerByte    = 8
)

// Gemini TTS output format.
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	DefaultBitDepth   = 16
)

var (
	// ErrUnsupportedFormat is returned for anything other than 16-bit PCM
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrOddPCMLength is returned when PCM data does not hold whole samples
	ErrOddPCMLength = errors.New("pcm data length is not a multiple of the block size")
	// ErrInvalidWAV is returned when decoding bytes that are not a canonical PCM WAV
	ErrInvalidWAV = errors.New("invalid wav data")
)

// Format describes a linear PCM stream.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is mono 16-bit PCM at 24kHz.
var DefaultFormat = Format{
	SampleRate: DefaultSampleRate,
	Channels:   DefaultChannels,
	BitDepth:   DefaultBitDepth,
}

// BlockAlign returns the number of bytes per sample frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitDepth / bitsPerByte
}

// ByteRate returns the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns the playback length of dataSize bytes of PCM.
func (f Format) Duration(dataSize int) time.Duration {
	if f.ByteRate() == 0 {
		return 0
	}
	return time.Duration(int64(dataSize) * int64(time.Second) / int64(f.ByteRate()))
}

// Validate checks that f is a format this package can encode.
func (f Format) Validate() error {
	if f.Channels > math.MaxUint16 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.BitDepth != DefaultBitDepth {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitDepth)
	}
	if f.Channels < 1 || f.BlockAlign() > math.MaxUint16 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	if f.SampleRate <= 0 || int64(f.SampleRate)*int64(f.BlockAlign()) > math.MaxUint32 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	return nil
}

// checkDataSize rejects PCM too large for the 32-bit RIFF size fields.
func checkDataSize(n int64) error {
	if n > math.MaxUint32-riffSizeOffset {
		return fmt.Errorf("%w: %d bytes of PCM exceed the WAV size limit", ErrUnsupportedFormat, n)
	}
	return nil
}

// EncodeWAV wraps little-endian PCM in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := checkDataSize(int64(len(pcm))); err != nil {
		return nil, err
	}
	if len(pcm)%f.BlockAlign() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddPCMLength, len(pcm))
	}

	dataSize := len(pcm)
	wav := make([]byte, HeaderSize+dataSize)

	// RIFF chunk descriptor
	copy(wav[0:4], "RIFF")
	binary.LittleEndian.PutUint32(wav[4:8], uint32(riffSizeOffset+dataSize))
	copy(wav[8:12], "WAVE")

	// "fmt " sub-chunk
	copy(wav[12:16], "fmt ")
	binary.LittleEndian.PutUint32(wav[16:20], fmtChunkSize)
	binary.LittleEndian.PutUint16(wav[20:22], formatPCM)
	binary.LittleEndian.PutUint16(wav[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(wav[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(wav[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(wav[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(wav[34:36], uint16(f.BitDepth))

	// "data" sub-chunk
	copy(wav[36:40], "data")
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataSize))
	copy(wav[HeaderSize:], pcm)

	return wav, nil
}

// EncodeSamples encodes interleaved 16-bit samples as WAV.
func EncodeSamples(samples []int16, f Format) ([]byte, error) {
	return EncodeWAV(SamplesToPCM(samples), f)
}

// DecodeWAV parses a canonical 44-byte-header PCM WAV produced by EncodeWAV.
func DecodeWAV(data []byte) (Format, []int16, error) {
	if len(data) < HeaderSize {
		return Format{}, nil, fmt.Errorf("%w: %d bytes", ErrInvalidWAV, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" ||
		string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Format{}, nil, fmt.Errorf("%w: missing chunk identifiers", ErrInvalidWAV)
	}
	if binary.LittleEndian.Uint16(data[20:22]) != formatPCM {
		return Format{}, nil, fmt.Errorf("%w: not linear pcm", ErrUnsupportedFormat)
	}

	f := Format{
		Channels:   int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(data[24:28])),
		BitDepth:   int(binary.LittleEndian.Uint16(data[34:36])),
	}
	if err := f.Validate(); err != nil {
		return Format{}, nil, err
	}

	dataSize := int(binary.LittleEndian.Uint32(data[40:44]))
	if dataSize > len(data)-HeaderSize {
		return Format{}, nil, fmt.Errorf("%w: data chunk claims %d bytes, have %d",
			ErrInvalidWAV, dataSize, len(data)-HeaderSize)
	}

	samples, err := PCMToSamples(data[HeaderSize : HeaderSize+dataSize])
	if err != nil {
		return Format{}, nil, err
	}
	return f, samples, nil
}

// SamplesToPCM serializes samples as little-endian bytes.
func SamplesToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// PCMToSamples reads little-endian 16-bit samples.
func PCMToSamples(pcm []byte) ([]int16, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddPCMLength, len(pcm))
	}
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples, nil
}

// PCM16ToFloat scales a sample to [-1, 1).
func PCM16ToFloat(s int16) float32 {
	return float32(s) / 32768.0
}

// FloatToPCM16 clamps v to [-1, 1] and scales it asymmetrically so that
// -1 maps to -32768 and 1 maps to 32767.
func FloatToPCM16(v float32) int16 {
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	if v < 0 {
		return int16(v * 0x8000)
	}
	return int16(v * 0x7FFF)
}

// ParseMIMEFormat reads the sample rate from a provider MIME type such as
// "audio/L16;codec=pcm;rate=24000". Missing or malformed parameters fall back
// to DefaultFormat values.
func ParseMIMEFormat(mimeType string) Format {
	f := DefaultFormat
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "rate":
			if rate, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && rate > 0 {
				f.SampleRate = rate
			}
		case "channels":
			if ch, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && ch > 0 {
				f.Channels = ch
			}
		}
	}
	return f
}
