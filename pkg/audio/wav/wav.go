// Package wav reads and writes uncompressed PCM WAV files as pcm.Buffer
// values.
//
// Samples are kept at the integer scale the file declares. A 32-bit file
// yields values spanning the full int32 range; a 16-bit file yields values in
// the int16 range, which normalize to a correspondingly smaller amplitude.
// Unsigned 8-bit samples are shifted to be centered on zero.
// Multi-channel files are downmixed to mono by averaging the channels.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/pcm"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE

	// 8-bit PCM is stored unsigned around this midpoint.
	offset8 = 128
)

var (
	// ErrInvalidFile is returned when the input is not a RIFF/WAVE file.
	ErrInvalidFile = errors.New("wav: invalid file")

	// ErrUnsupportedFormat is returned for compressed or floating point data.
	ErrUnsupportedFormat = errors.New("wav: unsupported sample format")
)

// Decode reads a complete WAV stream into a mono Buffer.
func Decode(r io.ReadSeeker) (*pcm.Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return nil, ErrInvalidFile
	}
	if d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: decode: %w", err)
	}

	if d.BitDepth == 8 {
		for i := range ib.Data {
			ib.Data[i] -= offset8
		}
	}

	channels := int(d.NumChans)
	if ib.Format != nil && ib.Format.NumChannels > 0 {
		channels = ib.Format.NumChannels
	}
	if channels < 1 {
		channels = 1
	}

	return &pcm.Buffer{
		Format: pcm.Format{
			SampleRate: int(d.SampleRate),
			Channels:   channels,
			Depth:      int(d.BitDepth),
		},
		Samples: downmix(ib.Data, channels),
	}, nil
}

// ReadFile opens and decodes the WAV file at path.
func ReadFile(path string) (*pcm.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// Encode writes buf as a mono PCM WAV stream. A zero Depth defaults to 32.
// Samples of an 8-bit buffer are signed and stored offset by 128.
func Encode(w io.WriteSeeker, buf *pcm.Buffer) error {
	depth := buf.Format.Depth
	if depth == 0 {
		depth = 32
	}
	enc := wav.NewEncoder(w, buf.Format.SampleRate, depth, 1, formatPCM)

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(s)
		if depth == 8 {
			data[i] += offset8
		}
	}
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: buf.Format.SampleRate},
		Data:           data,
		SourceBitDepth: depth,
	}
	if err := enc.Write(ib); err != nil {
		enc.Close()
		return fmt.Errorf("wav: encode: %w", err)
	}
	return enc.Close()
}

// WriteFile encodes buf into a new file at path, truncating any existing one.
func WriteFile(path string, buf *pcm.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// downmix averages interleaved frames into one channel.
func downmix(data []int, channels int) []int32 {
	if channels == 1 {
		out := make([]int32, len(data))
		for i, v := range data {
			out[i] = int32(v)
		}
		return out
	}

	frames := len(data) / channels
	out := make([]int32, frames)
	for i := range frames {
		var sum int64
		for c := range channels {
			sum += int64(data[i*channels+c])
		}
		out[i] = int32(sum / int64(channels))
	}
	return out
}
