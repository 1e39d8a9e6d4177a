package dataset

import (
	"context"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/pcm"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/wav"
)

// Loader decodes one audio file.
type Loader interface {
	Load(ctx context.Context, path string) (*pcm.Buffer, error)
}

var _ Loader = LoaderFunc(nil)

// LoaderFunc is a function that implements the Loader interface.
type LoaderFunc func(ctx context.Context, path string) (*pcm.Buffer, error)

// Load implements the Loader interface.
func (f LoaderFunc) Load(ctx context.Context, path string) (*pcm.Buffer, error) {
	return f(ctx, path)
}

// WAVLoader reads PCM WAV files from the local filesystem.
var WAVLoader Loader = LoaderFunc(func(ctx context.Context, path string) (*pcm.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return wav.ReadFile(path)
})
