// Package checkpoint saves and restores model parameters together with the
// training position they were taken at.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/model"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/storage"
)

// DefaultName is the checkpoint file name inside the store.
const DefaultName = "model.ckpt"

const formatVersion = 1

// ErrNoCheckpoint is returned by Load when nothing has been saved yet.
var ErrNoCheckpoint = errors.New("checkpoint: no checkpoint")

// Progress is the training position recorded with a checkpoint.
type Progress struct {
	Run       string    `msgpack:"run" json:"run" yaml:"run"`
	Epoch     int       `msgpack:"epoch" json:"epoch" yaml:"epoch"`
	FileIndex int       `msgpack:"file_index" json:"file_index" yaml:"file_index"`
	Step      int64     `msgpack:"step" json:"step" yaml:"step"`
	Loss      float64   `msgpack:"loss" json:"loss" yaml:"loss"`
	SavedAt   time.Time `msgpack:"saved_at" json:"saved_at" yaml:"saved_at"`
}

type record struct {
	Version  int      `msgpack:"v"`
	Progress Progress `msgpack:"progress"`
	Model    []byte   `msgpack:"model"`
}

// Store keeps one checkpoint in a FileStore.
type Store struct {
	files storage.FileStore
	name  string
}

// New returns a Store writing name in files. An empty name uses DefaultName.
func New(files storage.FileStore, name string) *Store {
	if name == "" {
		name = DefaultName
	}
	return &Store{files: files, name: name}
}

// Name returns the checkpoint path within the store.
func (s *Store) Name() string { return s.name }

// Save replaces the checkpoint with the model's current parameters.
func (s *Store) Save(ctx context.Context, m model.Snapshotter, p Progress) error {
	snap, err := m.Snapshot()
	if err != nil {
		return fmt.Errorf("checkpoint: snapshot: %w", err)
	}
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now()
	}
	data, err := msgpack.Marshal(&record{Version: formatVersion, Progress: p, Model: snap})
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := storage.WriteFile(ctx, s.files, s.name, data); err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", s.name, err)
	}
	return nil
}

// Load restores m from the checkpoint and returns the saved progress.
func (s *Store) Load(ctx context.Context, m model.Snapshotter) (Progress, error) {
	data, err := storage.ReadFile(ctx, s.files, s.name)
	if errors.Is(err, fs.ErrNotExist) {
		return Progress{}, ErrNoCheckpoint
	}
	if err != nil {
		return Progress{}, fmt.Errorf("checkpoint: load %s: %w", s.name, err)
	}
	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return Progress{}, fmt.Errorf("checkpoint: decode %s: %w", s.name, err)
	}
	if rec.Version != formatVersion {
		return Progress{}, fmt.Errorf("checkpoint: %s has unsupported version %d", s.name, rec.Version)
	}
	if err := m.Restore(rec.Model); err != nil {
		return Progress{}, fmt.Errorf("checkpoint: restore %s: %w", s.name, err)
	}
	return rec.Progress, nil
}

// Exists reports whether a checkpoint has been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	return s.files.Exists(ctx, s.name)
}
