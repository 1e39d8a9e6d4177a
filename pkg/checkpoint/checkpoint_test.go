package checkpoint_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/checkpoint"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/model"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/storage"
)

func newStore(t *testing.T) *checkpoint.Store {
	t.Helper()
	files, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return checkpoint.New(files, "")
}

func TestLoadWithoutCheckpoint(t *testing.T) {
	s := newStore(t)
	m, err := model.NewFIR(4, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), m); !errors.Is(err, checkpoint.ErrNoCheckpoint) {
		t.Fatalf("expected ErrNoCheckpoint, got %v", err)
	}
	ok, err := s.Exists(context.Background())
	if err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if s.Name() != checkpoint.DefaultName {
		t.Fatalf("name = %q", s.Name())
	}

	m, err := model.NewFIR(8, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	x := []float64{0.1, 0.2, -0.3, 0.05, 0, 0.4}
	y := []float64{0, 0.1, -0.1, 0, 0, 0.2}
	for range 5 {
		if _, err := m.TrainStep(x, y); err != nil {
			t.Fatal(err)
		}
	}

	saved := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	want := checkpoint.Progress{Run: "run-1", Epoch: 3, FileIndex: 20, Step: 5, Loss: 0.25, SavedAt: saved}
	if err := s.Save(ctx, m, want); err != nil {
		t.Fatal(err)
	}

	restored, err := model.NewFIR(8, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, restored)
	if err != nil {
		t.Fatal(err)
	}
	if got.Run != want.Run || got.Epoch != want.Epoch || got.FileIndex != want.FileIndex ||
		got.Step != want.Step || got.Loss != want.Loss || !got.SavedAt.Equal(saved) {
		t.Fatalf("progress = %+v, want %+v", got, want)
	}
	if !slices.Equal(restored.Weights(), m.Weights()) {
		t.Fatal("weights differ after restore")
	}
}

func TestSaveStampsTime(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m, err := model.NewFIR(2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	before := time.Now()
	if err := s.Save(ctx, m, checkpoint.Progress{}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if got.SavedAt.Before(before.Add(-time.Second)) {
		t.Fatalf("SavedAt = %v", got.SavedAt)
	}
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	files, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.WriteFile(ctx, files, "bad.ckpt", []byte("not msgpack")); err != nil {
		t.Fatal(err)
	}
	m, err := model.NewFIR(2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	_, err = checkpoint.New(files, "bad.ckpt").Load(ctx, m)
	if err == nil || errors.Is(err, checkpoint.ErrNoCheckpoint) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
