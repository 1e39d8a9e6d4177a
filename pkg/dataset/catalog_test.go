package dataset_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
)

// makeTree creates n empty files under dir, spread over a nested layout.
func makeTree(t *testing.T, dir string, n int) {
	t.Helper()
	for i := range n {
		sub := dir
		if i%2 == 1 {
			sub = filepath.Join(dir, "nested")
		}
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		name := filepath.Join(sub, fmt.Sprintf("file%02d.wav", i))
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildSplitsTestSubset(t *testing.T) {
	root := t.TempDir()
	xDir := filepath.Join(root, "X_data")
	yDir := filepath.Join(root, "y_data")
	makeTree(t, xDir, 5)
	makeTree(t, yDir, 5)

	cat, err := dataset.Build(xDir, yDir, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cat.Train) != 3 {
		t.Fatalf("train = %d pairs, want 3", len(cat.Train))
	}
	if len(cat.Test) != 2 {
		t.Fatalf("test = %d pairs, want 2", len(cat.Test))
	}
	if cat.Total() != 5 {
		t.Fatalf("Total = %d, want 5", cat.Total())
	}

	inputs, err := dataset.ListFiles(xDir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range append(slices.Clone(cat.Test), cat.Train...) {
		got = append(got, p.Input)
	}
	if !slices.Equal(got, inputs) {
		t.Fatalf("pair order %v does not follow enumeration %v", got, inputs)
	}
}

func TestBuildMismatch(t *testing.T) {
	root := t.TempDir()
	xDir := filepath.Join(root, "X_data")
	yDir := filepath.Join(root, "y_data")
	makeTree(t, xDir, 4)
	makeTree(t, yDir, 5)

	cat, err := dataset.Build(xDir, yDir, 2)
	if cat != nil {
		t.Fatal("expected no catalog on mismatch")
	}
	if !errors.Is(err, dataset.ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	var me *dataset.MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if me.Inputs != 4 || me.Labels != 5 {
		t.Fatalf("counts = %d/%d, want 4/5", me.Inputs, me.Labels)
	}
}

func TestBuildStableOrder(t *testing.T) {
	root := t.TempDir()
	xDir := filepath.Join(root, "X_data")
	yDir := filepath.Join(root, "y_data")
	makeTree(t, xDir, 7)
	makeTree(t, yDir, 7)

	a, err := dataset.Build(xDir, yDir, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := dataset.Build(xDir, yDir, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Train, b.Train) || !slices.Equal(a.Test, b.Test) {
		t.Fatal("rescanning an unchanged tree changed the pairing")
	}
}

func TestBuildMissingDir(t *testing.T) {
	root := t.TempDir()
	_, err := dataset.Build(filepath.Join(root, "nope"), root, 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestSplitProperties(t *testing.T) {
	for total := 0; total <= 6; total++ {
		for nTest := 0; nTest <= 8; nTest++ {
			inputs := make([]string, total)
			labels := make([]string, total)
			for i := range total {
				inputs[i] = fmt.Sprintf("x%d", i)
				labels[i] = fmt.Sprintf("y%d", i)
			}
			cat, err := dataset.Split("X", "y", inputs, labels, nTest)
			if err != nil {
				t.Fatalf("Split(%d, %d): %v", total, nTest, err)
			}
			if cat.Total() != total {
				t.Fatalf("Split(%d, %d): total = %d", total, nTest, cat.Total())
			}
			if want := min(nTest, total); len(cat.Test) != want {
				t.Fatalf("Split(%d, %d): test = %d, want %d", total, nTest, len(cat.Test), want)
			}
			for i, p := range cat.Train {
				if p.Input[1:] != p.Label[1:] {
					t.Fatalf("Split(%d, %d): train[%d] misaligned: %+v", total, nTest, i, p)
				}
			}
		}
	}
}

func TestSplitMismatchWithinTestCount(t *testing.T) {
	// Both lists fit inside the test subset; the counts still have to agree.
	_, err := dataset.Split("X", "y", []string{"X/a.wav"}, []string{"y/a.wav", "y/b.wav"}, 2)
	if !errors.Is(err, dataset.ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestSplitNegativeTestCount(t *testing.T) {
	_, err := dataset.Split("X", "y", nil, nil, -1)
	if !errors.Is(err, dataset.ErrNegativeTestCount) {
		t.Fatalf("expected ErrNegativeTestCount, got %v", err)
	}
}
