package summary_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"slices"
	"testing"
	"time"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/summary"
)

func stores(t *testing.T) map[string]summary.Store {
	t.Helper()
	b, err := summary.NewBadger(summary.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return map[string]summary.Store{
		"memory": summary.NewMemory(),
		"badger": b,
	}
}

func collect(t *testing.T, s summary.Store, run, tag string) []summary.Scalar {
	t.Helper()
	var out []summary.Scalar
	for sc, err := range s.List(context.Background(), run, tag) {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, sc)
	}
	return out
}

func TestStoreOrdering(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, step := range []int64{100, 2, 30, 0, 1000} {
				if err := s.Add(ctx, summary.Scalar{
					Run: "r1", Tag: summary.TagLoss, Step: step,
					Value: float64(step) / 10, Time: now,
				}); err != nil {
					t.Fatal(err)
				}
			}
			if err := s.Add(ctx, summary.Scalar{Run: "r1", Tag: summary.TagTestLoss, Step: 5, Value: 0.5}); err != nil {
				t.Fatal(err)
			}
			if err := s.Add(ctx, summary.Scalar{Run: "r0", Tag: summary.TagLoss, Step: 1, Value: 9}); err != nil {
				t.Fatal(err)
			}

			var steps []int64
			for _, sc := range collect(t, s, "r1", summary.TagLoss) {
				steps = append(steps, sc.Step)
			}
			if !slices.Equal(steps, []int64{0, 2, 30, 100, 1000}) {
				t.Fatalf("steps = %v", steps)
			}

			if all := collect(t, s, "r1", ""); len(all) != 6 {
				t.Fatalf("run r1 has %d points, want 6", len(all))
			}

			last, err := s.Last(ctx, "r1", summary.TagLoss)
			if err != nil {
				t.Fatal(err)
			}
			if last.Step != 1000 || last.Value != 100 || !last.Time.Equal(now) {
				t.Fatalf("last = %+v", last)
			}

			runs, err := s.Runs(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(runs, []string{"r0", "r1"}) {
				t.Fatalf("runs = %v", runs)
			}
		})
	}
}

func TestStoreReplaceAndMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, v := range []float64{1, 2} {
				if err := s.Add(ctx, summary.Scalar{Run: "r", Tag: "loss", Step: 7, Value: v}); err != nil {
					t.Fatal(err)
				}
			}
			got := collect(t, s, "r", "loss")
			if len(got) != 1 || got[0].Value != 2 {
				t.Fatalf("points = %+v", got)
			}

			if _, err := s.Last(ctx, "r", "test_loss"); !errors.Is(err, summary.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if got := collect(t, s, "other", ""); len(got) != 0 {
				t.Fatalf("unknown run listed %v", got)
			}
		})
	}
}

func TestStorePrefixIsolation(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Add(ctx, summary.Scalar{Run: "run", Tag: "loss", Step: 1}); err != nil {
				t.Fatal(err)
			}
			if err := s.Add(ctx, summary.Scalar{Run: "run2", Tag: "loss", Step: 1}); err != nil {
				t.Fatal(err)
			}
			if got := collect(t, s, "run", ""); len(got) != 1 {
				t.Fatalf("run lists %d points, want 1", len(got))
			}
			runs, err := s.Runs(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(runs, []string{"run", "run2"}) {
				t.Fatalf("runs = %v", runs)
			}
		})
	}
}

func TestStoreInvalidNames(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, sc := range []summary.Scalar{
				{Run: "", Tag: "loss"},
				{Run: "a:b", Tag: "loss"},
				{Run: "r", Tag: ""},
				{Run: "r", Tag: "x:y"},
			} {
				if err := s.Add(ctx, sc); !errors.Is(err, summary.ErrInvalidName) {
					t.Fatalf("Add(%+v): expected ErrInvalidName, got %v", sc, err)
				}
			}
			if err := s.Add(ctx, summary.Scalar{Run: "r", Tag: "loss", Step: -1}); err == nil {
				t.Fatal("negative step accepted")
			}
			for _, err := range s.List(ctx, "", "") {
				if !errors.Is(err, summary.ErrInvalidName) {
					t.Fatalf("List: expected ErrInvalidName, got %v", err)
				}
			}
		})
	}
}

func TestBadgerPersists(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "summaries")

	b, err := summary.NewBadger(summary.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Add(ctx, summary.Scalar{Run: "r", Tag: "loss", Step: 3, Value: 0.3}); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b, err = summary.NewBadger(summary.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	last, err := b.Last(ctx, "r", "loss")
	if err != nil {
		t.Fatal(err)
	}
	if last.Value != 0.3 {
		t.Fatalf("last = %+v", last)
	}
}

func TestNewBadgerRequiresDir(t *testing.T) {
	if _, err := summary.NewBadger(summary.BadgerOptions{}); err == nil {
		t.Fatal("expected error without Dir")
	}
}

func TestNewRunID(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	id := summary.NewRunID(now)
	if !regexp.MustCompile(`^run-20240301123045-[0-9a-f]{8}$`).MatchString(id) {
		t.Fatalf("id = %q", id)
	}
	if summary.NewRunID(now) == id {
		t.Fatal("run ids collide")
	}
}
