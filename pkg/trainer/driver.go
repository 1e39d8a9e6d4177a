package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/buffer"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/checkpoint"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/cli"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/dataset"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/model"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/summary"
)

// Result describes a finished run.
type Result struct {
	Run          string        `json:"run" yaml:"run"`
	Epochs       int           `json:"epochs" yaml:"epochs"`
	Steps        int64         `json:"steps" yaml:"steps"`
	FilesVisited int           `json:"files_visited" yaml:"files_visited"`
	Loss         float64       `json:"loss" yaml:"loss"`
	TestLoss     *float64      `json:"test_loss,omitempty" yaml:"test_loss,omitempty"`
	Checkpoints  int           `json:"checkpoints" yaml:"checkpoints"`
	Generated    []string      `json:"generated,omitempty" yaml:"generated,omitempty"`
	Resumed      bool          `json:"resumed" yaml:"resumed"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Table renders the result as key/value rows.
func (r Result) Table() cli.Table {
	t := cli.Table{Headers: []string{"FIELD", "VALUE"}}
	add := func(k, v string) { t.Rows = append(t.Rows, []string{k, v}) }
	add("run", r.Run)
	add("epochs", strconv.Itoa(r.Epochs))
	add("steps", strconv.FormatInt(r.Steps, 10))
	add("files visited", strconv.Itoa(r.FilesVisited))
	add("loss", strconv.FormatFloat(r.Loss, 'g', 6, 64))
	if r.TestLoss != nil {
		add("test loss", strconv.FormatFloat(*r.TestLoss, 'g', 6, 64))
	}
	add("checkpoints", strconv.Itoa(r.Checkpoints))
	add("elapsed", cli.FormatDuration(r.Elapsed))
	return t
}

// Option configures a Driver.
type Option func(*Driver)

// WithModel replaces the FIR model built from the config.
func WithModel(m model.Snapshotter) Option {
	return func(d *Driver) { d.model = m }
}

// WithCheckpoints enables checkpointing. Without it the driver saves nothing
// and cannot resume.
func WithCheckpoints(s *checkpoint.Store) Option {
	return func(d *Driver) { d.ckpt = s }
}

// WithSummaries records loss curves into s.
func WithSummaries(s summary.Store) Option {
	return func(d *Driver) { d.sums = s }
}

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithLoader replaces the WAV loader for both training and evaluation.
func WithLoader(l dataset.Loader) Option {
	return func(d *Driver) { d.loader = l }
}

// WithRunID names the run. The default is summary.NewRunID.
func WithRunID(id string) Option {
	return func(d *Driver) { d.run = id }
}

// WithWarningHandler receives the cursor's data integrity warnings.
func WithWarningHandler(h dataset.WarningHandler) Option {
	return func(d *Driver) { d.warn = h }
}

// Driver trains a model over a catalog.
type Driver struct {
	cfg     Config
	catalog *dataset.Catalog

	model  model.Snapshotter
	ckpt   *checkpoint.Store
	sums   summary.Store
	logger *slog.Logger
	loader dataset.Loader
	warn   dataset.WarningHandler
	run    string
	now    func() time.Time
}

// NewDriver validates cfg and prepares a run over catalog.
func NewDriver(cfg Config, catalog *dataset.Catalog, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, errors.New("trainer: nil catalog")
	}
	d := &Driver{cfg: cfg, catalog: catalog, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.run == "" {
		d.run = summary.NewRunID(d.now())
	}
	if d.model == nil {
		m, err := model.NewFIR(cfg.Taps, cfg.LearningRate)
		if err != nil {
			return nil, err
		}
		d.model = m
	}
	return d, nil
}

// RunID returns the run name used for summaries and checkpoints.
func (d *Driver) RunID() string { return d.run }

// Model returns the model being trained.
func (d *Driver) Model() model.Snapshotter { return d.model }

// visit identifies one pass of the cursor over one file.
type visit struct {
	epoch, file int
}

// Run trains until the epoch counter passes Config.Epochs or ctx is
// cancelled. Any cursor, model, checkpoint or summary error stops the run and
// is returned along with the partial Result.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	start := d.now()
	res := Result{Run: d.run}
	log := d.logger.With("run", d.run)

	var step int64
	if d.cfg.Resume {
		p, err := d.resume(ctx)
		if err != nil {
			return res, err
		}
		if p != nil {
			step = p.Step
			res.Resumed = true
			log.Info("resumed from checkpoint", "epoch", p.Epoch, "file", p.FileIndex, "step", p.Step)
		}
	}

	opts := []dataset.CursorOption{
		dataset.WithWindow(d.cfg.Window),
		dataset.WithCoverage(d.cfg.CoverageMode()),
		dataset.WithLabelRateAlignment(d.cfg.AlignLabelRate),
		dataset.WithLogger(log),
	}
	if d.loader != nil {
		opts = append(opts, dataset.WithLoader(d.loader))
	}
	if d.warn != nil {
		opts = append(opts, dataset.WithWarningHandler(d.warn))
	}
	cursor, err := dataset.NewCursor(d.catalog.Train, opts...)
	if err != nil {
		return res, err
	}

	log.Info("training started",
		"train_files", len(d.catalog.Train),
		"test_files", len(d.catalog.Test),
		"epochs", d.cfg.Epochs,
		"coverage", cursor.Coverage(),
	)

	window := buffer.RingN[float64](d.cfg.LossWindow)
	var last visit
	lastEpoch := cursor.Epoch()

	for cursor.Epoch() <= d.cfg.Epochs {
		if err := ctx.Err(); err != nil {
			return d.finish(res, step, window, last, start), err
		}

		f, err := cursor.Advance(ctx)
		if err != nil {
			return d.finish(res, step, window, last, start), fmt.Errorf("trainer: step %d: %w", step, err)
		}
		if f.FrameIndex == 0 {
			res.FilesVisited++
		}
		if f.Epoch != lastEpoch {
			if d.cfg.EvaluateEveryEpoch {
				if err := d.evaluate(ctx, log, lastEpoch, &res); err != nil {
					return d.finish(res, step, window, last, start), err
				}
			}
			lastEpoch = f.Epoch
		}

		loss, err := d.model.TrainStep(f.Input, f.Label)
		if err != nil {
			return d.finish(res, step, window, last, start), fmt.Errorf("trainer: step %d: %w", step, err)
		}
		step++
		window.Add(loss)
		last = visit{f.Epoch, f.FileIndex}

		log.Debug("train step", "epoch", f.Epoch, "file", f.FileIndex, "frame", f.FrameIndex, "mse", loss)

		if d.sums != nil && f.FileIndex%d.cfg.SummaryEvery == 0 {
			if err := d.sums.Add(ctx, summary.Scalar{
				Run:       d.run,
				Tag:       summary.TagLoss,
				Step:      step,
				Value:     loss,
				Epoch:     f.Epoch,
				FileIndex: f.FileIndex,
				Time:      d.now(),
			}); err != nil {
				return d.finish(res, step, window, last, start), err
			}
		}

		// One save per visit, after the file's last frame.
		if f.FileDone && d.ckpt != nil && f.FileIndex%d.cfg.CheckpointEvery == 0 {
			if err := d.save(ctx, step, window, last); err != nil {
				return d.finish(res, step, window, last, start), err
			}
			res.Checkpoints++
			log.Info("checkpoint saved", "epoch", f.Epoch, "file", f.FileIndex, "step", step, "loss", mean(window))
		}
	}

	if d.ckpt != nil {
		if err := d.save(ctx, step, window, last); err != nil {
			return d.finish(res, step, window, last, start), err
		}
		res.Checkpoints++
	}
	if d.cfg.Evaluate && len(d.catalog.Test) > 0 {
		if err := d.evaluate(ctx, log, cursor.Epoch(), &res); err != nil {
			return d.finish(res, step, window, last, start), err
		}
	}
	if d.cfg.GeneratedDir != "" && len(d.catalog.Test) > 0 {
		paths, err := d.generate(ctx)
		if err != nil {
			return d.finish(res, step, window, last, start), err
		}
		res.Generated = paths
	}

	res = d.finish(res, step, window, last, start)
	log.Info("training finished",
		"epochs", res.Epochs,
		"steps", res.Steps,
		"loss", res.Loss,
		"elapsed", cli.FormatDuration(res.Elapsed),
	)
	return res, nil
}

func (d *Driver) finish(res Result, step int64, window *buffer.Ring[float64], last visit, start time.Time) Result {
	res.Epochs = last.epoch
	res.Steps = step
	res.Loss = mean(window)
	res.Elapsed = d.now().Sub(start)
	return res
}

func (d *Driver) resume(ctx context.Context) (*checkpoint.Progress, error) {
	if d.ckpt == nil {
		return nil, errors.New("trainer: resume requested without a checkpoint store")
	}
	p, err := d.ckpt.Load(ctx, d.model)
	if errors.Is(err, checkpoint.ErrNoCheckpoint) {
		d.logger.Info("no checkpoint found, starting fresh", "checkpoint", d.ckpt.Name())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *Driver) save(ctx context.Context, step int64, window *buffer.Ring[float64], at visit) error {
	return d.ckpt.Save(ctx, d.model, checkpoint.Progress{
		Run:       d.run,
		Epoch:     at.epoch,
		FileIndex: at.file,
		Step:      step,
		Loss:      mean(window),
		SavedAt:   d.now(),
	})
}

func (d *Driver) evaluate(ctx context.Context, log *slog.Logger, epoch int, res *Result) error {
	if len(d.catalog.Test) == 0 {
		return nil
	}
	ev, err := Evaluate(ctx, d.model, d.catalog.Test, d.loader, d.cfg.Window)
	if err != nil {
		return err
	}
	loss := ev.Loss
	res.TestLoss = &loss
	log.Info("test evaluation", "epoch", epoch, "files", ev.Files, "frames", ev.Frames, "mse", ev.Loss)
	if d.sums == nil {
		return nil
	}
	return d.sums.Add(ctx, summary.Scalar{
		Run:   d.run,
		Tag:   summary.TagTestLoss,
		Step:  int64(epoch),
		Value: ev.Loss,
		Epoch: epoch,
		Time:  d.now(),
	})
}

// generate enhances every test input into GeneratedDir/<run>/.
func (d *Driver) generate(ctx context.Context) ([]string, error) {
	dir := filepath.Join(d.cfg.GeneratedDir, d.run)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trainer: generated dir: %w", err)
	}
	var paths []string
	for i, p := range d.catalog.Test {
		out := filepath.Join(dir, fmt.Sprintf("%03d_%s", i, filepath.Base(p.Input)))
		if _, err := Enhance(ctx, d.model, d.loader, p.Input, out, d.cfg.Window); err != nil {
			return nil, err
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func mean(r *buffer.Ring[float64]) float64 {
	v := r.Values()
	if len(v) == 0 {
		return 0
	}
	return floats.Sum(v) / float64(len(v))
}
