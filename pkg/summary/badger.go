package summary

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures NewBadger.
type BadgerOptions struct {
	// Dir holds the database files. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory.
	InMemory bool

	// Logger receives badger's warnings and errors. Nil uses slog.Default.
	Logger *slog.Logger
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("summary: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger.With("component", "badger")})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("summary: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Add(_ context.Context, s Scalar) error {
	key, err := scalarKey(s)
	if err != nil {
		return err
	}
	val, err := encode(s)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (b *Badger) List(_ context.Context, run, tag string) iter.Seq2[Scalar, error] {
	return func(yield func(Scalar, error) bool) {
		prefix, err := listPrefix(run, tag)
		if err != nil {
			yield(Scalar{}, err)
			return
		}
		stopped := false
		err = b.db.View(func(txn *badger.Txn) error {
			itOpts := badger.DefaultIteratorOptions
			itOpts.Prefix = prefix
			it := txn.NewIterator(itOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				val, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				s, err := decode(val)
				if !yield(s, err) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(Scalar{}, err)
		}
	}
}

func (b *Badger) Last(_ context.Context, run, tag string) (Scalar, error) {
	if err := checkName("tag", tag); err != nil {
		return Scalar{}, err
	}
	prefix, err := listPrefix(run, tag)
	if err != nil {
		return Scalar{}, err
	}
	var val []byte
	err = b.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = prefix
		itOpts.Reverse = true
		it := txn.NewIterator(itOpts)
		defer it.Close()

		it.Seek(append(slices.Clone(prefix), 0xff))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var err error
		val, err = it.Item().ValueCopy(nil)
		return err
	})
	if err != nil {
		return Scalar{}, err
	}
	if val == nil {
		return Scalar{}, fmt.Errorf("%w: %s/%s", ErrNotFound, run, tag)
	}
	return decode(val)
}

func (b *Badger) Runs(_ context.Context) ([]string, error) {
	var runs []string
	err := b.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); {
			run := runOf(it.Item().Key())
			runs = append(runs, run)
			// Skip the rest of this run.
			it.Seek(append([]byte(run), sep+1))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Key order puts "run2:" before "run:".
	slices.Sort(runs)
	return runs, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger forwards badger warnings and errors to slog and drops the
// rest.
type badgerLogger struct {
	l *slog.Logger
}

func (g badgerLogger) Errorf(f string, v ...any)   { g.l.Error(fmt.Sprintf(f, v...)) }
func (g badgerLogger) Warningf(f string, v ...any) { g.l.Warn(fmt.Sprintf(f, v...)) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}

var _ Store = (*Badger)(nil)
