package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

var (
	// ErrMismatch is matched by a *MismatchError.
	ErrMismatch = errors.New("dataset: input and label file counts differ")

	// ErrNegativeTestCount is returned when the held-out count is negative.
	ErrNegativeTestCount = errors.New("dataset: negative test file count")
)

// MismatchError reports misaligned input and label trees. It is a
// configuration error: no training may start on such a catalog.
type MismatchError struct {
	InputDir, LabelDir string
	Inputs, Labels     int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dataset: mismatch of training data and labels: %d files in %s, %d files in %s",
		e.Inputs, e.InputDir, e.Labels, e.LabelDir)
}

// Is reports whether target is ErrMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Pair is one noisy input file and its clean label file.
type Pair struct {
	Input string `json:"input" yaml:"input"`
	Label string `json:"label" yaml:"label"`
}

// Catalog is the split of all discovered pairs into a held-out test subset
// and a training subset.
type Catalog struct {
	Test  []Pair `json:"test" yaml:"test"`
	Train []Pair `json:"train" yaml:"train"`
}

// Total returns the number of pairs across both subsets.
func (c *Catalog) Total() int {
	return len(c.Test) + len(c.Train)
}

// Build enumerates every file under inputDir and labelDir, pairs them
// by position and holds the first nTest pairs back for testing.
//
// Pairing relies only on enumeration order. Whether input[i] and label[i] are
// recordings of the same utterance is not checked.
func Build(inputDir, labelDir string, nTest int) (*Catalog, error) {
	if nTest < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeTestCount, nTest)
	}

	inputs, err := ListFiles(inputDir)
	if err != nil {
		return nil, fmt.Errorf("dataset: scan inputs: %w", err)
	}
	labels, err := ListFiles(labelDir)
	if err != nil {
		return nil, fmt.Errorf("dataset: scan labels: %w", err)
	}
	return Split(inputDir, labelDir, inputs, labels, nTest)
}

// Split pairs two enumerated path lists and splits them at nTest.
func Split(inputDir, labelDir string, inputs, labels []string, nTest int) (*Catalog, error) {
	if nTest < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeTestCount, nTest)
	}
	if len(inputs) != len(labels) {
		return nil, &MismatchError{
			InputDir: inputDir,
			LabelDir: labelDir,
			Inputs:   len(inputs),
			Labels:   len(labels),
		}
	}

	pairs := make([]Pair, len(inputs))
	for i := range inputs {
		pairs[i] = Pair{Input: inputs[i], Label: labels[i]}
	}

	cut := min(nTest, len(pairs))
	return &Catalog{
		Test:  pairs[:cut:cut],
		Train: pairs[cut:],
	}, nil
}

// ListFiles returns every non-directory entry below root in walk order. The order is
// stable for an unchanged tree.
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
