package dataset

import (
	"fmt"
	"log/slog"
)

// WarningKind classifies a data integrity problem found while loading a pair.
type WarningKind int

const (
	// WarnSampleRateMismatch means the label rate differs from the input rate.
	// Frame boundaries follow the input rate only.
	WarnSampleRateMismatch WarningKind = iota + 1

	// WarnLengthMismatch means the two recordings have different lengths.
	WarnLengthMismatch

	// WarnOutOfRange means normalization produced values outside [-1, +1].
	WarnOutOfRange
)

func (k WarningKind) String() string {
	switch k {
	case WarnSampleRateMismatch:
		return "sample_rate_mismatch"
	case WarnLengthMismatch:
		return "length_mismatch"
	case WarnOutOfRange:
		return "out_of_range"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning is a non-fatal data integrity finding.
type Warning struct {
	Kind      WarningKind
	FileIndex int
	Pair      Pair
	Detail    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: file %d (%s, %s): %s", w.Kind, w.FileIndex, w.Pair.Input, w.Pair.Label, w.Detail)
}

// WarningHandler receives data integrity warnings.
type WarningHandler func(Warning)

// LogWarnings returns a WarningHandler that logs at WARN level.
func LogWarnings(logger *slog.Logger) WarningHandler {
	return func(w Warning) {
		logger.Warn("data integrity",
			"kind", w.Kind.String(),
			"file", w.FileIndex,
			"input", w.Pair.Input,
			"label", w.Pair.Label,
			"detail", w.Detail,
		)
	}
}
