// Package dataset discovers paired noisy/clean recordings and walks them as
// fixed-length training frames.
//
// A Catalog pairs the files of an input tree with the files of a label tree
// by enumeration position and holds the first files back as a test subset.
// A Cursor then steps deterministically through the training pairs one frame
// at a time, loading and normalizing a file pair whenever the previous one is
// exhausted and counting an epoch each time the walk wraps around.
//
// Two coverage modes exist. CoverageReference reproduces the historical walk
// exactly: the file index is incremented before the first load, so index 0
// is skipped on the first pass, and the wrap check fires one file early, so
// the last training file is never visited. CoverageFull visits every file in
// order and wraps after the last one.
package dataset
