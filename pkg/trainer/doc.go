// Package trainer drives a model through the frame schedule of a dataset
// cursor.
//
// The driver trains one step per frame while the epoch counter is within the
// configured range, records the loss as summaries, saves checkpoints on every
// CheckpointEvery-th file index and once more at the end, and evaluates the
// held-out pairs. Evaluate and Enhance reuse the cursor's framing rule for the
// test and generation paths.
package trainer
