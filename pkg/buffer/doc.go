// Package buffer provides a fixed-capacity ring that keeps the most recent
// values, used as a sliding window over training losses.
package buffer
