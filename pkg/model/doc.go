// Package model defines the trainable model the training driver feeds and a
// small FIR denoising filter that implements it.
//
// A Model consumes one frame pair at a time. Frames are normalized float
// samples of equal length; the model maps a noisy input frame to an estimate
// of the clean label frame and reports the mean squared error.
package model
