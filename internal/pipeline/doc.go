// Package pipeline assembles one task's video: it normalizes fetched dialogue
// lines, acquires their audio concurrently, prepares a single cover frame,
// computes the subtitle timeline, renders batched segments with hardware
// fallback, and concatenates them into the final output.
package pipeline
