// Package srt models SubRip subtitle cues and provides serialization,
// timestamp parsing, and lightweight file inspection helpers.
package srt
