// Package ffmpeg drives the ffmpeg and ffprobe command line tools: audio
// merging, still-image segment rendering, lossless concatenation, subtitle
// burn-in, duration probing, and encoder capability detection.
package ffmpeg
