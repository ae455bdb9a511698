// Package imageproc prepares cover art frames: scale-to-cover with center
// crop for generated images, and a labelled dark placeholder for runs without
// generation.
package imageproc
