// Package imagegen generates cover art through an OpenAI-compatible chat
// completions endpoint and recovers the image payload from the several
// response layouts providers use.
package imagegen
