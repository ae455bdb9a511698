// Package textutil provides small text helpers shared across the pipeline:
// filesystem-safe name sanitization and caption annotation stripping.
package textutil
