// Command podforge is the CLI: one-shot rendering, daemon serving, task
// listing, and configuration management.
package main
