// Package scriptapi implements the HTTP client for the script backend: line
// and metadata retrieval, retried audio downloads, and status reporting.
package scriptapi
