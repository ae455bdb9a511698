// Package queue persists render tasks and their lifecycle state. The SQLite
// store is the production implementation; MemoryStore backs tests. Both
// satisfy TaskStore, which is all the pipeline driver and daemon depend on.
package queue
