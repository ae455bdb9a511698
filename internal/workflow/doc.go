// Package workflow runs the daemon's task loop: polling the queue, claiming
// pending tasks, and transitioning them through the pipeline runner.
package workflow
