package pipeline

// Observer receives progress callbacks as a run advances. Implementations
// must be safe for concurrent use; the runner may report from worker
// goroutines.
type Observer interface {
	StageStarted(taskID, stage string)
	ProgressChanged(taskID string, percent float64, message string)
}

// NopObserver ignores all callbacks.
type NopObserver struct{}

func (NopObserver) StageStarted(string, string)            {}
func (NopObserver) ProgressChanged(string, float64, string) {}
