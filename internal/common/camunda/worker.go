// internal/common/camunda/worker.go
package camunda

import (
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"
)

// WorkerRegistry tracks opened job workers so shutdown can drain them
// before the gRPC connection goes away.
type WorkerRegistry struct {
	mu      sync.Mutex
	logger  *zap.Logger
	workers map[string]worker.JobWorker
}

func NewWorkerRegistry(logger *zap.Logger) *WorkerRegistry {
	return &WorkerRegistry{
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Add registers an opened worker under its task type. A second worker for
// the same task type replaces the first after closing it.
func (r *WorkerRegistry) Add(taskType string, w worker.JobWorker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.workers[taskType]; exists {
		r.logger.Warn("replacing already registered worker", zap.String("taskType", taskType))
		old.Close()
	}
	r.workers[taskType] = w
}

// Count returns the number of registered workers.
func (r *WorkerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers)
}

// CloseAll drains every registered worker. Close blocks until in-flight
// jobs finish, so this is called before the Zeebe client shuts down.
func (r *WorkerRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for taskType, w := range r.workers {
		r.logger.Info("stopping worker", zap.String("taskType", taskType))
		w.Close()
		delete(r.workers, taskType)
	}
}
