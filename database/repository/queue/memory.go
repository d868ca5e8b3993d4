package queueRepo

import (
	"context"
	"sync"
	"time"

	"docqueue/models"
)

// memoryQueueRepo keeps queue records in a map. Used by tests and by
// single-node deployments that do not need durable storage.
type memoryQueueRepo struct {
	mu     sync.RWMutex
	queues map[string]models.Queue
}

// NewMemoryQueueRepo returns an in-memory QueueRepository.
func NewMemoryQueueRepo() QueueRepository {
	return &memoryQueueRepo{queues: make(map[string]models.Queue)}
}

func (r *memoryQueueRepo) GetByID(_ context.Context, id string) (*models.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	queue, ok := r.queues[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Deep-copy history so callers never mutate the stored record in place.
	copied := queue
	copied.PatientHistory = append([]models.PatientEntry(nil), queue.PatientHistory...)
	return &copied, nil
}

func (r *memoryQueueRepo) Save(_ context.Context, queue *models.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	queue.LastUpdated = time.Now()
	stored := *queue
	stored.PatientHistory = append([]models.PatientEntry(nil), queue.PatientHistory...)
	r.queues[queue.ID] = stored
	return nil
}

func (r *memoryQueueRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queues[id]; !ok {
		return ErrNotFound
	}
	delete(r.queues, id)
	return nil
}

func (r *memoryQueueRepo) List(_ context.Context) ([]models.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	queues := make([]models.Queue, 0, len(r.queues))
	for _, queue := range r.queues {
		queues = append(queues, queue)
	}
	return queues, nil
}

func (r *memoryQueueRepo) ExistsBySecretCode(_ context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, queue := range r.queues {
		if queue.SecretCode == code {
			return true, nil
		}
	}
	return false, nil
}
