package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

const defaultJobTimeout = 30 * time.Second

// SyncJob is one detached remote push. Jobs run at most once: this worker
// is not a durable retry queue, a failed push stays failed until an
// operator reconciles it.
type SyncJob struct {
	Module   domain.Module
	RecordID string
	Run      func(ctx context.Context)
}

// SyncWorker executes detached pushes on a single background goroutine
// behind a bounded queue, so a create call never blocks on the remote side.
type SyncWorker struct {
	jobs       chan SyncJob
	jobTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	executedTotal atomic.Int64
	droppedTotal  atomic.Int64
}

func NewSyncWorker(queueSize int) *SyncWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &SyncWorker{
		jobs:       make(chan SyncJob, queueSize),
		jobTimeout: defaultJobTimeout,
	}
}

func (w *SyncWorker) Start(parent context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	w.wg.Add(1)
	go w.loop(ctx)
}

func (w *SyncWorker) Close() error {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	return nil
}

// Enqueue reports false when the queue is full; the caller then marks the
// record failed instead of blocking.
func (w *SyncWorker) Enqueue(job SyncJob) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		w.droppedTotal.Add(1)
		return false
	}
}

func (w *SyncWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
			job.Run(jobCtx)
			cancel()
			w.executedTotal.Add(1)
		}
	}
}

type SyncWorkerStats struct {
	ExecutedTotal int64
	DroppedTotal  int64
}

func (w *SyncWorker) Stats() SyncWorkerStats {
	return SyncWorkerStats{
		ExecutedTotal: w.executedTotal.Load(),
		DroppedTotal:  w.droppedTotal.Load(),
	}
}
