package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omejiasq/protegemesicov-sub000/internal/core/domain"
)

func TestSyncWorkerExecutesJobs(t *testing.T) {
	worker := NewSyncWorker(8)
	worker.Start(context.Background())
	defer worker.Close()

	var ran atomic.Int64
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		last := i == 4
		ok := worker.Enqueue(SyncJob{
			Module:   domain.ModulePreventive,
			RecordID: "r",
			Run: func(context.Context) {
				ran.Add(1)
				if last {
					close(done)
				}
			},
		})
		if !ok {
			t.Fatalf("enqueue %d rejected with room in queue", i)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not run")
	}
	if ran.Load() != 5 {
		t.Fatalf("ran = %d, want 5", ran.Load())
	}
	if stats := worker.Stats(); stats.DroppedTotal != 0 {
		t.Fatalf("dropped = %d, want 0", stats.DroppedTotal)
	}
}

func TestSyncWorkerRejectsWhenFull(t *testing.T) {
	// not started: nothing drains the queue
	worker := NewSyncWorker(2)

	job := SyncJob{Module: domain.ModuleVehicle, RecordID: "r", Run: func(context.Context) {}}
	if !worker.Enqueue(job) || !worker.Enqueue(job) {
		t.Fatal("queue rejected jobs below capacity")
	}
	if worker.Enqueue(job) {
		t.Fatal("queue accepted a job beyond capacity")
	}
	if stats := worker.Stats(); stats.DroppedTotal != 1 {
		t.Fatalf("dropped = %d, want 1", stats.DroppedTotal)
	}
}

func TestSyncWorkerCloseStopsLoop(t *testing.T) {
	worker := NewSyncWorker(1)
	worker.Start(context.Background())
	if err := worker.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// second close is a no-op
	if err := worker.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestSyncWorkerStartIsIdempotent(t *testing.T) {
	worker := NewSyncWorker(1)
	worker.Start(context.Background())
	worker.Start(context.Background())
	defer worker.Close()

	done := make(chan struct{})
	worker.Enqueue(SyncJob{Run: func(context.Context) { close(done) }})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run after double start")
	}
}
