package workers

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSubmitRunsJobs(t *testing.T) {
	wp := NewWorkerPool("test", 4, 100)
	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if !wp.Submit(func() { defer wg.Done(); n.Add(1) }) {
			t.Fatal("submit refused with free capacity")
		}
	}
	wg.Wait()
	wp.Stop()

	if n.Load() != 50 || wp.Executed() != 50 {
		t.Fatalf("ran %d, executed %d", n.Load(), wp.Executed())
	}
}

func TestSubmitDropsWhenFull(t *testing.T) {
	wp := NewWorkerPool("test", 1, 1)
	block := make(chan struct{})
	started := make(chan struct{})

	wp.Submit(func() { close(started); <-block })
	<-started
	if !wp.Submit(func() {}) {
		t.Fatal("queue slot should be free")
	}
	if wp.Submit(func() {}) {
		t.Fatal("submit should fail when the queue is full")
	}
	if wp.Dropped() != 1 {
		t.Fatalf("dropped: want 1, got %d", wp.Dropped())
	}
	close(block)
	wp.Stop()
}

func TestStopDrainsAndRefuses(t *testing.T) {
	wp := NewWorkerPool("test", 2, 10)
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		wp.Submit(func() { n.Add(1) })
	}
	wp.Stop()
	wp.Stop()

	if n.Load() != 10 {
		t.Fatalf("queued jobs lost: ran %d", n.Load())
	}
	if wp.Submit(func() {}) {
		t.Fatal("submit after stop should fail")
	}
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	wp := NewWorkerPool("test", 1, 2)
	done := make(chan struct{})
	wp.Submit(func() { panic("boom") })
	wp.Submit(func() { close(done) })
	<-done
	wp.Stop()
}
