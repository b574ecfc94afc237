package worker_test

import (
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/denkain-drill/backend/internal/worker"
)

func TestPool_RunsEveryJob(t *testing.T) {
	const jobs = 20
	pool := worker.NewPool[int](4, jobs)

	for i := 0; i < jobs; i++ {
		n := i
		pool.Submit(fmt.Sprintf("job-%d", n), func() int { return n * n })
	}
	pool.Close()

	got := map[string]int{}
	for r := range pool.Results() {
		got[r.JobID] = r.Output
	}

	if len(got) != jobs {
		t.Fatalf("expected %d results, got %d", jobs, len(got))
	}
	for i := 0; i < jobs; i++ {
		if got[fmt.Sprintf("job-%d", i)] != i*i {
			t.Errorf("job-%d: expected %d, got %d", i, i*i, got[fmt.Sprintf("job-%d", i)])
		}
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 2
	pool := worker.NewPool[int32](workers, 10)

	var running, peak atomic.Int32
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		pool.Submit(fmt.Sprint(i), func() int32 {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return n
		})
	}
	close(release)
	pool.Close()

	var ids []string
	for r := range pool.Results() {
		ids = append(ids, r.JobID)
	}
	sort.Strings(ids)

	if len(ids) != 6 {
		t.Fatalf("expected 6 results, got %d", len(ids))
	}
	if peak.Load() > workers {
		t.Errorf("expected at most %d concurrent jobs, saw %d", workers, peak.Load())
	}
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	pool := worker.NewPool[bool](0, 0)
	pool.Close()
	pool.Close()

	for range pool.Results() {
		t.Fatal("expected no results")
	}
}
