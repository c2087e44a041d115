package publish

import (
	"container/heap"
	"log/slog"
	"sync"
)

// job is one commit's worth of index updates, ordered by sequence number.
type job struct {
	seq     uint64
	commit  string
	changed []string
	deleted []string
	index   int
}

// jobHeap orders jobs by sequence, lowest first.
type jobHeap []*job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool { return h[i].seq < h[j].seq }

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x any) {
	j := x.(*job)
	j.index = len(*h)
	*h = append(*h, j)
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*h = old[:n-1]
	return j
}

// Pipeline decouples index updates from sync commits. Publish enqueues and
// returns, so it is safe to call on the commit path; a single worker drains
// the queue in sequence order, so a slow render never reorders commits and an
// older commit's rows can never overwrite a newer one's.
type Pipeline struct {
	svc *Service

	mu   sync.Mutex
	jobs jobHeap
	seq  uint64

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func NewPipeline(svc *Service) *Pipeline {
	p := &Pipeline{
		svc:  svc,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues one commit's changed and deleted paths. It never blocks and
// never fails; index trouble is reported by the worker.
func (p *Pipeline) Publish(commit string, changed, deleted []string) error {
	p.mu.Lock()
	p.seq++
	heap.Push(&p.jobs, &job{
		seq:     p.seq,
		commit:  commit,
		changed: changed,
		deleted: deleted,
	})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close drains queued updates, stops the worker and waits for it to exit.
func (p *Pipeline) Close() {
	p.once.Do(func() { close(p.quit) })
	<-p.done
}

func (p *Pipeline) next() *job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.jobs) == 0 {
		return nil
	}
	return heap.Pop(&p.jobs).(*job)
}

func (p *Pipeline) drain() {
	for j := p.next(); j != nil; j = p.next() {
		if err := p.svc.Publish(j.commit, j.changed, j.deleted); err != nil {
			slog.Error("publish: index update failed", "commit", j.commit, "error", err)
		}
	}
}

func (p *Pipeline) run() {
	defer close(p.done)
	for {
		p.drain()
		select {
		case <-p.wake:
		case <-p.quit:
			p.drain()
			return
		}
	}
}
