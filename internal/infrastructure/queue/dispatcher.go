package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 10 * time.Second
)

// historyJob carries exactly one of search or image.
type historyJob struct {
	search *domain.SearchRecord
	image  *domain.ImageRecord
}

func (j historyJob) kind() string {
	if j.search != nil {
		return "search"
	}
	return "image"
}

// HistoryDispatcher persists history entries off the request path. Entries are
// sharded by user id onto a fixed set of workers, so one user's entries are
// written in the order they were recorded.
type HistoryDispatcher struct {
	workers []chan historyJob
	repo    ports.HistoryRepository
	log     zerolog.Logger

	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHistoryDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewHistoryDispatcher(numWorkers int, repo ports.HistoryRepository, log zerolog.Logger) *HistoryDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &HistoryDispatcher{
		workers: make([]chan historyJob, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan historyJob, channelBuffer)
	}
	return d
}

// Start launches the workers. When ctx is cancelled the dispatcher stops
// accepting entries, and the workers exit once their queues are drained.
func (d *HistoryDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
	go func() {
		<-ctx.Done()
		d.Stop()
	}()
}

// Stop closes the queues. It is safe to call more than once.
func (d *HistoryDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
		d.mu.Unlock()
	})
}

// Wait blocks until every worker has exited.
func (d *HistoryDispatcher) Wait() {
	d.wg.Wait()
}

func (d *HistoryDispatcher) RecordSearch(rec domain.SearchRecord) {
	d.enqueue(rec.UserID, historyJob{search: &rec})
}

func (d *HistoryDispatcher) RecordImage(rec domain.ImageRecord) {
	d.enqueue(rec.UserID, historyJob{image: &rec})
}

// enqueue blocks when the worker's buffer is full. Entries recorded after
// Stop are dropped.
func (d *HistoryDispatcher) enqueue(userID int64, job historyJob) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.HistoryWritesTotal.WithLabelValues(job.kind(), "dropped").Inc()
		d.log.Warn().Int64("user_id", userID).Str("kind", job.kind()).Msg("history entry dropped after shutdown")
		return
	}

	idx := d.shardIndex(userID)
	ch := d.workers[idx]
	ch <- job
	metrics.HistoryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(ch)))
}

// shardIndex maps a user id deterministically to a worker index.
func (d *HistoryDispatcher) shardIndex(userID int64) int {
	return int(uint64(userID) % uint64(len(d.workers)))
}

func (d *HistoryDispatcher) runWorker(id int, ch <-chan historyJob) {
	defer d.wg.Done()
	depth := metrics.HistoryQueueDepth.WithLabelValues(strconv.Itoa(id))

	for job := range ch {
		depth.Set(float64(len(ch)))
		d.persist(id, job)
	}
	depth.Set(0)
}

func (d *HistoryDispatcher) persist(workerID int, job historyJob) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var (
		err    error
		userID int64
	)
	if job.search != nil {
		userID = job.search.UserID
		err = d.repo.InsertSearch(ctx, job.search)
	} else {
		userID = job.image.UserID
		err = d.repo.InsertImage(ctx, job.image)
	}

	if err != nil {
		metrics.HistoryWritesTotal.WithLabelValues(job.kind(), "error").Inc()
		d.log.Error().Err(err).
			Int64("user_id", userID).
			Str("kind", job.kind()).
			Int("worker_id", workerID).
			Msg("history write failed")
		return
	}
	metrics.HistoryWritesTotal.WithLabelValues(job.kind(), "ok").Inc()
}
