package indexer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"meilisync/internal/items"
	"meilisync/internal/logging"
	"meilisync/internal/metrics"
	"meilisync/internal/source"
	"meilisync/internal/workers"
)

const (
	// Documents per AddDocuments request
	defaultBatchSize = 1000

	// Upper bound on concurrent batch submissions
	maxSubmitWorkers = 8

	// Default interval between full passes
	defaultIndexInterval = 24 * time.Hour
)

// Sink accepts batches of documents for the search index.
type Sink interface {
	AddDocuments(ctx context.Context, docs []items.Document) error
}

// Options tune an Indexer. Zero values select the defaults.
type Options struct {
	BatchSize     int
	IndexInterval time.Duration
	Workers       int
}

// Indexer runs full synchronization passes from an item source into the
// search index.
type Indexer struct {
	source        source.ItemSource
	sink          Sink
	batchSize     int
	indexInterval time.Duration
	workers       int

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	lastIndexError       error
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	// Progress tracking. progressMu orders the published counters so the
	// status map never moves backwards.
	progressMu         sync.Mutex
	itemsRead          atomic.Int64
	documentsSubmitted atomic.Int64
	batchesDone        atomic.Int64
	indexProgress      atomic.Value

	status *Status

	// Callback when a pass completes successfully
	onIndexComplete func()
}

// IndexProgress tracks the progress of the running pass.
type IndexProgress struct {
	ItemsRead          int64     `json:"itemsRead"`
	Documents          int64     `json:"documents"`
	DocumentsSubmitted int64     `json:"documentsSubmitted"`
	BatchesTotal       int64     `json:"batchesTotal"`
	BatchesDone        int64     `json:"batchesDone"`
	IsIndexing         bool      `json:"isIndexing"`
	StartedAt          time.Time `json:"startedAt,omitempty"`
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready              bool           `json:"ready"`
	Indexing           bool           `json:"indexing"`
	StartTime          time.Time      `json:"startTime"`
	Uptime             string         `json:"uptime"`
	LastIndexed        time.Time      `json:"lastIndexed,omitempty"`
	LastError          string         `json:"lastError,omitempty"`
	InitialIndexError  string         `json:"initialIndexError,omitempty"`
	ItemsRead          int64          `json:"itemsRead"`
	DocumentsSubmitted int64          `json:"documentsSubmitted"`
	IndexProgress      *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates an Indexer reading from src and writing to sink.
func New(src source.ItemSource, sink Sink, opts Options) *Indexer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.IndexInterval <= 0 {
		opts.IndexInterval = defaultIndexInterval
	}
	if opts.Workers <= 0 {
		opts.Workers = workers.ForIO(maxSubmitWorkers)
	}

	ctx, cancel := context.WithCancel(context.Background())
	idx := &Indexer{
		source:        src,
		sink:          sink,
		batchSize:     opts.BatchSize,
		indexInterval: opts.IndexInterval,
		workers:       opts.Workers,
		ctx:           ctx,
		cancel:        cancel,
		startTime:     time.Now(),
		status:        NewStatus(),
	}
	idx.indexProgress.Store(IndexProgress{})
	return idx
}

// SetOnIndexComplete sets a callback to be invoked when a pass succeeds.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Status returns the status map of the current or last pass.
func (idx *Indexer) Status() *Status {
	return idx.status
}

// Start runs an initial pass in the background and schedules periodic passes.
func (idx *Indexer) Start() error {
	go func() {
		logging.Info("Starting initial index in background...")
		if err := idx.Index(idx.ctx); err != nil {
			logging.Error("Initial index error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
	}()

	go idx.periodicIndex()

	return nil
}

// Stop cancels a running pass and ends periodic indexing. It is idempotent.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(idx.cancel)
}

// IsReady reports whether a pass has completed since startup.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// getProgress safely retrieves the current IndexProgress.
func (idx *Indexer) getProgress() IndexProgress {
	if progress, ok := idx.indexProgress.Load().(IndexProgress); ok {
		return progress
	}
	return IndexProgress{}
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	progress := idx.getProgress()

	status := HealthStatus{
		Ready:              idx.initialIndexComplete,
		Indexing:           idx.isIndexing,
		StartTime:          idx.startTime,
		Uptime:             time.Since(idx.startTime).String(),
		LastIndexed:        idx.lastIndexTime,
		ItemsRead:          idx.itemsRead.Load(),
		DocumentsSubmitted: idx.documentsSubmitted.Load(),
	}

	if idx.isIndexing {
		status.IndexProgress = &progress
	}
	if idx.lastIndexError != nil {
		status.LastError = idx.lastIndexError.Error()
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}

	return status
}

// Index performs a full pass: read every item, map it to a document and
// submit the documents in batches. A pass already in progress makes this a
// no-op. Batches submitted before a failure stay in the index.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping...")
		return nil
	}

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	startTime := time.Now()
	logging.Info("Starting library indexing...")
	idx.resetCounters(startTime)

	err := idx.run(ctx, startTime)
	idx.finishIndexing(startTime, err)
	if err != nil {
		metrics.IndexerRunsTotal.WithLabelValues("failure").Inc()
		metrics.IndexerErrors.Inc()
		return err
	}

	metrics.IndexerRunsTotal.WithLabelValues("success").Inc()
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(time.Since(startTime).Seconds())

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
	return nil
}

func (idx *Indexer) run(ctx context.Context, startTime time.Time) error {
	raw, err := idx.source.Items(ctx, idx.status)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	idx.itemsRead.Store(int64(len(raw)))
	metrics.IndexerItemsRead.Add(float64(len(raw)))
	idx.status.Report(StatusItems, strconv.Itoa(len(raw)))

	docs := items.MapAll(raw)
	idx.status.Report(StatusDocuments, strconv.Itoa(len(docs)))

	batches := splitBatches(docs, idx.batchSize)
	idx.status.Report(StatusBatches, strconv.Itoa(len(batches)))
	idx.updateProgress(startTime, int64(len(docs)), int64(len(batches)))

	return idx.submit(ctx, batches, startTime, int64(len(docs)))
}

// submit sends batches concurrently and fails on the first error.
func (idx *Indexer) submit(ctx context.Context, batches [][]items.Document, startTime time.Time, total int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for i, batch := range batches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batchStart := time.Now()
			err := idx.sink.AddDocuments(gctx, batch)
			metrics.IndexerBatchDuration.Observe(time.Since(batchStart).Seconds())
			if err != nil {
				return fmt.Errorf("submit batch %d/%d: %w", i+1, len(batches), err)
			}

			metrics.IndexerDocumentsSubmitted.Add(float64(len(batch)))
			idx.recordBatch(startTime, len(batch), total, int64(len(batches)))
			logging.Debug("Submitted batch %d/%d (%d documents)", i+1, len(batches), len(batch))
			return nil
		})
	}

	return g.Wait()
}

// splitBatches slices docs into consecutive batches of at most size.
func splitBatches(docs []items.Document, size int) [][]items.Document {
	if len(docs) == 0 {
		return nil
	}
	batches := make([][]items.Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		batches = append(batches, docs[start:end])
	}
	return batches
}

// tryStartIndexing attempts to start indexing, returns false if already in progress.
func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

// finishIndexing records the outcome of a pass.
func (idx *Indexer) finishIndexing(startTime time.Time, err error) {
	duration := time.Since(startTime)

	idx.indexMu.Lock()
	idx.isIndexing = false
	idx.lastIndexError = err
	if err == nil {
		idx.lastIndexTime = time.Now()
		idx.initialIndexComplete = true
	}
	idx.indexMu.Unlock()

	// Publish the final counters; batch reports may have raced each other.
	idx.progressMu.Lock()
	progress := idx.getProgress()
	progress.ItemsRead = idx.itemsRead.Load()
	progress.DocumentsSubmitted = idx.documentsSubmitted.Load()
	progress.BatchesDone = idx.batchesDone.Load()
	progress.IsIndexing = false
	idx.indexProgress.Store(progress)
	idx.status.Report(StatusSubmitted, strconv.FormatInt(progress.DocumentsSubmitted, 10))
	idx.progressMu.Unlock()

	idx.status.Report(StatusLastRun, startTime.UTC().Format(time.RFC3339))
	idx.status.Report(StatusDuration, duration.Round(time.Millisecond).String())

	if err != nil {
		idx.status.Report(StatusState, StateFailed)
		idx.status.Report(StatusLastError, err.Error())
		logging.Error("Index failed after %v: %v", duration, err)
		return
	}

	idx.status.Report(StatusState, StateCompleted)
	idx.status.Delete(StatusLastError)
	logging.Info("Index complete: %d items, %d documents submitted in %v",
		idx.itemsRead.Load(), idx.documentsSubmitted.Load(), duration)
}

// resetCounters resets the pass counters.
func (idx *Indexer) resetCounters(startTime time.Time) {
	idx.itemsRead.Store(0)
	idx.documentsSubmitted.Store(0)
	idx.batchesDone.Store(0)
	idx.indexProgress.Store(IndexProgress{
		IsIndexing: true,
		StartedAt:  startTime,
	})
	idx.status.Report(StatusState, StateRunning)
	idx.status.Report(StatusSubmitted, "0")
}

// recordBatch counts a submitted batch and publishes the new totals.
func (idx *Indexer) recordBatch(startTime time.Time, size int, documents, batches int64) {
	idx.progressMu.Lock()
	defer idx.progressMu.Unlock()

	submitted := idx.documentsSubmitted.Add(int64(size))
	idx.batchesDone.Add(1)
	idx.status.Report(StatusSubmitted, strconv.FormatInt(submitted, 10))
	idx.updateProgress(startTime, documents, batches)
}

// updateProgress publishes the counters of the running pass.
func (idx *Indexer) updateProgress(startTime time.Time, documents, batches int64) {
	idx.indexProgress.Store(IndexProgress{
		ItemsRead:          idx.itemsRead.Load(),
		Documents:          documents,
		DocumentsSubmitted: idx.documentsSubmitted.Load(),
		BatchesTotal:       batches,
		BatchesDone:        idx.batchesDone.Load(),
		IsIndexing:         true,
		StartedAt:          startTime,
	})
}

func (idx *Indexer) periodicIndex() {
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-index triggered")
			if err := idx.Index(idx.ctx); err != nil {
				logging.Error("periodic re-index failed: %v", err)
			}
		case <-idx.ctx.Done():
			return
		}
	}
}

// IsIndexing returns whether a pass is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// TriggerIndex starts a pass in the background.
func (idx *Indexer) TriggerIndex() {
	go func() {
		if err := idx.Index(idx.ctx); err != nil {
			logging.Error("manually triggered re-index failed: %v", err)
		}
	}()
}

// GetProgress returns the progress of the running pass.
func (idx *Indexer) GetProgress() IndexProgress {
	return idx.getProgress()
}
