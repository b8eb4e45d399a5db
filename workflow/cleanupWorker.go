package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/hihabib/inventory-management-system-api-sub000/config"
	"github.com/hihabib/inventory-management-system-api-sub000/models"
	"github.com/hihabib/inventory-management-system-api-sub000/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CleanupKey identifies one sweep scope: all batches of a product at one
// location.
type CleanupKey struct {
	ProductId   int
	MaintainsId int
}

// CleanupWorker soft-deletes stock batches whose every row has reached zero
// (at quantity precision). It runs detached from the sale path: sales enqueue
// keys post-commit and never wait on, or fail because of, a sweep. Restores go
// through Unscoped queries, so a swept batch can still take stock back on
// cancellation.
type CleanupWorker struct {
	DB     *gorm.DB
	Logger *logrus.Logger

	keys chan CleanupKey
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	pending map[CleanupKey]bool
}

func NewCleanupWorker(db *gorm.DB, logger *logrus.Logger) *CleanupWorker {
	return &CleanupWorker{
		DB:      db,
		Logger:  logger,
		keys:    make(chan CleanupKey, 256),
		pending: map[CleanupKey]bool{},
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-w.keys:
				if !ok {
					return
				}
				w.clearPending(key)
				w.sweepOnce(ctx, key)
			}
		}
	}()
}

func (w *CleanupWorker) Stop() {
	w.once.Do(func() { close(w.keys) })
	w.wg.Wait()
}

// Enqueue hands a key to the worker without blocking. Keys already waiting are
// deduped; a full queue drops the key. Either way the next sale of the same
// product retries implicitly.
func (w *CleanupWorker) Enqueue(key CleanupKey) {
	w.mu.Lock()
	if w.pending[key] {
		w.mu.Unlock()
		return
	}
	w.pending[key] = true
	w.mu.Unlock()

	select {
	case w.keys <- key:
	default:
		w.clearPending(key)
		config.LogWarn(w.Logger, "cleanupWorker.go", "Enqueue", "cleanup queue full, dropping key", key)
	}
}

func (w *CleanupWorker) clearPending(key CleanupKey) {
	w.mu.Lock()
	delete(w.pending, key)
	w.mu.Unlock()
}

// sweepOnce scans the batches in scope and soft-deletes every fully drained
// one. Each batch gets its own transaction; a failure on one batch never
// blocks the rest, and errors are logged, not surfaced.
func (w *CleanupWorker) sweepOnce(ctx context.Context, key CleanupKey) {

	batches, err := models.ListBatchesForProduct(ctx, key.ProductId, &key.MaintainsId)
	if err != nil {
		config.LogError(w.Logger, "cleanupWorker.go", "sweepOnce", "ListBatchesForProduct", key, err)
		return
	}

	for _, batch := range batches {
		if err := w.sweepBatch(ctx, batch.ID); err != nil {
			config.LogError(w.Logger, "cleanupWorker.go", "sweepOnce", "sweepBatch", batch.ID, err)
		}
	}
}

func (w *CleanupWorker) sweepBatch(ctx context.Context, batchId int) error {
	return w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := models.LockRowsForBatch(tx, batchId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil
			}
			return err
		}
		for _, row := range rows {
			if row.DeletedAt.Valid {
				continue
			}
			if !utils.QuantityIsZero(row.Quantity) {
				return nil
			}
		}
		if err := tx.Where("stock_batch_id = ?", batchId).Delete(&models.Stock{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.StockBatch{}, batchId).Error
	})
}

var defaultCleanupWorker *CleanupWorker
var defaultCleanupWorkerMu sync.RWMutex

// StartDefaultCleanupWorker wires the process-wide worker the sale workflow
// enqueues into.
func StartDefaultCleanupWorker(ctx context.Context) *CleanupWorker {
	worker := NewCleanupWorker(config.GetDB(), config.GetLogger())
	worker.Start(ctx)
	defaultCleanupWorkerMu.Lock()
	defaultCleanupWorker = worker
	defaultCleanupWorkerMu.Unlock()
	return worker
}

// EnqueueCleanup is a no-op until the default worker is started; sweeps are an
// optimization over correctness, zero-quantity rows are already invisible to
// allocation.
func EnqueueCleanup(key CleanupKey) {
	defaultCleanupWorkerMu.RLock()
	worker := defaultCleanupWorker
	defaultCleanupWorkerMu.RUnlock()
	if worker != nil {
		worker.Enqueue(key)
	}
}
