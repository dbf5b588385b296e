// Package worker consumes batch lifecycle events off the bus and turns
// them into durable audit rows and per-company stats.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/opensource-finance/gridpay/internal/domain"
	"github.com/opensource-finance/gridpay/internal/stats"
)

// Worker subscribes to batch events and persists their audit trail.
// It runs in-process for both tiers; on the Pro tier the NATS bus lets a
// separate instance own this role.
type Worker struct {
	bus     domain.EventBus
	repo    domain.Repository
	tracker *stats.Tracker
	logger  *slog.Logger

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new audit worker. repo may be nil, in which case
// only the in-memory stats are maintained.
func NewWorker(bus domain.EventBus, repo domain.Repository, tracker *stats.Tracker, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		repo:    repo,
		tracker: tracker,
		logger:  logger.With("component", "worker"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to the batch lifecycle topics.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicBatchProcessed, w.handleBatchProcessed)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	w.logger.Info("worker.started", "topic", domain.TopicBatchProcessed)
	return nil
}

// handleBatchProcessed folds the batch summary into the stats tracker
// and writes the audit row. Persistence failures are logged, not
// propagated: the batch itself already succeeded.
func (w *Worker) handleBatchProcessed(ctx context.Context, msg *domain.Message) error {
	var event domain.BatchProcessedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		w.logger.Error("worker.event.malformed", "message_id", msg.ID, "error", err)
		return err
	}

	if w.tracker != nil {
		w.tracker.Fold(&event)
	}

	if w.repo != nil {
		audit := &domain.BatchAudit{
			BatchID:     event.BatchID,
			Company:     event.Company,
			TableName:   event.TableName,
			RecordCount: event.Summary.TotalRecords,
			ErrorCount:  event.Summary.ErrorRecords,
			AvgPayin:    event.Summary.AvgPayin,
			DurationMs:  event.DurationMs,
			CreatedAt:   event.Timestamp,
		}
		if err := w.repo.SaveAudit(ctx, audit); err != nil {
			w.logger.Error("worker.audit.save_failed", "batch_id", event.BatchID, "error", err)
		}
	}

	w.logger.Debug("worker.batch.audited",
		"batch_id", event.BatchID,
		"company", event.Company,
		"records", event.Summary.TotalRecords,
	)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			w.logger.Error("worker.unsubscribe.failed", "topic", sub.Topic(), "error", err)
		}
	}
	w.subscriptions = nil

	w.logger.Info("worker.stopped")
	return nil
}
