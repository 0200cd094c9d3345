package webhook

import (
	"context"
	"log/slog"
	"time"
)

const maxAttempts = 5

type Worker struct {
	service *Service
	logger  *slog.Logger
	stopCh  chan struct{}
}

func NewWorker(service *Service, logger *slog.Logger) *Worker {
	return &Worker{
		service: service,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	w.logger.Info("webhook worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopped")
			return
		case <-w.stopCh:
			w.logger.Info("webhook worker stopped")
			return
		case <-ticker.C:
			w.processQueue(ctx)
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
}

func (w *Worker) processQueue(ctx context.Context) {
	for _, job := range w.service.dequeueDue(time.Now()) {
		if err := w.processJob(ctx, job); err != nil {
			w.logger.Error("failed to process webhook job",
				"endpoint", job.Endpoint.Name,
				"attempts", job.Attempts,
				"error", err,
			)
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *Job) error {
	if !job.Endpoint.Enabled {
		w.logger.Warn("webhook job dropped", "endpoint", job.Endpoint.Name, "reason", "endpoint disabled")
		return nil
	}

	if err := w.service.deliver(ctx, &job.Endpoint, job.EventType, job.Payload); err != nil {
		w.scheduleRetry(job, err.Error())
		return err
	}

	w.logger.Info("webhook job delivered",
		"endpoint", job.Endpoint.Name,
		"event_type", job.EventType,
		"attempts", job.Attempts+1,
	)
	return nil
}

func (w *Worker) scheduleRetry(job *Job, errorMsg string) {
	job.Attempts++
	if job.Attempts >= maxAttempts {
		w.logger.Warn("webhook job failed",
			"endpoint", job.Endpoint.Name,
			"attempts", job.Attempts,
			"error", errorMsg,
		)
		return
	}

	delay := time.Duration(1<<job.Attempts) * time.Second
	job.NextRetryAt = time.Now().Add(delay)
	job.LastError = errorMsg
	w.service.requeue(job)

	w.logger.Info("webhook job scheduled for retry",
		"endpoint", job.Endpoint.Name,
		"attempts", job.Attempts,
		"next_retry", job.NextRetryAt,
	)
}
