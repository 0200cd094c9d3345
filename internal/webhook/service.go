package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const retryBatchSize = 10

// Service delivers signed event payloads to webhook endpoints. Failed
// deliveries land in an in-memory retry queue drained by the Worker.
type Service struct {
	client *http.Client

	mu    sync.Mutex
	queue []*Job
}

func NewService() *Service {
	return &Service{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send attempts immediate delivery and queues a retry on failure. A queued
// failure is not an error to the caller; the worker owns it from there.
func (s *Service) Send(ctx context.Context, endpoint *Endpoint, event EventPayload) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.deliver(ctx, endpoint, event.Type, payload); err != nil {
		s.enqueue(endpoint, event.Type, payload, err.Error())
	}

	return nil
}

func (s *Service) deliver(ctx context.Context, endpoint *Endpoint, eventType string, payload []byte) error {
	signature := Sign(endpoint.Secret, payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-FloorWatch-Signature", signature)
	req.Header.Set("X-FloorWatch-Event", eventType)
	req.Header.Set("User-Agent", "FloorWatch-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}

func (s *Service) enqueue(endpoint *Endpoint, eventType string, payload []byte, errorMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, &Job{
		Endpoint:    *endpoint,
		EventType:   eventType,
		Payload:     payload,
		NextRetryAt: time.Now().Add(time.Second),
		LastError:   errorMsg,
	})
}

// dequeueDue pops up to retryBatchSize jobs whose retry time has passed.
func (s *Service) dequeueDue(now time.Time) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Job
	var rest []*Job
	for _, job := range s.queue {
		if len(due) < retryBatchSize && !job.NextRetryAt.After(now) {
			due = append(due, job)
		} else {
			rest = append(rest, job)
		}
	}
	s.queue = rest
	return due
}

func (s *Service) requeue(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, job)
}

// QueueDepth returns the number of deliveries awaiting retry.
func (s *Service) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
