package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/webhook"
)

const alertEventType = "incident.alert"

// Notifier pushes triggered alerts to the configured webhook endpoints.
type Notifier struct {
	webhookService *webhook.Service
	endpoints      []webhook.Endpoint
	engine         *Engine
	logger         *slog.Logger
}

func NewNotifier(webhookService *webhook.Service, endpoints []webhook.Endpoint, engine *Engine, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookService: webhookService,
		endpoints:      endpoints,
		engine:         engine,
		logger:         logger,
	}
}

// Dispatch evaluates the event and sends one notification per triggered
// rule to every subscribed endpoint.
func (n *Notifier) Dispatch(ctx context.Context, event *domain.Event) error {
	triggered := n.engine.Evaluate(event, time.Now())
	if len(triggered) == 0 {
		return nil
	}

	var failed int
	for _, rule := range triggered {
		payload := webhook.EventPayload{
			Type:    alertEventType,
			StoreID: event.StoreID,
			Data: map[string]interface{}{
				"rule": rule.Name,
				"event": map[string]interface{}{
					"id":       event.ID,
					"type":     event.Type,
					"severity": event.Severity,
					"zone_id":  event.ZoneID,
					"x":        event.X,
					"y":        event.Y,
				},
			},
			Timestamp: time.Now().UTC(),
		}

		for i := range n.endpoints {
			endpoint := &n.endpoints[i]
			if !endpoint.Enabled || !endpoint.Subscribes(alertEventType) {
				continue
			}
			if err := n.webhookService.Send(ctx, endpoint, payload); err != nil {
				n.logger.Error("failed to send alert notification",
					"rule", rule.Name,
					"endpoint", endpoint.Name,
					"error", err,
				)
				failed++
				continue
			}
			n.logger.Info("alert notification sent",
				"rule", rule.Name,
				"endpoint", endpoint.Name,
				"event_id", event.ID,
			)
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to send %d alert notifications", failed)
	}
	return nil
}
