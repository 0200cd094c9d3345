package alert

import (
	"time"

	"github.com/floorwatch/floorwatch/internal/domain"
)

// Rule decides which ingested events deserve an outbound alert. An empty
// Types list matches every event type.
type Rule struct {
	Name        string             `json:"name"`
	MinSeverity int                `json:"min_severity"`
	Types       []domain.EventType `json:"types,omitempty"`
	Cooldown    time.Duration      `json:"cooldown"`
}

// Matches reports whether the event satisfies the rule's severity and type
// filters. Cooldown is the engine's concern, not the rule's.
func (r *Rule) Matches(event *domain.Event) bool {
	if event.Severity < r.MinSeverity {
		return false
	}
	if len(r.Types) == 0 {
		return true
	}
	for _, t := range r.Types {
		if t == event.Type {
			return true
		}
	}
	return false
}
