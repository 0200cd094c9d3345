package alert

import (
	"sync"
	"time"

	"github.com/floorwatch/floorwatch/internal/domain"
)

// Engine evaluates ingested events against the configured rules and
// enforces per-rule cooldowns so a burst of matching detections fires a
// single alert per window.
type Engine struct {
	rules []Rule

	mu        sync.Mutex
	lastFired map[string]time.Time
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{
		rules:     rules,
		lastFired: make(map[string]time.Time),
	}
}

// Evaluate returns the rules triggered by the event and marks them as
// fired. A rule inside its cooldown window is skipped.
func (e *Engine) Evaluate(event *domain.Event, now time.Time) []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()

	var triggered []Rule
	for _, rule := range e.rules {
		if !rule.Matches(event) {
			continue
		}
		if !e.shouldTrigger(&rule, now) {
			continue
		}
		e.lastFired[rule.Name] = now
		triggered = append(triggered, rule)
	}
	return triggered
}

func (e *Engine) shouldTrigger(rule *Rule, now time.Time) bool {
	last, ok := e.lastFired[rule.Name]
	if !ok {
		return true
	}
	return now.After(last.Add(rule.Cooldown))
}
