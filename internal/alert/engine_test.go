package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorwatch/floorwatch/internal/domain"
)

func testEvent(eventType domain.EventType, severity int) *domain.Event {
	return &domain.Event{
		ID:       "evt-1",
		StoreID:  "store-main",
		Type:     eventType,
		Severity: severity,
	}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		event    *domain.Event
		expected bool
	}{
		{
			name:     "severity at threshold",
			rule:     Rule{Name: "critical", MinSeverity: 3},
			event:    testEvent(domain.EventFall, 3),
			expected: true,
		},
		{
			name:     "severity below threshold",
			rule:     Rule{Name: "critical", MinSeverity: 3},
			event:    testEvent(domain.EventCrowd, 2),
			expected: false,
		},
		{
			name:     "type filter matches",
			rule:     Rule{Name: "falls", MinSeverity: 1, Types: []domain.EventType{domain.EventFall}},
			event:    testEvent(domain.EventFall, 3),
			expected: true,
		},
		{
			name:     "type filter rejects",
			rule:     Rule{Name: "falls", MinSeverity: 1, Types: []domain.EventType{domain.EventFall}},
			event:    testEvent(domain.EventCrowd, 3),
			expected: false,
		},
		{
			name:     "empty type filter matches any",
			rule:     Rule{Name: "any", MinSeverity: 1},
			event:    testEvent(domain.EventLoitering, 1),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rule.Matches(tt.event))
		})
	}
}

func TestEngineEvaluate(t *testing.T) {
	engine := NewEngine([]Rule{
		{Name: "critical", MinSeverity: 3, Cooldown: time.Minute},
		{Name: "falls", MinSeverity: 1, Types: []domain.EventType{domain.EventFall}, Cooldown: time.Minute},
	})
	now := time.Now()

	triggered := engine.Evaluate(testEvent(domain.EventFall, 3), now)
	require.Len(t, triggered, 2)
	assert.Equal(t, "critical", triggered[0].Name)
	assert.Equal(t, "falls", triggered[1].Name)
}

func TestEngineCooldown(t *testing.T) {
	engine := NewEngine([]Rule{
		{Name: "critical", MinSeverity: 3, Cooldown: time.Minute},
	})
	now := time.Now()

	require.Len(t, engine.Evaluate(testEvent(domain.EventFall, 3), now), 1)

	assert.Empty(t, engine.Evaluate(testEvent(domain.EventFall, 3), now.Add(30*time.Second)))
	assert.Len(t, engine.Evaluate(testEvent(domain.EventFall, 3), now.Add(61*time.Second)), 1)
}

func TestEngineCooldownPerRule(t *testing.T) {
	engine := NewEngine([]Rule{
		{Name: "critical", MinSeverity: 3, Cooldown: time.Hour},
		{Name: "falls", MinSeverity: 1, Types: []domain.EventType{domain.EventFall}, Cooldown: 0},
	})
	now := time.Now()

	require.Len(t, engine.Evaluate(testEvent(domain.EventFall, 3), now), 2)

	triggered := engine.Evaluate(testEvent(domain.EventFall, 3), now.Add(time.Second))
	require.Len(t, triggered, 1)
	assert.Equal(t, "falls", triggered[0].Name)
}
