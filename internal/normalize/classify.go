package normalize

import (
	"strings"

	"github.com/floorwatch/floorwatch/internal/domain"
)

// Synonym tables map the vocabulary seen in real feeds onto the canonical
// enums. Checked in declaration order; the fallback rule is always the
// explicit final step, never buried in the traversal.
var typeSynonyms = []struct {
	canonical domain.EventType
	words     []string
}{
	{domain.EventFall, []string{
		"fall", "fall_down", "falldown", "fallen", "slip", "trip",
		"person_down", "collapse",
	}},
	{domain.EventFight, []string{
		"fight", "assault", "aggressive", "aggression", "violence",
		"altercation", "brawl",
	}},
	{domain.EventCrowd, []string{
		"crowd", "crowding", "queue", "congestion", "gathering",
		"overcrowding",
	}},
	{domain.EventLoitering, []string{
		"loitering", "loiter", "idle", "linger", "lingering", "dwell",
	}},
}

var severitySynonyms = map[string]int{
	"critical": 3, "high": 3, "severe": 3, "urgent": 3, "emergency": 3,
	"moderate": 2, "medium": 2, "warn": 2, "warning": 2, "elevated": 2,
	"minor": 1, "low": 1, "info": 1, "notice": 1,
}

var statusSynonyms = map[string]domain.IncidentStatus{
	"new": domain.StatusNew, "open": domain.StatusNew,
	"created": domain.StatusNew, "pending": domain.StatusNew,
	"active": domain.StatusNew,

	"ack": domain.StatusAck, "acked": domain.StatusAck,
	"acknowledged": domain.StatusAck, "in_progress": domain.StatusAck,
	"investigating": domain.StatusAck, "assigned": domain.StatusAck,

	"resolved": domain.StatusResolved, "closed": domain.StatusResolved,
	"done": domain.StatusResolved, "dismissed": domain.StatusResolved,
	"cleared": domain.StatusResolved, "complete": domain.StatusResolved,
	"completed": domain.StatusResolved, "false_alarm": domain.StatusResolved,
}

// classifyType maps a raw type token onto the canonical enum: direct match
// first, then synonym lists. Returns EventUnknown and false on no match so
// the caller can retry against status/state fields.
func classifyType(raw string) (domain.EventType, bool) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return domain.EventUnknown, false
	}

	switch domain.EventType(token) {
	case domain.EventCrowd, domain.EventFall, domain.EventFight, domain.EventLoitering:
		return domain.EventType(token), true
	}

	for _, group := range typeSynonyms {
		for _, w := range group.words {
			if token == w || strings.Contains(token, w) {
				return group.canonical, true
			}
		}
	}
	return domain.EventUnknown, false
}

// classifySeverity resolves severity 1..3: numeric values clamp, severity
// words map through the synonym table, anything else falls back to the
// type-based default.
func classifySeverity(raw any, eventType domain.EventType) int {
	if n, ok := asFloat(raw); ok {
		return clampSeverity(int(n + 0.5))
	}
	if s := asString(raw); s != "" {
		if sev, ok := severitySynonyms[strings.ToLower(s)]; ok {
			return sev
		}
	}
	return eventType.DefaultSeverity()
}

func clampSeverity(s int) int {
	if s < 1 {
		return 1
	}
	if s > 3 {
		return 3
	}
	return s
}

// classifyConfidence accepts 0..1 directly and 0..100 scaled down; anything
// else defaults by severity.
func classifyConfidence(raw any, severity int) float64 {
	if c, ok := asFloat(raw); ok {
		if c >= 0 && c <= 1 {
			return c
		}
		if c > 1 && c <= 100 {
			return c / 100
		}
	}
	switch severity {
	case 3:
		return 0.92
	case 2:
		return 0.84
	default:
		return 0.78
	}
}

// classifySource canonicalizes the record source, treating any non-empty
// unrecognized value as an API feed. The final fallback is caller-supplied.
func classifySource(raw string, fallback domain.EventSource) domain.EventSource {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch domain.EventSource(token) {
	case domain.SourceDemo, domain.SourceCamera, domain.SourceAPI, domain.SourceUnknown:
		return domain.EventSource(token)
	}
	if strings.Contains(token, "cam") {
		return domain.SourceCamera
	}
	if strings.Contains(token, "demo") {
		return domain.SourceDemo
	}
	if token != "" {
		return domain.SourceAPI
	}
	if fallback != "" {
		return fallback
	}
	return domain.SourceUnknown
}

// classifyStatus canonicalizes triage status, defaulting to "new".
func classifyStatus(raw string) domain.IncidentStatus {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch domain.IncidentStatus(token) {
	case domain.StatusNew, domain.StatusAck, domain.StatusResolved:
		return domain.IncidentStatus(token)
	}
	if st, ok := statusSynonyms[token]; ok {
		return st
	}
	return domain.StatusNew
}
