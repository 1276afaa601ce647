// Package lss implements the Linguistic Session Store: thread-keyed
// coherence tracking over sliding windows of LCE messages, with drift-event
// fan-out to registered listeners.
package lss

import (
	"time"

	"github.com/codeready-toolchain/lri/pkg/lce"
)

// HistoryEntry pairs a stored envelope with the time it was appended.
type HistoryEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	Envelope  lce.Envelope `json:"envelope"`
}

// Metadata tracks session bookkeeping independent of coherence.
type Metadata struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// CoherenceResult is the three sub-scores and their overall, each in [0,1].
type CoherenceResult struct {
	Overall           float64 `json:"overall"`
	IntentSimilarity  float64 `json:"intent_similarity"`
	AffectStability   float64 `json:"affect_stability"`
	SemanticAlignment float64 `json:"semantic_alignment"`
}

// DriftType names the kind of continuity degradation a DriftEvent reports.
type DriftType string

const (
	DriftCoherenceDrop DriftType = "coherence_drop"
	DriftTopicShift    DriftType = "topic_shift"
	DriftAffectSwing   DriftType = "affect_swing"
)

// Severity buckets the magnitude of the quantity that drove a drift event.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DriftEvent is an emitted signal that thread_id's coherence has degraded.
type DriftEvent struct {
	ThreadID  string    `json:"thread_id"`
	Type      DriftType `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

// SessionMetrics holds the latest coherence result plus recent drift history.
type SessionMetrics struct {
	Coherence         CoherenceResult `json:"coherence"`
	PreviousCoherence float64         `json:"previous_coherence"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DriftEvents       []DriftEvent    `json:"drift_events"`
}

// recentDriftCap bounds SessionMetrics.DriftEvents so a long-lived thread's
// persisted record does not grow without bound.
const recentDriftCap = 50

// Session is the per-thread record held by the store, keyed by ThreadID.
type Session struct {
	ThreadID string         `json:"thread_id"`
	History  []HistoryEntry `json:"history"`
	Metadata Metadata       `json:"metadata"`
	Metrics  SessionMetrics `json:"metrics"`
}

// Stats summarizes the controller's view across all sessions.
type Stats struct {
	SessionCount      int     `json:"session_count"`
	TotalMessages     int     `json:"total_messages"`
	AverageCoherence  float64 `json:"average_coherence"`
}
