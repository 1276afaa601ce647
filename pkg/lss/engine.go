package lss

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/codeready-toolchain/lri/pkg/lce"
)

// Defaults from spec §4.F / §6.
const (
	DefaultCoherenceWindow    = 5
	DefaultDriftMinCoherence  = 0.6
	DefaultDriftDropThreshold = 0.15
)

// affectSwingThreshold is the implementation constant named in spec §4.F
// ("If the PAD distance between the last two messages exceeds an
// implementation constant, emit affect_swing"). Chosen at roughly 43% of
// the theoretical max PAD distance (2√3) so a swing across two full-opposite
// corners of the PAD cube reliably fires, while small moment-to-moment
// fluctuation does not.
const affectSwingThreshold = 1.5

// maxPADDistance is the theoretical maximum L2 distance between two PAD
// tuples, each coordinate in [-1,1]: sqrt(3 * 2^2).
var maxPADDistance = math.Sqrt(3 * 4.0)

// topicMismatchScore is the fixed, implementation-defined alignment value
// assigned to a pair of adjacent messages with distinct topics. Spec only
// requires this be "a lower fixed value ... ≤ 0.5".
const topicMismatchScore = 0.2

// affinityClusters groups intent types so that intents in the same cluster
// score higher than intents in different clusters, and the disagree cluster
// is treated as opposed to every other cluster. Within the spec's own
// examples (ask/tell higher than ask/disagree) this yields: same type → 1.0,
// same cluster → 0.6, different cluster → 0.3, disagree vs. anything else →
// 0.0.
var affinityClusters = map[lce.IntentType]int{
	lce.IntentAsk:    0,
	lce.IntentTell:   0,
	lce.IntentNotify: 0,
	lce.IntentSync:   0,

	lce.IntentPropose: 1,
	lce.IntentPlan:    1,
	lce.IntentConfirm: 1,
	lce.IntentAgree:   1,

	lce.IntentReflect: 2,
}

const disagreeCluster = -1

func clusterOf(t lce.IntentType) int {
	if t == lce.IntentDisagree {
		return disagreeCluster
	}
	if c, ok := affinityClusters[t]; ok {
		return c
	}
	return 2
}

func intentPairSimilarity(a, b lce.IntentType) float64 {
	if a == b {
		return 1.0
	}
	ca, cb := clusterOf(a), clusterOf(b)
	if ca == disagreeCluster || cb == disagreeCluster {
		return 0.0
	}
	if ca == cb {
		return 0.6
	}
	return 0.3
}

// Engine computes coherence sub-scores over a sliding window and decides
// when a just-stored message constitutes drift (spec §4.F).
type Engine struct {
	Window             int
	DriftMinCoherence  float64
	DriftDropThreshold float64
}

// NewEngine builds an Engine, falling back to spec defaults for non-positive
// inputs.
func NewEngine(window int, minCoherence, dropThreshold float64) *Engine {
	if window <= 0 {
		window = DefaultCoherenceWindow
	}
	if minCoherence <= 0 {
		minCoherence = DefaultDriftMinCoherence
	}
	if dropThreshold <= 0 {
		dropThreshold = DefaultDriftDropThreshold
	}
	return &Engine{Window: window, DriftMinCoherence: minCoherence, DriftDropThreshold: dropThreshold}
}

// windowOf returns the last e.Window entries of history, oldest first.
func (e *Engine) windowOf(history []HistoryEntry) []HistoryEntry {
	w := e.Window
	if w <= 0 || w > len(history) {
		w = len(history)
	}
	return history[len(history)-w:]
}

// Compute derives a CoherenceResult from the last e.Window messages of
// history.
func (e *Engine) Compute(history []HistoryEntry) CoherenceResult {
	window := e.windowOf(history)
	r := CoherenceResult{
		IntentSimilarity:  intentSimilarity(window),
		AffectStability:   affectStability(window),
		SemanticAlignment: semanticAlignment(window),
	}
	r.Overall = clamp01((r.IntentSimilarity + r.AffectStability + r.SemanticAlignment) / 3)
	return r
}

func intentSimilarity(window []HistoryEntry) float64 {
	if len(window) <= 1 {
		return 1.0
	}
	var sum float64
	n := 0
	for i := 1; i < len(window); i++ {
		sum += intentPairSimilarity(window[i-1].Envelope.Intent.Type, window[i].Envelope.Intent.Type)
		n++
	}
	return clamp01(sum / float64(n))
}

func affectStability(window []HistoryEntry) float64 {
	hasPAD := false
	for _, h := range window {
		if h.Envelope.Affect != nil && h.Envelope.Affect.PAD != nil {
			hasPAD = true
			break
		}
	}
	if !hasPAD || len(window) <= 1 {
		return 1.0
	}

	var sum float64
	n := 0
	for i := 1; i < len(window); i++ {
		sum += padDistance(padOf(window[i-1]), padOf(window[i]))
		n++
	}
	mean := sum / float64(n)
	return clamp01(1 - mean/2)
}

func semanticAlignment(window []HistoryEntry) float64 {
	type pair struct{ a, b string }
	var pairs []pair
	for i := 1; i < len(window); i++ {
		prevTopic, prevOK := topicOf(window[i-1])
		curTopic, curOK := topicOf(window[i])
		if !prevOK || !curOK {
			continue
		}
		pairs = append(pairs, pair{prevTopic, curTopic})
	}
	if len(pairs) == 0 {
		return 1.0
	}
	var sum float64
	for _, p := range pairs {
		if strings.EqualFold(p.a, p.b) {
			sum += 1.0
		} else {
			sum += topicMismatchScore
		}
	}
	return clamp01(sum / float64(len(pairs)))
}

func topicOf(h HistoryEntry) (string, bool) {
	if h.Envelope.Meaning == nil || h.Envelope.Meaning.Topic == "" {
		return "", false
	}
	return h.Envelope.Meaning.Topic, true
}

func padOf(h HistoryEntry) [3]float64 {
	if h.Envelope.Affect == nil || h.Envelope.Affect.PAD == nil {
		return [3]float64{}
	}
	return *h.Envelope.Affect.PAD
}

func padDistance(a, b [3]float64) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func severityFromMagnitude(magnitude, rangeMax float64) Severity {
	if rangeMax <= 0 {
		return SeverityLow
	}
	frac := magnitude / rangeMax
	switch {
	case frac >= 2.0/3.0:
		return SeverityHigh
	case frac >= 1.0/3.0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// DetectDrift compares a just-computed CoherenceResult against the previous
// stored overall and the window it was computed from, producing zero or
// more DriftEvents per spec §4.F. history must be non-empty.
func (e *Engine) DetectDrift(threadID string, previousOverall float64, current CoherenceResult, history []HistoryEntry) []DriftEvent {
	var events []DriftEvent
	window := e.windowOf(history)
	now := window[len(window)-1].Timestamp

	if drop := previousOverall - current.Overall; drop >= e.DriftDropThreshold && current.Overall < e.DriftMinCoherence {
		events = append(events, DriftEvent{
			ThreadID:  threadID,
			Type:      DriftCoherenceDrop,
			Severity:  severityFromMagnitude(drop, 1.0),
			Timestamp: now,
			Details:   fmt.Sprintf("overall coherence dropped by %.3f to %.3f", drop, current.Overall),
		})
	}

	if ev, ok := detectTopicShift(threadID, window, now); ok {
		events = append(events, ev)
	}

	if ev, ok := detectAffectSwing(threadID, window, now); ok {
		events = append(events, ev)
	}

	return events
}

// detectTopicShift fires when the last two messages carry distinct topics
// and at least two prior messages in the window shared an identical topic
// (a "run of identical topics of length >= 2" per spec §4.F).
func detectTopicShift(threadID string, window []HistoryEntry, now time.Time) (DriftEvent, bool) {
	if len(window) < 3 {
		return DriftEvent{}, false
	}
	last := window[len(window)-1]
	prev := window[len(window)-2]
	lastTopic, lastOK := topicOf(last)
	prevTopic, prevOK := topicOf(prev)
	if !lastOK || !prevOK || strings.EqualFold(lastTopic, prevTopic) {
		return DriftEvent{}, false
	}

	runLen := 1
	for i := len(window) - 2; i > 0; i-- {
		t, ok := topicOf(window[i])
		tPrior, okPrior := topicOf(window[i-1])
		if !ok || !okPrior || !strings.EqualFold(t, tPrior) {
			break
		}
		runLen++
	}
	if runLen < 2 {
		return DriftEvent{}, false
	}

	return DriftEvent{
		ThreadID:  threadID,
		Type:      DriftTopicShift,
		Severity:  severityFromMagnitude(1-topicMismatchScore, 1.0),
		Timestamp: now,
		Details:   fmt.Sprintf("topic changed from %q to %q after a run of %d", prevTopic, lastTopic, runLen),
	}, true
}

// detectAffectSwing fires when the PAD distance between the last two
// messages exceeds affectSwingThreshold.
func detectAffectSwing(threadID string, window []HistoryEntry, now time.Time) (DriftEvent, bool) {
	if len(window) < 2 {
		return DriftEvent{}, false
	}
	last := window[len(window)-1]
	prev := window[len(window)-2]
	if last.Envelope.Affect == nil || last.Envelope.Affect.PAD == nil ||
		prev.Envelope.Affect == nil || prev.Envelope.Affect.PAD == nil {
		return DriftEvent{}, false
	}

	d := padDistance(padOf(prev), padOf(last))
	if d <= affectSwingThreshold {
		return DriftEvent{}, false
	}

	return DriftEvent{
		ThreadID:  threadID,
		Type:      DriftAffectSwing,
		Severity:  severityFromMagnitude(d, maxPADDistance),
		Timestamp: now,
		Details:   fmt.Sprintf("PAD distance %.3f exceeded threshold %.3f", d, affectSwingThreshold),
	}, true
}
