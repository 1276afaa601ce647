package lss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/lri/pkg/lce"
)

func pad(x, y, z float64) *lce.Affect {
	t := [3]float64{x, y, z}
	return &lce.Affect{PAD: &t}
}

func entry(intent lce.IntentType, affect *lce.Affect, topic string, t time.Time) HistoryEntry {
	env := lce.Envelope{V: 1, Intent: lce.Intent{Type: intent}, Policy: lce.Policy{Consent: lce.ConsentPrivate}}
	env.Affect = affect
	if topic != "" {
		env.Meaning = &lce.Meaning{Topic: topic}
	}
	return HistoryEntry{Timestamp: t, Envelope: env}
}

func TestComputeSingleMessageIsPerfectlyCoherent(t *testing.T) {
	e := NewEngine(5, 0.6, 0.15)
	now := time.Now()
	r := e.Compute([]HistoryEntry{entry(lce.IntentAsk, pad(0.1, 0.1, 0.1), "status", now)})
	assert.Equal(t, 1.0, r.Overall)
}

func TestComputeOutputsClampedToRange(t *testing.T) {
	e := NewEngine(5, 0.6, 0.15)
	now := time.Now()
	history := []HistoryEntry{
		entry(lce.IntentAsk, pad(0.9, 0.8, 0.8), "status", now),
		entry(lce.IntentDisagree, pad(-0.9, -0.9, -0.9), "unrelated", now.Add(time.Second)),
	}
	r := e.Compute(history)
	assert.GreaterOrEqual(t, r.Overall, 0.0)
	assert.LessOrEqual(t, r.Overall, 1.0)
	assert.GreaterOrEqual(t, r.IntentSimilarity, 0.0)
	assert.GreaterOrEqual(t, r.AffectStability, 0.0)
	assert.GreaterOrEqual(t, r.SemanticAlignment, 0.0)
}

func TestDriftScenarioEmitsCoherenceDrop(t *testing.T) {
	e := NewEngine(5, 0.6, 0.15)
	now := time.Now()

	history := []HistoryEntry{
		entry(lce.IntentAsk, pad(0.9, 0.8, 0.8), "status", now),
	}
	c1 := e.Compute(history)

	history = append(history, entry(lce.IntentTell, pad(0.1, 0.1, 0.1), "status", now.Add(time.Second)))
	c2 := e.Compute(history)
	events := e.DetectDrift("thread-b", c1.Overall, c2, history)
	_ = events // no assertion yet — only message 3 is required to trigger

	history = append(history, entry(lce.IntentPlan, pad(0.9, -0.9, 0.6), "unrelated", now.Add(2*time.Second)))
	c3 := e.Compute(history)
	events = e.DetectDrift("thread-b", c2.Overall, c3, history)

	var sawDrop bool
	for _, ev := range events {
		if ev.ThreadID == "thread-b" && ev.Type == DriftCoherenceDrop {
			sawDrop = true
		}
	}
	assert.True(t, sawDrop, "expected a coherence_drop event, got %+v", events)
}

func TestDetectAffectSwing(t *testing.T) {
	e := NewEngine(5, 0.6, 0.15)
	now := time.Now()
	history := []HistoryEntry{
		entry(lce.IntentAsk, pad(1, 1, 1), "t", now),
		entry(lce.IntentAsk, pad(-1, -1, -1), "t", now.Add(time.Second)),
	}
	current := e.Compute(history)
	events := e.DetectDrift("thread-swing", current.Overall, current, history)
	var sawSwing bool
	for _, ev := range events {
		if ev.Type == DriftAffectSwing {
			sawSwing = true
		}
	}
	assert.True(t, sawSwing)
}

func TestDetectTopicShift(t *testing.T) {
	e := NewEngine(5, 0.6, 0.15)
	now := time.Now()
	history := []HistoryEntry{
		entry(lce.IntentAsk, nil, "billing", now),
		entry(lce.IntentAsk, nil, "billing", now.Add(time.Second)),
		entry(lce.IntentAsk, nil, "weather", now.Add(2*time.Second)),
	}
	current := e.Compute(history)
	events := e.DetectDrift("thread-topic", current.Overall, current, history)
	var sawShift bool
	for _, ev := range events {
		if ev.Type == DriftTopicShift {
			sawShift = true
		}
	}
	assert.True(t, sawShift)
}
