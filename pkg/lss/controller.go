package lss

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/lri/pkg/lce"
	"github.com/codeready-toolchain/lri/pkg/masking"
)

// Listener receives a drift event. Registered with Controller.On.
type Listener func(DriftEvent)

// Controller orchestrates storage, the coherence engine, and the listener
// table — component G of SPEC_FULL.md. It is stateless between calls beyond
// its own listener table and per-thread lock set; every mutation round-trips
// through Store.
type Controller struct {
	store     Store
	engine    *Engine
	ttl       time.Duration
	logger    *slog.Logger
	masker    *masking.Service
	keyPrefix string

	listenersMu sync.Mutex
	listeners   map[string][]Listener

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewController wires a Store and Engine into a Controller. ttl of zero
// disables session expiry. A nil logger falls back to slog.Default(); a nil
// masker falls back to masking.NewService() so every log line touching an
// envelope runs through it (spec §4.N — sig never reaches a log line
// unredacted). The session key namespace defaults to DefaultSessionPrefix;
// call WithKeyPrefix to observe config.Options.RedisPrefix.
func NewController(store Store, engine *Engine, ttl time.Duration, logger *slog.Logger, masker *masking.Service) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if masker == nil {
		masker = masking.NewService()
	}
	return &Controller{
		store:     store,
		engine:    engine,
		ttl:       ttl,
		logger:    logger,
		masker:    masker,
		keyPrefix: DefaultSessionPrefix,
		listeners: make(map[string][]Listener),
		locks:     make(map[string]*sync.Mutex),
	}
}

// WithKeyPrefix overrides the session key namespace (config.Options.RedisPrefix),
// so changing that setting actually changes the keys Get/Set/Scan observe
// instead of only being parsed and validated. A blank prefix is ignored.
func (c *Controller) WithKeyPrefix(prefix string) *Controller {
	if prefix != "" {
		c.keyPrefix = prefix
	}
	return c
}

// lockFor returns the per-thread mutex used to serialize store operations on
// threadID, creating it if needed (spec §5: "store operations are
// serialized" per thread_id).
func (c *Controller) lockFor(threadID string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[threadID] = l
	}
	return l
}

// Store appends env to threadID's history, recomputes coherence metrics,
// persists the session, and synchronously fans out any resulting drift
// events to registered "drift" listeners, in registration order.
func (c *Controller) Store(ctx context.Context, threadID string, env lce.Envelope) (*Session, error) {
	lock := c.lockFor(threadID)
	lock.Lock()
	defer lock.Unlock()

	session, found, err := c.load(ctx, threadID)
	if err != nil {
		c.logger.Error("failed to load session", append(c.masker.LogAttrs(&env), "error", err)...)
		return nil, err
	}
	if !found {
		session = &Session{ThreadID: threadID}
	}

	c.logger.Debug("storing envelope", c.masker.LogAttrs(&env)...)

	now := time.Now()
	session.History = append(session.History, HistoryEntry{Timestamp: now, Envelope: env})
	if session.Metadata.CreatedAt.IsZero() {
		session.Metadata.CreatedAt = now
	}
	session.Metadata.UpdatedAt = now
	session.Metadata.MessageCount = len(session.History)

	previousOverall := session.Metrics.Coherence.Overall
	current := c.engine.Compute(session.History)

	var drift []DriftEvent
	if len(session.History) > 1 {
		drift = c.engine.DetectDrift(threadID, previousOverall, current, session.History)
	}

	session.Metrics.PreviousCoherence = previousOverall
	session.Metrics.Coherence = current
	session.Metrics.UpdatedAt = now
	session.Metrics.DriftEvents = appendCapped(session.Metrics.DriftEvents, drift...)

	if err := c.persist(ctx, session); err != nil {
		c.logger.Error("failed to persist session", append(c.masker.LogAttrs(&env), "error", err)...)
		return nil, err
	}

	c.dispatchDrift(drift)

	return session, nil
}

// GetSession loads threadID's session, returning found=false if absent or
// TTL-expired.
func (c *Controller) GetSession(ctx context.Context, threadID string) (*Session, bool, error) {
	return c.load(ctx, threadID)
}

// Ping verifies the storage backend is reachable, used by the health
// endpoint to report unhealthy when the configured Store (memory or redis)
// cannot be round-tripped.
func (c *Controller) Ping(ctx context.Context) error {
	_, _, err := c.store.Get(ctx, c.keyPrefix+"__health__")
	return err
}

// GetMetrics loads only threadID's metrics.
func (c *Controller) GetMetrics(ctx context.Context, threadID string) (*SessionMetrics, bool, error) {
	session, found, err := c.load(ctx, threadID)
	if err != nil || !found {
		return nil, found, err
	}
	return &session.Metrics, true, nil
}

// UpdateMetrics applies a caller-supplied override: if coherence is non-nil
// it becomes the current overall (the prior current moves to
// PreviousCoherence), UpdatedAt advances to now, and any driftEvents are
// appended. Unlike Store, UpdateMetrics does not fan out to listeners — spec
// §5 scopes synchronous listener dispatch to Store alone.
func (c *Controller) UpdateMetrics(ctx context.Context, threadID string, coherence *CoherenceResult, driftEvents []DriftEvent) (*SessionMetrics, bool, error) {
	lock := c.lockFor(threadID)
	lock.Lock()
	defer lock.Unlock()

	session, found, err := c.load(ctx, threadID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	if coherence != nil {
		session.Metrics.PreviousCoherence = session.Metrics.Coherence.Overall
		session.Metrics.Coherence = *coherence
	}
	session.Metrics.UpdatedAt = time.Now()
	session.Metrics.DriftEvents = appendCapped(session.Metrics.DriftEvents, driftEvents...)

	if err := c.persist(ctx, session); err != nil {
		return nil, false, err
	}
	return &session.Metrics, true, nil
}

// On registers a listener for eventName. Currently only "drift" is emitted.
// Listeners run in registration order; a panicking listener is logged and
// does not prevent later listeners from running or fail Store.
func (c *Controller) On(eventName string, listener Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners[eventName] = append(c.listeners[eventName], listener)
}

func (c *Controller) dispatchDrift(events []DriftEvent) {
	if len(events) == 0 {
		return
	}
	c.listenersMu.Lock()
	ls := append([]Listener(nil), c.listeners["drift"]...)
	c.listenersMu.Unlock()

	for _, ev := range events {
		for _, l := range ls {
			c.invokeListener(l, ev)
		}
	}
}

func (c *Controller) invokeListener(l Listener, ev DriftEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("drift listener panicked",
				"thread_id", ev.ThreadID, "drift_type", ev.Type, "panic", r)
		}
	}()
	l(ev)
}

// GetStats summarizes every live session: count, total messages across all
// sessions, and the mean overall coherence (0 when there are no sessions).
func (c *Controller) GetStats(ctx context.Context) (Stats, error) {
	keys, err := c.store.Scan(ctx, c.keyPrefix)
	if err != nil {
		return Stats{}, fmt.Errorf("scan sessions: %w", err)
	}

	var totalMessages int
	var coherenceSum float64
	var live int
	for _, key := range keys {
		data, ok, err := c.store.Get(ctx, key)
		if err != nil {
			return Stats{}, fmt.Errorf("get session %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			c.logger.Warn("dropping undecodable session record", "key", key, "error", err)
			continue
		}
		live++
		totalMessages += len(s.History)
		coherenceSum += s.Metrics.Coherence.Overall
	}

	stats := Stats{SessionCount: live, TotalMessages: totalMessages}
	if live > 0 {
		stats.AverageCoherence = coherenceSum / float64(live)
	}
	return stats, nil
}

func (c *Controller) load(ctx context.Context, threadID string) (*Session, bool, error) {
	data, ok, err := c.store.Get(ctx, SessionKey(c.keyPrefix, threadID))
	if err != nil {
		return nil, false, fmt.Errorf("get session %s: %w", threadID, err)
	}
	if !ok {
		return nil, false, nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", threadID, err)
	}
	return &s, true, nil
}

func (c *Controller) persist(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ThreadID, err)
	}
	if err := c.store.Set(ctx, SessionKey(c.keyPrefix, session.ThreadID), data, c.ttl); err != nil {
		return fmt.Errorf("persist session %s: %w", session.ThreadID, err)
	}
	return nil
}

// appendCapped appends add to existing, keeping at most recentDriftCap
// entries so a long-lived thread's persisted metrics stay bounded.
func appendCapped(existing []DriftEvent, add ...DriftEvent) []DriftEvent {
	out := append(existing, add...)
	if len(out) > recentDriftCap {
		out = out[len(out)-recentDriftCap:]
	}
	return out
}
