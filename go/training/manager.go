package training

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/muchq/moonbase/go/metrics"
)

// DatasetProvider supplies the dataset a session trains against.
// go/datasets implements this per registered dataset.
type DatasetProvider interface {
	Spec() DatasetSpec
	Load(maxSamples int) (*Dataset, error)
}

type runningSession struct {
	engine *Engine
	handle *ControlHandle
}

// Manager is the process-wide registry of training sessions. It enforces
// one active (non-terminal) session per model, bounds concurrent training
// with a worker pool, and evicts old terminal sessions once more than
// retention of them have accumulated.
//
// Shared state follows the discipline of go/games_ws_backend's hub: a
// single RWMutex guards the maps, and broadcasts/reads always collect
// what they need under the lock and act on the copy afterward.
type Manager struct {
	mu            sync.RWMutex
	active        map[string]*runningSession // session_id -> running engine
	activeByModel map[string]string          // model_id -> session_id, non-terminal only
	terminal      *lru.Cache[string, *TrainingSession]

	// completed retains the compiled engine behind a completed session so
	// Predict keeps working after finish() drops the session from active.
	// Evicted in lockstep with terminal via terminal's OnEvict callback.
	completed map[string]*Engine

	datasets map[string]DatasetProvider

	pool    *WorkerPool
	log     *slog.Logger
	metrics *metrics.Metrics
	store   SessionStore
}

// SetStore attaches an optional write-through persistence layer. Safe to
// call once at startup before any session is started; nil (the default)
// means sessions only ever live in memory.
func (m *Manager) SetStore(store SessionStore) {
	m.store = store
}

func NewManager(workerPoolSize, sessionRetention int, datasets map[string]DatasetProvider, m *metrics.Metrics) *Manager {
	mgr := &Manager{
		active:        make(map[string]*runningSession),
		activeByModel: make(map[string]string),
		completed:     make(map[string]*Engine),
		datasets:      datasets,
		log:           slog.Default().With("component", "training.Manager"),
		metrics:       m,
	}

	// terminal.Add is only called from finish, which already holds mgr.mu,
	// and the cache runs this callback synchronously inside Add.
	onEvict := func(sessionID string, _ *TrainingSession) {
		delete(mgr.completed, sessionID)
	}
	terminal, err := lru.NewWithEvict[string, *TrainingSession](sessionRetention, onEvict)
	if err != nil {
		// sessionRetention<=0 is a caller bug; fall back to a sane default
		// rather than returning a Manager that can never retain history.
		terminal, _ = lru.NewWithEvict[string, *TrainingSession](64, onEvict)
	}
	mgr.terminal = terminal

	mgr.pool = NewWorkerPool(workerPoolSize, mgr.log, m)
	return mgr
}

type StartRequest struct {
	ModelID    string
	DatasetID  string
	Layers     []LayerSpec
	Overrides  Hyperparameters
	MaxSamples int
}

// StartTraining validates and compiles the request, registers a new
// session, and submits it to the worker pool. It returns immediately
// with the session in StatusPending; callers poll GetSession to observe
// progress.
func (m *Manager) StartTraining(req StartRequest) (*TrainingSession, error) {
	provider, ok := m.datasets[req.DatasetID]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	spec := provider.Spec()

	canonical, err := Validate(req.Layers, spec)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, busy := m.activeByModel[req.ModelID]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: session %s", ErrActiveSessionExists, existing)
	}
	sessionID := uuid.NewString()
	m.activeByModel[req.ModelID] = sessionID
	m.mu.Unlock()

	data, err := provider.Load(req.MaxSamples)
	if err != nil {
		m.releaseModelSlot(req.ModelID)
		return nil, fmt.Errorf("%w: %v", ErrCompilationFailed, err)
	}

	hp := spec.Recommended.WithOverrides(req.Overrides)

	compiled, err := Compile(canonical, spec, int64(len(canonical))+hashString(sessionID))
	if err != nil {
		m.releaseModelSlot(req.ModelID)
		return nil, err
	}

	engine := NewEngine(compiled, data, hp, sessionID, req.ModelID)
	handle := NewControlHandle()

	m.mu.Lock()
	m.active[sessionID] = &runningSession{engine: engine, handle: handle}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsStarted.Inc()
	}

	snapshot := engine.Snapshot()
	m.pool.Submit(func() {
		final := engine.Run(handle)
		if m.metrics != nil {
			m.metrics.EpochsRun.Add(float64(len(final.Metrics)))
		}
		m.finish(req.ModelID, sessionID, final, engine)
	})

	if m.store != nil {
		if err := m.store.SaveSession(snapshot); err != nil {
			m.log.Warn("failed to persist session start", "sessionId", sessionID, "error", err)
		}
	}
	return &snapshot, nil
}

func (m *Manager) releaseModelSlot(modelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.activeByModel, modelID)
}

func (m *Manager) finish(modelID, sessionID string, final TrainingSession, engine *Engine) {
	m.mu.Lock()
	delete(m.active, sessionID)
	delete(m.activeByModel, modelID)
	if final.Status == StatusCompleted {
		// Keep the engine reachable for Predict; evicted from completed
		// automatically when terminal's OnEvict callback fires for this key.
		m.completed[sessionID] = engine
	}
	m.terminal.Add(sessionID, &final)
	m.mu.Unlock()
	m.log.Info("session finished", "sessionId", sessionID, "status", final.Status)

	if m.store != nil {
		if err := m.store.SaveSession(final); err != nil {
			m.log.Warn("failed to persist finished session", "sessionId", sessionID, "error", err)
		}
		for _, metric := range final.Metrics {
			if err := m.store.AppendMetric(sessionID, metric); err != nil {
				m.log.Warn("failed to persist metric", "sessionId", sessionID, "epoch", metric.Epoch, "error", err)
			}
		}
	}

	if m.metrics != nil {
		switch final.Status {
		case StatusCompleted:
			m.metrics.SessionsCompleted.Inc()
		case StatusFailed:
			m.metrics.SessionsFailed.Inc()
		case StatusStopped:
			m.metrics.SessionsStopped.Inc()
		}
	}
}

// GetSession returns a read-only snapshot, with Metrics filtered to
// epoch>sinceEpoch.
func (m *Manager) GetSession(sessionID string, sinceEpoch int) (*TrainingSession, error) {
	m.mu.RLock()
	running, isRunning := m.active[sessionID]
	m.mu.RUnlock()

	var session TrainingSession
	if isRunning {
		session = running.engine.Snapshot()
	} else {
		m.mu.RLock()
		cached, ok := m.terminal.Get(sessionID)
		m.mu.RUnlock()
		if !ok {
			return nil, ErrSessionNotFound
		}
		session = *cached
	}

	filtered := session.Metrics[:0:0]
	for _, metric := range session.Metrics {
		if metric.Epoch > sinceEpoch {
			filtered = append(filtered, metric)
		}
	}
	session.Metrics = filtered
	return &session, nil
}

func (m *Manager) lookupRunning(sessionID string) (*runningSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.active[sessionID]
	if !ok {
		if _, terminal := m.terminal.Get(sessionID); terminal {
			return nil, nil
		}
		return nil, ErrSessionNotFound
	}
	return rs, nil
}

// Pause requests a pause; idempotent on an already-paused or terminal
// session.
func (m *Manager) Pause(sessionID string) (*TrainingSession, error) {
	rs, err := m.lookupRunning(sessionID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return m.GetSession(sessionID, 0)
	}
	rs.handle.RequestPause()
	snap := rs.engine.Snapshot()
	return &snap, nil
}

// Resume requests a resume; a no-op on a running (never-paused) session.
func (m *Manager) Resume(sessionID string) (*TrainingSession, error) {
	rs, err := m.lookupRunning(sessionID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return m.GetSession(sessionID, 0)
	}
	rs.handle.RequestResume()
	snap := rs.engine.Snapshot()
	return &snap, nil
}

// Stop requests a stop; idempotent on any terminal session.
func (m *Manager) Stop(sessionID string) (*TrainingSession, error) {
	rs, err := m.lookupRunning(sessionID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return m.GetSession(sessionID, 0)
	}
	rs.handle.RequestStop()
	snap := rs.engine.Snapshot()
	return &snap, nil
}

// Predict proxies to the owning engine's prediction pass. Only sessions
// that finished in StatusCompleted keep a live engine around to predict
// from; any other terminal status returns ErrSessionNotReady.
func (m *Manager) Predict(sessionID string, features []float64) (*PredictionResult, error) {
	m.mu.RLock()
	engine, ok := m.completed[sessionID]
	_, stillRunning := m.active[sessionID]
	m.mu.RUnlock()
	if !ok {
		if stillRunning {
			return nil, ErrSessionNotReady
		}
		if _, found := m.terminal.Get(sessionID); found {
			return nil, ErrSessionNotReady
		}
		return nil, ErrSessionNotFound
	}
	if m.metrics == nil {
		return engine.Predict(features)
	}
	timer := prometheus.NewTimer(m.metrics.PredictLatency)
	defer timer.ObserveDuration()
	return engine.Predict(features)
}

func hashString(s string) int64 {
	var h uint64 = 14695981039346656037
	for _, c := range s {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return int64(h >> 1)
}
