package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vidflow/internal/config"
	"vidflow/internal/instance"
	"vidflow/internal/logging"
)

// Manager polls the instance store and feeds pending and interrupted
// instances to the engine, at most one executor per instance and at most
// maxConcurrent instances at a time.
type Manager struct {
	cfg          *config.Config
	store        *instance.Store
	engine       *Engine
	logger       *slog.Logger
	pollInterval time.Duration

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight map[string]struct{}
	sem      chan struct{}
	lastErr  error
	lastID   string
}

// NewManager constructs the background instance processor.
func NewManager(cfg *config.Config, store *instance.Store, eng *Engine, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxConcurrent := cfg.Workflow.MaxConcurrentInstances
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		engine:       eng,
		logger:       logging.NewComponentLogger(logger, "manager"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		inFlight:     make(map[string]struct{}),
		sem:          make(chan struct{}, maxConcurrent),
	}
}

// Start begins background processing. Instances left running by a
// previous process are picked up again alongside pending ones; replay
// makes the resume safe.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("engine manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.pollLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight
// instances to finish their current stage.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) pollLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		records, err := m.store.InstancesByStatus(ctx, instance.StatusPending, instance.StatusRunning)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to poll instances",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check instance database access"))
			if !m.sleep(ctx, time.Duration(m.cfg.Workflow.ErrorRetryInterval)*time.Second) {
				return
			}
			continue
		}

		dispatched := false
		for _, record := range records {
			if m.dispatch(ctx, record.InstanceID) {
				dispatched = true
			}
		}
		if !dispatched {
			if !m.sleep(ctx, m.pollInterval) {
				return
			}
		}
	}
}

// dispatch launches an executor for the instance unless one is already
// in flight or the concurrency budget is exhausted.
func (m *Manager) dispatch(ctx context.Context, instanceID string) bool {
	m.mu.Lock()
	if _, busy := m.inFlight[instanceID]; busy {
		m.mu.Unlock()
		return false
	}
	select {
	case m.sem <- struct{}{}:
	default:
		m.mu.Unlock()
		return false
	}
	m.inFlight[instanceID] = struct{}{}
	m.lastID = instanceID
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.inFlight, instanceID)
			m.mu.Unlock()
			<-m.sem
			m.wg.Done()
		}()

		if err := m.engine.Run(ctx, instanceID); err != nil && !errors.Is(err, context.Canceled) {
			m.setLastError(err)
		}
	}()
	return true
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// StatusSummary is the lightweight health view exposed by the daemon.
type StatusSummary struct {
	Running        bool                    `json:"running"`
	InFlight       int                     `json:"in_flight"`
	InstanceStats  map[instance.Status]int `json:"instance_stats"`
	LastError      string                  `json:"last_error,omitempty"`
	LastInstanceID string                  `json:"last_instance_id,omitempty"`
}

// Status returns the latest manager diagnostics.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:        m.running,
		InFlight:       len(m.inFlight),
		LastInstanceID: m.lastID,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read instance stats", logging.Error(err))
	} else {
		summary.InstanceStats = stats
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
