package zino

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	zinometrics "github.com/zinolib/gozino/internal/metrics"
)

// Manager holds the live event map, the removed-id set, and the request
// and notification channels that back them. It is the library's main
// entry point.
type Manager struct {
	mu         sync.RWMutex
	events     map[int]Event
	removedIDs map[int]struct{}

	config  Config
	request *requestChannel
	notify  *notifyChannel

	metrics *zinometrics.Collector
	logger  *slog.Logger
}

// ManagerOption configures optional Manager parameters.
type ManagerOption func(*Manager)

// WithMetrics attaches a Prometheus metrics collector. A nil collector
// leaves metrics disabled.
func WithMetrics(m *zinometrics.Collector) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(mgr *Manager) {
		if log != nil {
			mgr.logger = log
		}
	}
}

// NewManager creates a Manager configured against cfg, with an unconnected
// session. Call Connect to establish the sockets.
func NewManager(cfg Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		events:     make(map[int]Event),
		removedIDs: make(map[int]struct{}),
		config:     cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "zino.manager"))
	return m
}

// Connect opens the request channel, authenticates if credentials were
// supplied, then opens and ties the notification channel.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.config.Validate(); err != nil {
		return err
	}

	m.request = newRequestChannel(m.config.Server, m.config.Port, m.logger)
	challenge, err := m.request.connect(ctx, DefaultConnectTimeout, m.config.Timeout)
	if err != nil {
		return fmt.Errorf("connect request channel: %w", err)
	}

	if m.config.Username != "" {
		if err := m.request.authenticate(ctx, m.config.Timeout, challenge, m.config.Username, m.config.Password); err != nil {
			m.metrics.IncAuthFailure()
			return err
		}
	}

	m.notify = newNotifyChannel(m.config.Server, m.config.NotificationPort, m.logger)
	key, err := m.notify.connect(ctx, DefaultConnectTimeout, m.config.Timeout)
	if err != nil {
		return fmt.Errorf("connect notification channel: %w", err)
	}
	if err := m.request.ntie(ctx, m.config.Timeout, key); err != nil {
		return fmt.Errorf("tie notification channel: %w", err)
	}
	m.notify.markTied()

	return nil
}

// Authenticate authenticates an already-connected request channel, useful
// when credentials were not supplied to Config up front.
func (m *Manager) Authenticate(ctx context.Context, username, password string) error {
	if m.request == nil {
		return ErrNotConnected
	}
	challenge, err := m.request.lastChallenge()
	if err != nil {
		return err
	}
	if err := m.request.authenticate(ctx, m.config.Timeout, challenge, username, password); err != nil {
		m.metrics.IncAuthFailure()
		return err
	}
	return nil
}

// Disconnect closes both channels idempotently, concurrently.
func (m *Manager) Disconnect(_ context.Context) error {
	var g errgroup.Group
	if m.request != nil {
		g.Go(m.request.close)
	}
	if m.notify != nil {
		g.Go(m.notify.close)
	}
	return g.Wait()
}

// verifySession reports whether the session is connected, optionally
// returning an error instead of a bare bool.
func (m *Manager) verifySession(quiet bool) (bool, error) {
	ok := m.request != nil && m.request.connected()
	if !ok && !quiet {
		return false, ErrNotConnected
	}
	return ok, nil
}

// Events returns a snapshot copy of the live event map.
func (m *Manager) Events() map[int]Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]Event, len(m.events))
	for k, v := range m.events {
		out[k] = v
	}
	return out
}

// RemovedIDs returns a snapshot copy of the removed-id set.
func (m *Manager) RemovedIDs() map[int]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]struct{}, len(m.removedIDs))
	for k := range m.removedIDs {
		out[k] = struct{}{}
	}
	return out
}

// GetEvents refreshes the event map from the server: lists caseids, then
// fetches each. Ids that fail to fetch are moved to removedIDs.
func (m *Manager) GetEvents(ctx context.Context) error {
	if _, err := m.verifySession(false); err != nil {
		return err
	}

	ids, err := m.request.caseIDs(ctx, m.config.Timeout)
	if err != nil {
		return err
	}

	for _, id := range ids {
		ev, err := m.CreateEventFromID(ctx, id)
		if err != nil {
			m.RemoveEvent(id)
			continue
		}
		m.mu.Lock()
		_, existed := m.events[id]
		m.events[id] = ev
		delete(m.removedIDs, id)
		m.mu.Unlock()
		if !existed {
			m.metrics.RegisterEvent(string(ev.Base().Type))
		}
	}
	return nil
}

// CreateEventFromID fetches and parses a single event's attributes,
// without attaching history or log.
func (m *Manager) CreateEventFromID(ctx context.Context, id int) (Event, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	lines, err := m.request.getAttrs(ctx, m.config.Timeout, id)
	if err != nil {
		return nil, err
	}
	return ParseAttrList(lines)
}

// GetUpdatedEventForID fetches attributes, history, and log for id and
// returns the fully populated Event, also storing it in the map.
func (m *Manager) GetUpdatedEventForID(ctx context.Context, id int) (Event, error) {
	ev, err := m.CreateEventFromID(ctx, id)
	if err != nil {
		return nil, err
	}

	histLines, err := m.request.getHist(ctx, m.config.Timeout, id)
	if err != nil {
		return nil, err
	}
	hist, err := ParseHistory(histLines)
	if err != nil {
		return nil, err
	}
	ev.Base().History = hist

	logLines, err := m.request.getLog(ctx, m.config.Timeout, id)
	if err != nil {
		return nil, err
	}
	log, err := ParseLog(logLines)
	if err != nil {
		return nil, err
	}
	ev.Base().Log = log

	m.mu.Lock()
	_, existed := m.events[id]
	m.events[id] = ev
	delete(m.removedIDs, id)
	m.mu.Unlock()
	if !existed {
		m.metrics.RegisterEvent(string(ev.Base().Type))
	}

	return ev, nil
}

// ChangeAdminStateForID sets id's administrative state, then refetches it.
// Reopening a closed case surfaces ErrEventClosed and leaves the map
// untouched.
func (m *Manager) ChangeAdminStateForID(ctx context.Context, id int, state AdmState) (Event, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	before := state
	if err := m.request.setState(ctx, m.config.Timeout, id, before); err != nil {
		return nil, err
	}
	m.metrics.RecordStateTransition("", string(state))
	return m.GetUpdatedEventForID(ctx, id)
}

// AddHistoryEntryForID appends a history line to id, then refetches it.
func (m *Manager) AddHistoryEntryForID(ctx context.Context, id int, message string) (Event, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	if err := m.request.addHist(ctx, m.config.Timeout, id, message); err != nil {
		return nil, err
	}
	return m.GetUpdatedEventForID(ctx, id)
}

// ClearFlapping clears the flap-damping state for a PortStateEvent. It is
// a no-op returning nil for any other event variant.
func (m *Manager) ClearFlapping(ctx context.Context, e Event) error {
	ps, ok := e.(*PortStateEvent)
	if !ok {
		return nil
	}
	if _, err := m.verifySession(false); err != nil {
		return err
	}
	return m.request.clearFlap(ctx, m.config.Timeout, ps.Router, ps.IfIndex)
}

// Poll triggers a server-side repoll of the router/interface underlying e.
func (m *Manager) Poll(ctx context.Context, e Event) error {
	if _, err := m.verifySession(false); err != nil {
		return err
	}
	base := e.Base()
	if ps, ok := e.(*PortStateEvent); ok {
		return m.request.pollIntf(ctx, m.config.Timeout, base.Router, ps.IfIndex)
	}
	return m.request.pollRtr(ctx, m.config.Timeout, base.Router)
}

// RemoveEvent evicts id from the live map and records it in removedIDs.
func (m *Manager) RemoveEvent(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	delete(m.events, id)
	m.removedIDs[id] = struct{}{}
	if ok {
		m.metrics.UnregisterEvent(string(ev.Base().Type))
	}
}

// SetHistoryForEvent attaches a history list to an already-stored event.
func (m *Manager) SetHistoryForEvent(id int, history []HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[id]; ok {
		ev.Base().History = history
	}
}

// SetLogForEvent attaches a log list to an already-stored event.
func (m *Manager) SetLogForEvent(id int, log []LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[id]; ok {
		ev.Base().Log = log
	}
}
