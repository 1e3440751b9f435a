package zino

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// UpdateHandler consumes notifications from a Manager's notification
// channel and applies the reconcile policy: refetch on attr/history/log
// changes, remove on scavenged or closed-with-autoremove. It must be built
// from an authenticated Manager and is not re-entrant — use a single
// reader per handler.
type UpdateHandler struct {
	mgr *Manager
}

// NewUpdateHandler builds a handler from an authenticated Manager,
// connecting and tying the notification channel first if it is absent.
func NewUpdateHandler(ctx context.Context, mgr *Manager) (*UpdateHandler, error) {
	if ok, err := mgr.verifySession(false); !ok {
		return nil, err
	}
	if mgr.notify == nil {
		mgr.notify = newNotifyChannel(mgr.config.Server, mgr.config.NotificationPort, mgr.logger)
	}
	if !mgr.notify.ready() {
		key, err := mgr.notify.connect(ctx, DefaultConnectTimeout, mgr.config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("connect notification channel: %w", err)
		}
		if err := mgr.request.ntie(ctx, mgr.config.Timeout, key); err != nil {
			return nil, fmt.Errorf("tie notification channel: %w", err)
		}
		mgr.notify.markTied()
	}
	return &UpdateHandler{mgr: mgr}, nil
}

// GetEventUpdate polls the notification channel once, bounded by timeout,
// and applies the reconcile policy for whatever arrives. It returns the
// changed id, or 0 if nothing changed (no notification arrived, the
// notification's type was unrecognised, or it was a non-"state" update
// for an id the Manager does not hold). Callers distinguish removal
// from modification by checking Manager.RemovedIDs after a non-zero
// return.
func (h *UpdateHandler) GetEventUpdate(ctx context.Context, timeout time.Duration) (int, error) {
	note, err := h.mgr.notify.poll(ctx, timeout)
	if err != nil {
		return 0, err
	}
	if note == nil {
		return 0, nil
	}

	h.mgr.mu.RLock()
	_, known := h.mgr.events[note.ID]
	h.mgr.mu.RUnlock()

	if !known && note.Type != "state" {
		return 0, nil
	}

	kind := note.Type
	switch kind {
	case "state", "attr", "history", "log", "scavenged":
	default:
		kind = "unknown"
	}
	h.mgr.metrics.IncUpdate(kind)

	switch note.Type {
	case "state":
		return h.applyState(ctx, note)
	case "attr", "history", "log":
		if _, err := h.mgr.GetUpdatedEventForID(ctx, note.ID); err != nil {
			return 0, err
		}
		return note.ID, nil
	case "scavenged":
		h.mgr.RemoveEvent(note.ID)
		return note.ID, nil
	default:
		h.mgr.logger.Info("unrecognised notification type", "type", note.Type, "id", note.ID)
		return 0, nil
	}
}

// applyState parses a "state" notification's info as "<old> <new>". A
// transition to "closed" with autoremove enabled evicts the event rather
// than refreshing it.
func (h *UpdateHandler) applyState(ctx context.Context, note *notification) (int, error) {
	fields := strings.Fields(note.Info)
	newState := ""
	oldState := ""
	if len(fields) >= 2 {
		oldState, newState = fields[0], fields[1]
	}

	h.mgr.metrics.RecordStateTransition(oldState, newState)

	if newState == string(AdmClosed) && h.mgr.config.Autoremove {
		h.mgr.RemoveEvent(note.ID)
		return note.ID, nil
	}

	if _, err := h.mgr.GetUpdatedEventForID(ctx, note.ID); err != nil {
		return 0, err
	}
	return note.ID, nil
}
