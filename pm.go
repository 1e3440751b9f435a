package zino

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zinolib/gozino/internal/wire"
)

// PMType is the kind of object a preventive-maintenance window matches.
type PMType string

const (
	PMDevice    PMType = "device"
	PMPortState PMType = "portstate"
)

// PMMatchKind selects how a PM window's target expression is matched.
type PMMatchKind string

const (
	PMMatchExact      PMMatchKind = "exact"
	PMMatchStr        PMMatchKind = "str"
	PMMatchRegexp     PMMatchKind = "regexp"
	PMMatchIntfRegexp PMMatchKind = "intf-regexp"
)

// PM is a scheduled preventive-maintenance window: alarms for matching
// devices/interfaces are suppressed between From and To.
type PM struct {
	ID     int
	From   time.Time
	To     time.Time
	Type   PMType
	Match  PMMatchKind
	Device string
}

// AddDevice schedules a device-level PM window and returns its id.
// Matching kind must be exact, str, or regexp.
func (m *Manager) AddDevice(ctx context.Context, from, to time.Time, match PMMatchKind, device string) (int, error) {
	if err := validatePMWindow(from, to); err != nil {
		return 0, err
	}
	switch match {
	case PMMatchExact, PMMatchStr, PMMatchRegexp:
	default:
		return 0, fmt.Errorf("invalid device matcher kind %q: %w", match, ErrValidation)
	}
	if _, err := m.verifySession(false); err != nil {
		return 0, err
	}

	cmd := fmt.Sprintf("pm add %d %d device %s %s", localEpoch(from), localEpoch(to), match, device)
	resp, err := m.request.do(ctx, cmd, m.config.Timeout)
	if err != nil {
		return 0, err
	}
	return parsePMAddReply(resp)
}

// AddInterfaceByName schedules an interface-level PM window on device,
// matching interface names against the regular expression iface
// ("intf-regexp"), and returns its id.
func (m *Manager) AddInterfaceByName(ctx context.Context, from, to time.Time, device, iface string) (int, error) {
	if err := validatePMWindow(from, to); err != nil {
		return 0, err
	}
	if _, err := m.verifySession(false); err != nil {
		return 0, err
	}

	cmd := fmt.Sprintf("pm add %d %d portstate intf-regexp %s %s", localEpoch(from), localEpoch(to), device, iface)
	resp, err := m.request.do(ctx, cmd, m.config.Timeout)
	if err != nil {
		return 0, err
	}
	return parsePMAddReply(resp)
}

// AddInterfacesByName is the plural alias. Unlike one historical revision
// of this call, it returns the scheduled id.
func (m *Manager) AddInterfacesByName(ctx context.Context, from, to time.Time, device, iface string) (int, error) {
	return m.AddInterfaceByName(ctx, from, to, device, iface)
}

// AddInterfaceByDescription schedules an interface-level PM window matched
// by a regular expression over interface descriptions, and returns its id.
func (m *Manager) AddInterfaceByDescription(ctx context.Context, from, to time.Time, descrPattern string) (int, error) {
	if err := validatePMWindow(from, to); err != nil {
		return 0, err
	}
	if _, err := m.verifySession(false); err != nil {
		return 0, err
	}

	cmd := fmt.Sprintf("pm add %d %d portstate regexp %s", localEpoch(from), localEpoch(to), descrPattern)
	resp, err := m.request.do(ctx, cmd, m.config.Timeout)
	if err != nil {
		return 0, err
	}
	return parsePMAddReply(resp)
}

// CancelPM cancels a scheduled PM window.
func (m *Manager) CancelPM(ctx context.Context, id int) error {
	if _, err := m.verifySession(false); err != nil {
		return err
	}
	resp, err := m.request.do(ctx, fmt.Sprintf("pm cancel %d", id), m.config.Timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("pm cancel %d: %d %s: %w", id, resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}

// ListPM lists scheduled PM window ids.
func (m *Manager) ListPM(ctx context.Context) ([]int, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	resp, err := m.request.do(ctx, "pm list", m.config.Timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeIDList {
		return nil, fmt.Errorf("pm list: unexpected code %d: %w", resp.Code, ErrProtocol)
	}
	ids := make([]int, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
			ids = append(ids, n)
		}
	}
	return ids, nil
}

// PMDetails fetches a single PM window's descriptor.
func (m *Manager) PMDetails(ctx context.Context, id int) (*PM, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	resp, err := m.request.do(ctx, fmt.Sprintf("pm details %d", id), m.config.Timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeOK {
		return nil, fmt.Errorf("pm details %d: %d %s: %w", id, resp.Code, resp.Text, ErrProtocol)
	}

	fields := strings.Fields(resp.Text)
	if len(fields) != 6 {
		return nil, fmt.Errorf("pm details %d: expected 6 fields, got %d: %w", id, len(fields), ErrProtocol)
	}
	pmID, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("pm details %d: bad id field: %w", id, ErrProtocol)
	}
	fromEpoch, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("pm details %d: bad from field: %w", id, ErrProtocol)
	}
	toEpoch, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("pm details %d: bad to field: %w", id, ErrProtocol)
	}

	return &PM{
		ID:     pmID,
		From:   time.Unix(fromEpoch, 0),
		To:     time.Unix(toEpoch, 0),
		Type:   PMType(fields[3]),
		Match:  PMMatchKind(fields[4]),
		Device: fields[5],
	}, nil
}

// PMMatching lists the devices/interfaces a PM window currently matches.
// Each returned entry is either [device] or [device, ifindex, ifname,
// ifdescr], depending on the window's type; the caller is responsible for
// interpreting the shape.
func (m *Manager) PMMatching(ctx context.Context, id int) ([][]string, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	resp, err := m.request.do(ctx, fmt.Sprintf("pm matching %d", id), m.config.Timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeLogEntries {
		return nil, fmt.Errorf("pm matching %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}

	out := make([][]string, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		fields := strings.SplitN(line, " ", 5)
		if len(fields) < 1 {
			continue
		}
		out = append(out, fields[1:])
	}
	return out, nil
}

// PMAddLog appends a log line to a PM window.
func (m *Manager) PMAddLog(ctx context.Context, id int, message string) error {
	if _, err := m.verifySession(false); err != nil {
		return err
	}
	resp, err := m.request.do(ctx, fmt.Sprintf("pm addlog %d  -", id), m.config.Timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeContinuation {
		return fmt.Errorf("pm addlog %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}

	deadline := deadlineFrom(ctx, m.config.Timeout)
	if err := m.request.conn.Send(message+"\r\n\r\n.", deadline); err != nil {
		return translateWireErr(err)
	}
	resp, err = m.request.conn.ReadResponse(deadline)
	if err != nil {
		return translateWireErr(err)
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("pm addlog %d: payload rejected %d %s: %w", id, resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}

// PMLog fetches a PM window's log entries.
func (m *Manager) PMLog(ctx context.Context, id int) ([]LogEntry, error) {
	if _, err := m.verifySession(false); err != nil {
		return nil, err
	}
	resp, err := m.request.do(ctx, fmt.Sprintf("pm log %d", id), m.config.Timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeLogEntries {
		return nil, fmt.Errorf("pm log %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}
	return ParseLog(resp.Lines)
}

func validatePMWindow(from, to time.Time) error {
	if !from.Before(to) {
		return fmt.Errorf("pm window: from must be before to: %w", ErrValidation)
	}
	return nil
}

// localEpoch serialises t as epoch seconds, matching the source
// implementation's PM scheduling behavior.
func localEpoch(t time.Time) int64 {
	return t.Unix()
}

// parsePMAddReply extracts the scheduled id, the third whitespace-split
// token of a 200 reply's text.
func parsePMAddReply(resp *wire.Response) (int, error) {
	if resp.Code != wire.CodeOK {
		return 0, fmt.Errorf("pm add: %d %s: %w", resp.Code, resp.Text, ErrProtocol)
	}
	fields := strings.Fields(resp.Text)
	if len(fields) < 3 {
		return 0, fmt.Errorf("pm add: reply %q missing id: %w", resp.Text, ErrProtocol)
	}
	id, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, fmt.Errorf("pm add: reply %q bad id: %w", resp.Text, ErrProtocol)
	}
	return id, nil
}
