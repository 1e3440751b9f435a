package zino

import (
	"net/netip"
	"strconv"
	"time"
)

// AdmState is the administrative lifecycle state an operator sets on a
// case. Unrecognised wire values map to AdmUnknown rather than failing, for
// forward compatibility.
type AdmState string

const (
	AdmOpen        AdmState = "open"
	AdmWorking     AdmState = "working"
	AdmWaiting     AdmState = "waiting"
	AdmConfirmWait AdmState = "confirm-wait"
	AdmIgnored     AdmState = "ignored"
	AdmClosed      AdmState = "closed"
	AdmUnknown     AdmState = "unknown"
)

// EventType tags which variant an Event is.
type EventType string

const (
	TypePortState    EventType = "portstate"
	TypeBGP          EventType = "bgp"
	TypeBFD          EventType = "bfd"
	TypeReachability EventType = "reachability"
	TypeAlarm        EventType = "alarm"
)

// PortState is the operational state of a PortStateEvent's interface.
type PortState string

const (
	PortUp             PortState = "up"
	PortDown           PortState = "down"
	PortLowerLayerDown PortState = "lowerLayerDown"
	PortAdminDown      PortState = "adminDown"
)

// FlapState describes whether a port's flap detector currently considers it
// flapping.
type FlapState string

const (
	FlapStateFlapping FlapState = "flapping"
	FlapStateStable   FlapState = "stable"
)

// BFDState is the operational state of a BFD session.
type BFDState string

const (
	BFDUp        BFDState = "up"
	BFDDown      BFDState = "down"
	BFDInit      BFDState = "init"
	BFDAdminDown BFDState = "adminDown"
)

// ReachabilityState is the reachability result for a ReachabilityEvent.
type ReachabilityState string

const (
	ReachabilityReachable  ReachabilityState = "reachable"
	ReachabilityNoResponse ReachabilityState = "no-response"
)

// HistoryEntry is one entry in a case's history log, either operator- or
// server-generated.
type HistoryEntry struct {
	// Date is the UTC instant the entry was recorded.
	Date time.Time

	// User is the entry's author, or "monitor" for server-generated
	// entries (e.g. state transitions).
	User string

	// Log is the entry body. May be multi-line, joined by the parser.
	Log string
}

// LogEntry is one entry in a case's plain event log.
type LogEntry struct {
	Date time.Time
	Log  string
}

// EventBase holds the fields shared by every event variant.
type EventBase struct {
	// ID is the server-assigned, stable, positive identifier.
	ID int

	// Type tags which variant this event is.
	Type EventType

	// AdmState is the administrative lifecycle state.
	AdmState AdmState

	// Router is the name of the router the event concerns.
	Router string

	// Opened is the UTC instant the case was opened.
	Opened time.Time

	// Updated is the UTC instant of the last update, if any.
	Updated *time.Time

	// LastTrans is the UTC instant of the last state transition, if any.
	LastTrans *time.Time

	// PollAddr is the address Zino polls for this case, if reported.
	PollAddr *netip.Addr

	// LastEvent is free-text describing the most recent underlying event.
	LastEvent string

	// Priority defaults to 100.
	Priority int

	// History is the ordered list of history entries, populated on
	// demand by GetUpdatedEventForID.
	History []HistoryEntry

	// Log is the ordered list of log entries, populated on demand by
	// GetUpdatedEventForID.
	Log []LogEntry

	// Extras holds attr:value pairs the parser recognised syntactically
	// but that do not correspond to a modelled field on this variant —
	// forward compatibility for attributes not yet given a typed home.
	Extras map[string]string
}

// Base returns the shared fields, satisfying the Event interface.
func (e *EventBase) Base() *EventBase { return e }

// Event is the tagged-variant interface implemented by every event kind.
// Computed fields (op state, port, description, is-down) are methods, not
// stored attributes, since they are pure functions of the other fields.
type Event interface {
	// Base returns the fields shared by every variant.
	Base() *EventBase

	// OpState is a short human string describing the operational
	// condition, e.g. "PORT  down " (the state padded to five characters).
	OpState() string

	// Port names the port/interface the event concerns, per variant.
	Port() string

	// Description is per-variant free text.
	Description() string

	// IsDown reports the variant-specific down predicate.
	IsDown() bool
}

// -------------------------------------------------------------------------
// PortStateEvent
// -------------------------------------------------------------------------

// PortStateEvent reports a router interface's operational state.
type PortStateEvent struct {
	EventBase

	IfIndex   int
	PortState PortState
	AcDown    *time.Duration
	Flaps     *int
	FlapState *FlapState
	Descr     string
	Reason    string
}

func (e *PortStateEvent) OpState() string { return "PORT  " + pad5(string(e.PortState)) }
func (e *PortStateEvent) Port() string    { return "" }
func (e *PortStateEvent) Description() string { return e.Descr }

func (e *PortStateEvent) IsDown() bool {
	return e.PortState == PortDown || e.PortState == PortLowerLayerDown
}

// GetDowntime returns accumulated downtime: if currently down, AcDown plus
// the time elapsed since LastTrans; otherwise just AcDown. LastTrans
// defaults to now and AcDown defaults to zero when absent.
func (e *PortStateEvent) GetDowntime(now time.Time) time.Duration {
	lastTrans := now
	if e.LastTrans != nil {
		lastTrans = *e.LastTrans
	}
	var accumulated time.Duration
	if e.AcDown != nil {
		accumulated = *e.AcDown
	}

	if e.IsDown() {
		return accumulated + now.Sub(lastTrans)
	}
	return accumulated
}

// -------------------------------------------------------------------------
// BFDEvent
// -------------------------------------------------------------------------

// BFDEvent reports a BFD session's operational state.
type BFDEvent struct {
	EventBase

	BFDState  BFDState
	BFDIx     int
	BFDAddr   *netip.Addr
	BFDDiscr  *int
	NeighRDNS string
}

func (e *BFDEvent) OpState() string { return "BFD  " + pad5(string(e.BFDState)) }

func (e *BFDEvent) Port() string {
	if e.BFDAddr != nil {
		return e.BFDAddr.String()
	}
	return "ix " + strconv.Itoa(e.BFDIx)
}

func (e *BFDEvent) Description() string {
	return e.NeighRDNS + ", " + e.LastEvent
}

func (e *BFDEvent) IsDown() bool { return e.BFDState == BFDDown }

// -------------------------------------------------------------------------
// BGPEvent
// -------------------------------------------------------------------------

// BGPEvent reports a BGP peering session's state.
type BGPEvent struct {
	EventBase

	BgpAS      string
	BgpOS      string
	RemoteAS   int
	RemoteAddr netip.Addr
	PeerUptime int
}

func (e *BGPEvent) OpState() string { return "BGP  " + pad5(e.BgpOS) }
func (e *BGPEvent) Port() string    { return "AS" + strconv.Itoa(e.RemoteAS) }

func (e *BGPEvent) Description() string {
	return e.RemoteAddr.String() + ", " + e.LastEvent
}

func (e *BGPEvent) IsDown() bool { return e.BgpOS == "down" }

// -------------------------------------------------------------------------
// ReachabilityEvent
// -------------------------------------------------------------------------

// ReachabilityEvent reports whether a device responds to polling.
type ReachabilityEvent struct {
	EventBase

	Reachability ReachabilityState
	AcDown       *time.Duration
}

func (e *ReachabilityEvent) OpState() string     { return string(e.Reachability) }
func (e *ReachabilityEvent) Port() string        { return "" }
func (e *ReachabilityEvent) Description() string { return "" }
func (e *ReachabilityEvent) IsDown() bool        { return e.Reachability == ReachabilityNoResponse }

// -------------------------------------------------------------------------
// AlarmEvent
// -------------------------------------------------------------------------

// AlarmEvent reports a chassis alarm count.
type AlarmEvent struct {
	EventBase

	AlarmCount int
	AlarmType  string
}

func (e *AlarmEvent) OpState() string     { return "ALRM  " + e.AlarmType }
func (e *AlarmEvent) Port() string        { return "" }
func (e *AlarmEvent) Description() string { return e.LastEvent }
func (e *AlarmEvent) IsDown() bool        { return e.AlarmCount > 0 }

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

// pad5 truncates or space-pads s to exactly 5 characters, matching the
// fixed-width op-state rendering the protocol's consumers expect.
func pad5(s string) string {
	const width = 5
	if len(s) >= width {
		return s[:width]
	}
	return s + "     "[:width-len(s)]
}
