package zino

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// fieldMap renames wire attribute keys (after "-" -> "_" normalisation) to
// the names used on the base/variant structs below.
var fieldMap = map[string]string{
	"state":    "adm_state",
	"ifindex":  "if_index",
	"portstate": "port_state",
	"bfdAddr":  "bfd_addr",
	"bfdDiscr": "bfd_discr",
	"bfdState": "bfd_state",
	"bfdIx":    "bfd_ix",
	"bgpAS":    "bgp_AS",
	"bgpOS":    "bgp_OS",
}

// intFields are normalised keys converted to int.
var intFields = map[string]bool{
	"id": true, "if_index": true, "flaps": true, "remote_as": true,
	"peer_uptime": true, "alarm_count": true, "bfd_ix": true,
	"bfd_discr": true, "priority": true,
}

// timestampFields are normalised keys converted from Unix seconds to UTC.
var timestampFields = map[string]bool{
	"opened": true, "updated": true, "lasttrans": true,
}

// ipFields are normalised keys converted to an IP address, with the
// literal "unknown" mapping to no value.
var ipFields = map[string]bool{
	"polladdr": true, "remote_addr": true, "bfd_addr": true,
}

// ParseAttrList converts a getattrs-style list of "attr: value" lines into
// a typed Event. Every line must contain ":"; a malformed line is a
// transient server condition observed in the wild and surfaces as
// ErrRetry rather than ErrValidation.
func ParseAttrList(lines []string) (Event, error) {
	raw := make(map[string]string, len(lines))
	for _, line := range lines {
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, fmt.Errorf("parse attribute line %q: %w", line, ErrRetry)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		key = normaliseKey(key)
		raw[key] = value
	}

	typ, ok := raw["type"]
	if !ok {
		return nil, fmt.Errorf("event has no type attribute: %w", ErrValidation)
	}

	consumed := map[string]bool{"type": true}
	base, err := parseBase(raw, consumed)
	if err != nil {
		return nil, err
	}

	var ev Event
	switch EventType(typ) {
	case TypePortState:
		base.Type = TypePortState
		ev, err = parsePortState(raw, consumed, base)
	case TypeBGP:
		base.Type = TypeBGP
		ev, err = parseBGP(raw, consumed, base)
	case TypeBFD:
		base.Type = TypeBFD
		ev, err = parseBFD(raw, consumed, base)
	case TypeReachability:
		base.Type = TypeReachability
		ev, err = parseReachability(raw, consumed, base)
	case TypeAlarm:
		base.Type = TypeAlarm
		ev, err = parseAlarm(raw, consumed, base)
	default:
		return nil, fmt.Errorf("type %q: %w", typ, ErrUnknownEventType)
	}
	if err != nil {
		return nil, err
	}

	extras := make(map[string]string)
	for k, v := range raw {
		if !consumed[k] {
			extras[k] = v
		}
	}
	if len(extras) > 0 {
		ev.Base().Extras = extras
	}

	return ev, nil
}

// normaliseKey applies the "-" -> "_" rule then the field-name remap table.
// The BFD neighbour rDNS field is matched case-insensitively per a known
// casing inconsistency across server revisions.
func normaliseKey(key string) string {
	key = strings.ReplaceAll(key, "-", "_")
	if strings.EqualFold(key, "Neigh_rDNS") {
		return "Neigh_rDNS"
	}
	if mapped, ok := fieldMap[key]; ok {
		return mapped
	}
	return key
}

func parseBase(raw map[string]string, consumed map[string]bool) (*EventBase, error) {
	base := &EventBase{Priority: 100}

	if v, ok := raw["id"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", v, ErrValidation)
		}
		base.ID = n
		consumed["id"] = true
	}

	if v, ok := raw["adm_state"]; ok {
		base.AdmState = parseAdmState(v)
		consumed["adm_state"] = true
	}

	if v, ok := raw["router"]; ok {
		base.Router = v
		consumed["router"] = true
	}

	if v, ok := raw["opened"]; ok {
		t, err := parseUnixUTC(v)
		if err != nil {
			return nil, fmt.Errorf("parse opened %q: %w", v, ErrValidation)
		}
		base.Opened = t
		consumed["opened"] = true
	}

	if v, ok := raw["updated"]; ok {
		t, err := parseUnixUTC(v)
		if err != nil {
			return nil, fmt.Errorf("parse updated %q: %w", v, ErrValidation)
		}
		base.Updated = &t
		consumed["updated"] = true
	}

	if v, ok := raw["lasttrans"]; ok {
		t, err := parseUnixUTC(v)
		if err != nil {
			return nil, fmt.Errorf("parse lasttrans %q: %w", v, ErrValidation)
		}
		base.LastTrans = &t
		consumed["lasttrans"] = true
	}

	if v, ok := raw["polladdr"]; ok {
		addr, err := parseOptionalIP(v)
		if err != nil {
			return nil, fmt.Errorf("parse polladdr %q: %w", v, ErrValidation)
		}
		base.PollAddr = addr
		consumed["polladdr"] = true
	}

	if v, ok := raw["lastevent"]; ok {
		base.LastEvent = v
		consumed["lastevent"] = true
	}

	if v, ok := raw["priority"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse priority %q: %w", v, ErrValidation)
		}
		base.Priority = n
		consumed["priority"] = true
	}

	return base, nil
}

func parseAdmState(v string) AdmState {
	switch AdmState(v) {
	case AdmOpen, AdmWorking, AdmWaiting, AdmConfirmWait, AdmIgnored, AdmClosed:
		return AdmState(v)
	default:
		return AdmUnknown
	}
}

func parseUnixUTC(v string) (time.Time, error) {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return unixUTC(secs), nil
}

// unixUTC converts Unix epoch seconds to a UTC time.Time.
func unixUTC(secs int64) time.Time {
	return time.Unix(secs, 0).UTC()
}

func parseDuration(v string) (*time.Duration, error) {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	d := time.Duration(secs) * time.Second
	return &d, nil
}

// parseOptionalIP parses an IP address field, with the literal "unknown"
// mapping to no value rather than failing.
func parseOptionalIP(v string) (*netip.Addr, error) {
	if v == "unknown" {
		return nil, nil
	}
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func intField(raw map[string]string, consumed map[string]bool, key string) (int, bool, error) {
	v, ok := raw[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s %q: %w", key, v, ErrValidation)
	}
	consumed[key] = true
	return n, true, nil
}

// -------------------------------------------------------------------------
// Variant parsers
// -------------------------------------------------------------------------

func parsePortState(raw map[string]string, consumed map[string]bool, base *EventBase) (Event, error) {
	e := &PortStateEvent{EventBase: *base}

	n, ok, err := intField(raw, consumed, "if_index")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("portstate event missing if_index: %w", ErrValidation)
	}
	e.IfIndex = n

	v, ok := raw["port_state"]
	if !ok {
		return nil, fmt.Errorf("portstate event missing port_state: %w", ErrValidation)
	}
	e.PortState = PortState(v)
	consumed["port_state"] = true

	if v, ok := raw["ac_down"]; ok {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse ac_down %q: %w", v, ErrValidation)
		}
		e.AcDown = d
		consumed["ac_down"] = true
	}

	if n, ok, err := intField(raw, consumed, "flaps"); err != nil {
		return nil, err
	} else if ok {
		e.Flaps = &n
	}

	if v, ok := raw["flapstate"]; ok {
		fs := FlapState(v)
		e.FlapState = &fs
		consumed["flapstate"] = true
	}

	if v, ok := raw["descr"]; ok {
		e.Descr = v
		consumed["descr"] = true
	}

	if v, ok := raw["reason"]; ok {
		e.Reason = v
		consumed["reason"] = true
	}

	return e, nil
}

func parseBFD(raw map[string]string, consumed map[string]bool, base *EventBase) (Event, error) {
	e := &BFDEvent{EventBase: *base}

	v, ok := raw["bfd_state"]
	if !ok {
		return nil, fmt.Errorf("bfd event missing bfd_state: %w", ErrValidation)
	}
	e.BFDState = BFDState(v)
	consumed["bfd_state"] = true

	n, ok, err := intField(raw, consumed, "bfd_ix")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("bfd event missing bfd_ix: %w", ErrValidation)
	}
	e.BFDIx = n

	if v, ok := raw["bfd_addr"]; ok {
		addr, err := parseOptionalIP(v)
		if err != nil {
			return nil, fmt.Errorf("parse bfd_addr %q: %w", v, ErrValidation)
		}
		e.BFDAddr = addr
		consumed["bfd_addr"] = true
	}

	if n, ok, err := intField(raw, consumed, "bfd_discr"); err != nil {
		return nil, err
	} else if ok {
		e.BFDDiscr = &n
	}

	if v, ok := raw["Neigh_rDNS"]; ok {
		e.NeighRDNS = v
		consumed["Neigh_rDNS"] = true
	}

	return e, nil
}

func parseBGP(raw map[string]string, consumed map[string]bool, base *EventBase) (Event, error) {
	e := &BGPEvent{EventBase: *base}

	v, ok := raw["bgp_AS"]
	if !ok {
		return nil, fmt.Errorf("bgp event missing bgp_AS: %w", ErrValidation)
	}
	e.BgpAS = v
	consumed["bgp_AS"] = true

	v, ok = raw["bgp_OS"]
	if !ok {
		return nil, fmt.Errorf("bgp event missing bgp_OS: %w", ErrValidation)
	}
	e.BgpOS = v
	consumed["bgp_OS"] = true

	n, ok, err := intField(raw, consumed, "remote_as")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("bgp event missing remote_as: %w", ErrValidation)
	}
	e.RemoteAS = n

	v, ok = raw["remote_addr"]
	if !ok {
		return nil, fmt.Errorf("bgp event missing remote_addr: %w", ErrValidation)
	}
	addr, err := parseOptionalIP(v)
	if err != nil {
		return nil, fmt.Errorf("parse remote_addr %q: %w", v, ErrValidation)
	}
	if addr != nil {
		e.RemoteAddr = *addr
	}
	consumed["remote_addr"] = true

	n, ok, err = intField(raw, consumed, "peer_uptime")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("bgp event missing peer_uptime: %w", ErrValidation)
	}
	e.PeerUptime = n

	if e.LastEvent == "" {
		return nil, fmt.Errorf("bgp event missing lastevent: %w", ErrValidation)
	}

	return e, nil
}

func parseReachability(raw map[string]string, consumed map[string]bool, base *EventBase) (Event, error) {
	e := &ReachabilityEvent{EventBase: *base}

	v, ok := raw["reachability"]
	if !ok {
		return nil, fmt.Errorf("reachability event missing reachability: %w", ErrValidation)
	}
	e.Reachability = ReachabilityState(v)
	consumed["reachability"] = true

	if v, ok := raw["ac_down"]; ok {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse ac_down %q: %w", v, ErrValidation)
		}
		e.AcDown = d
		consumed["ac_down"] = true
	}

	return e, nil
}

func parseAlarm(raw map[string]string, consumed map[string]bool, base *EventBase) (Event, error) {
	e := &AlarmEvent{EventBase: *base}

	n, ok, err := intField(raw, consumed, "alarm_count")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("alarm event missing alarm_count: %w", ErrValidation)
	}
	e.AlarmCount = n

	v, ok := raw["alarm_type"]
	if !ok {
		return nil, fmt.Errorf("alarm event missing alarm_type: %w", ErrValidation)
	}
	e.AlarmType = v
	consumed["alarm_type"] = true

	return e, nil
}
