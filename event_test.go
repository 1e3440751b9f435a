package zino_test

import (
	"testing"
	"time"

	"github.com/zinolib/gozino"
)

func TestPortStateEventGetDowntimeWhenUpOrAdminDownEqualsAcDown(t *testing.T) {
	down := 90 * time.Second
	now := time.Unix(1700010000, 0)

	for _, state := range []zino.PortState{zino.PortUp, zino.PortAdminDown} {
		ev := &zino.PortStateEvent{
			PortState: state,
			AcDown:    &down,
		}
		if got := ev.GetDowntime(now); got != down {
			t.Errorf("state %q: GetDowntime() = %v, want %v", state, got, down)
		}
	}
}

func TestPortStateEventGetDowntimeAccumulatesWhileDown(t *testing.T) {
	down := 30 * time.Second
	lastTrans := time.Unix(1700000000, 0)
	now := lastTrans.Add(time.Minute)

	ev := &zino.PortStateEvent{
		PortState: zino.PortDown,
		AcDown:    &down,
		LastTrans: &lastTrans,
	}

	want := down + time.Minute
	if got := ev.GetDowntime(now); got != want {
		t.Errorf("GetDowntime() = %v, want %v", got, want)
	}
}

func TestParseAttrListRoundTripsPortStateFields(t *testing.T) {
	lines := []string{
		"id: 5001",
		"type: portstate",
		"state: open",
		"router: gw2.example.org",
		"opened: 1700000000",
		"if-index: 7",
		"portstate: up",
		"descr: GigabitEthernet0/2",
		"lastevent: linkUp",
		"priority: 100",
	}

	ev, err := zino.ParseAttrList(lines)
	if err != nil {
		t.Fatalf("ParseAttrList: %v", err)
	}

	ps, ok := ev.(*zino.PortStateEvent)
	if !ok {
		t.Fatalf("expected *PortStateEvent, got %T", ev)
	}
	if ps.GetDowntime(time.Now()) != 0 {
		t.Errorf("GetDowntime() = %v, want 0 for a port reported up with no ac_down", ps.GetDowntime(time.Now()))
	}
	if ps.IsDown() {
		t.Errorf("IsDown() = true, want false for port_state up")
	}
}
