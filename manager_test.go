package zino_test

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zinolib/gozino"
)

const testChallenge = "0123456789abcdef0123456789abcdef01234567"

// newConnectedManager starts a fake request server (driven by handle) and a
// fake notification server (which only ever emits its session key), then
// returns a connected and authenticated Manager.
func newConnectedManager(t *testing.T, handle func(line string, w *bufio.Writer)) *zino.Manager {
	t.Helper()

	reqSrv := newFakeServer(t, fmt.Sprintf("200 %s server ready\r\n", testChallenge),
		func(line string, w *bufio.Writer) {
			if strings.HasPrefix(line, "user ") {
				w.WriteString("200 welcome\r\n")
				return
			}
			if strings.HasPrefix(line, "ntie ") {
				w.WriteString("200 tied\r\n")
				return
			}
			handle(line, w)
		})

	notifySrv := newFakeServer(t, strings.Repeat("a", 40)+"\r\n", func(string, *bufio.Writer) {})

	mgr := zino.NewManager(zino.Config{
		Server:           reqSrv.host(),
		Port:             reqSrv.port(),
		NotificationPort: notifySrv.port(),
		Username:         "alice",
		Password:         "secret",
		Timeout:          2 * time.Second,
	})

	if err := mgr.Connect(t.Context()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Disconnect(t.Context()) })
	return mgr
}

func TestManagerConnectAndGetEventsBGP(t *testing.T) {
	mgr := newConnectedManager(t, func(line string, w *bufio.Writer) {
		switch {
		case line == "caseids":
			writeBlock(w, "304 ids follow", []string{"32802"})
		case line == "getattrs 32802":
			writeBlock(w, "303 attributes follow", []string{
				"id: 32802",
				"type: bgp",
				"state: working",
				"router: uninett-gsw2",
				"opened: 1700000000",
				"bgp_AS: up",
				"bgp_OS: down",
				"remote_as: 65001",
				"remote_addr: 10.0.0.1",
				"peer_uptime: 120",
				"lastevent: bgpBackwardTransition",
			})
		default:
			w.WriteString("500 unexpected command\r\n")
		}
	})

	if err := mgr.GetEvents(t.Context()); err != nil {
		t.Fatalf("GetEvents: %v", err)
	}

	events := mgr.Events()
	ev, ok := events[32802]
	if !ok {
		t.Fatalf("event 32802 not found in %v", events)
	}
	bgp, ok := ev.(*zino.BGPEvent)
	if !ok {
		t.Fatalf("expected *BGPEvent, got %T", ev)
	}
	if bgp.Router != "uninett-gsw2" {
		t.Errorf("Router = %q, want uninett-gsw2", bgp.Router)
	}
	if bgp.AdmState != zino.AdmWorking {
		t.Errorf("AdmState = %q, want working", bgp.AdmState)
	}
	if bgp.BgpOS != "down" {
		t.Errorf("BgpOS = %q, want down", bgp.BgpOS)
	}
}

func TestManagerAddHistoryEntry(t *testing.T) {
	var gotPayload string
	mgr := newConnectedManager(t, func(line string, w *bufio.Writer) {
		switch {
		case line == "addhist 40959  -":
			w.WriteString("302 send history entry, terminate with .\r\n")
		case line == "Testmelding ifra pyRitz":
			gotPayload = line
		case line == "":
			// blank line inside the dot-terminated payload; ignore
		case line == ".":
			w.WriteString("200 history added\r\n")
		case line == "getattrs 40959":
			writeBlock(w, "303 attributes follow", []string{
				"id: 40959",
				"type: alarm",
				"state: open",
				"router: r1",
				"opened: 1700000000",
				"alarm_count: 1",
				"alarm_type: red",
			})
		case line == "gethist 40959":
			writeBlock(w, "301 history follows", []string{})
		case line == "getlog 40959":
			writeBlock(w, "300 log follows", []string{})
		default:
			w.WriteString("500 unexpected command\r\n")
		}
	})

	ev, err := mgr.AddHistoryEntryForID(t.Context(), 40959, "Testmelding ifra pyRitz")
	if err != nil {
		t.Fatalf("AddHistoryEntryForID: %v", err)
	}
	if ev.Base().ID != 40959 {
		t.Errorf("ID = %d, want 40959", ev.Base().ID)
	}
	if gotPayload != "Testmelding ifra pyRitz" {
		t.Errorf("server saw payload %q", gotPayload)
	}
}

func TestManagerReopenClosedSurfacesEventClosed(t *testing.T) {
	mgr := newConnectedManager(t, func(line string, w *bufio.Writer) {
		if line == "setstate 40960 open" {
			w.WriteString("500 Cannot reopen closed event 40960\r\n")
			return
		}
		w.WriteString("500 unexpected command\r\n")
	})

	_, err := mgr.ChangeAdminStateForID(t.Context(), 40960, zino.AdmOpen)
	if !errors.Is(err, zino.ErrEventClosed) {
		t.Fatalf("err = %v, want ErrEventClosed", err)
	}
}

func TestManagerGarbageAdmStateTolerated(t *testing.T) {
	mgr := newConnectedManager(t, func(line string, w *bufio.Writer) {
		if line == "getattrs 1" {
			writeBlock(w, "303 attributes follow", []string{
				"id: 1",
				"type: alarm",
				"state: garbage admstate",
				"router: r1",
				"opened: 1700000000",
				"alarm_count: 1",
				"alarm_type: red",
			})
			return
		}
		w.WriteString("500 unexpected command\r\n")
	})

	ev, err := mgr.CreateEventFromID(t.Context(), 1)
	if err != nil {
		t.Fatalf("CreateEventFromID: %v", err)
	}
	if ev.Base().AdmState != zino.AdmUnknown {
		t.Errorf("AdmState = %q, want unknown", ev.Base().AdmState)
	}
	if ev.Base().Router != "r1" {
		t.Errorf("Router = %q, want r1", ev.Base().Router)
	}
}
