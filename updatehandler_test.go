package zino_test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/zinolib/gozino"
)

// notifyPush is a tiny one-shot notification server: after the handshake
// greeting it sends exactly the lines given, then blocks.
type notifyPush struct {
	ln net.Listener
}

func newNotifyPush(t *testing.T, lines ...string) *notifyPush {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		w := bufio.NewWriter(conn)
		w.WriteString(strings.Repeat("b", 40) + "\r\n")
		for _, l := range lines {
			w.WriteString(l + "\r\n")
		}
		w.Flush()
		// keep the connection open for any further polls (which will just
		// time out, as there is nothing more to send).
		buf := make([]byte, 1)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return &notifyPush{ln: ln}
}

func (n *notifyPush) port() int { return n.ln.Addr().(*net.TCPAddr).Port }

func newConnectedManagerWithNotify(t *testing.T, reqHandle func(line string, w *bufio.Writer), notify *notifyPush) *zino.Manager {
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
			reqHandle(line, w)
		})

	mgr := zino.NewManager(zino.Config{
		Server:           reqSrv.host(),
		Port:             reqSrv.port(),
		NotificationPort: notify.port(),
		Username:         "alice",
		Password:         "secret",
		Timeout:          2 * time.Second,
		Autoremove:       true,
	})

	if err := mgr.Connect(t.Context()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Disconnect(t.Context()) })
	return mgr
}

func TestUpdateHandlerAutoremoveOnClose(t *testing.T) {
	push := newNotifyPush(t, "40961 state open closed")

	mgr := newConnectedManagerWithNotify(t, func(line string, w *bufio.Writer) {
		w.WriteString("500 unexpected command\r\n")
	}, push)

	handler, err := zino.NewUpdateHandler(t.Context(), mgr)
	if err != nil {
		t.Fatalf("NewUpdateHandler: %v", err)
	}

	// The manager does not yet know id 40961; a "state" update for an
	// unknown id is still applied (new events begin life via a state
	// transition), so GetEventUpdate must return non-zero and RemoveEvent
	// must have recorded the id in removedIDs.
	id, err := handler.GetEventUpdate(t.Context(), time.Second)
	if err != nil {
		t.Fatalf("GetEventUpdate: %v", err)
	}
	if id != 40961 {
		t.Fatalf("id = %d, want 40961", id)
	}

	removed := mgr.RemovedIDs()
	if _, ok := removed[40961]; !ok {
		t.Errorf("removedIDs = %v, want 40961 present", removed)
	}
	if _, ok := mgr.Events()[40961]; ok {
		t.Errorf("event 40961 still present after autoremove")
	}
}

func TestUpdateHandlerUnknownTypeIsNoop(t *testing.T) {
	push := newNotifyPush(t, "1 something-new info")

	mgr := newConnectedManagerWithNotify(t, func(line string, w *bufio.Writer) {
		w.WriteString("500 unexpected command\r\n")
	}, push)

	handler, err := zino.NewUpdateHandler(t.Context(), mgr)
	if err != nil {
		t.Fatalf("NewUpdateHandler: %v", err)
	}

	id, err := handler.GetEventUpdate(t.Context(), time.Second)
	if err != nil {
		t.Fatalf("GetEventUpdate: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0 for unrecognised update type", id)
	}
}

func TestUpdateHandlerNoDataReturnsZero(t *testing.T) {
	push := newNotifyPush(t)

	mgr := newConnectedManagerWithNotify(t, func(line string, w *bufio.Writer) {
		w.WriteString("500 unexpected command\r\n")
	}, push)

	handler, err := zino.NewUpdateHandler(t.Context(), mgr)
	if err != nil {
		t.Fatalf("NewUpdateHandler: %v", err)
	}

	id, err := handler.GetEventUpdate(t.Context(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("GetEventUpdate: %v", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0 when nothing arrives", id)
	}
}
