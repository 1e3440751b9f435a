package zino_test

import (
	"bufio"
	"net"
	"strings"
	"testing"
)

// fakeServer is a minimal in-process stand-in for a Zino TCP endpoint
// (request or notification channel), used to exercise Manager/UpdateHandler
// against a real socket rather than a mock transport.
type fakeServer struct {
	ln net.Listener
}

// newFakeServer starts a listener on 127.0.0.1:0. On each accepted
// connection it writes greeting, then for every CRLF-terminated line read
// calls handle(line, w), flushing w after each call. handle is responsible
// for writing a complete response (including its own CRLF framing).
func newFakeServer(t *testing.T, greeting string, handle func(line string, w *bufio.Writer)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveFakeConn(conn, greeting, handle)
		}
	}()

	t.Cleanup(func() { _ = ln.Close() })
	return &fakeServer{ln: ln}
}

func serveFakeConn(conn net.Conn, greeting string, handle func(line string, w *bufio.Writer)) {
	defer conn.Close()
	w := bufio.NewWriter(conn)
	if greeting != "" {
		w.WriteString(greeting)
		w.Flush()
	}
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		handle(line, w)
		w.Flush()
	}
}

func (f *fakeServer) host() string {
	return f.ln.Addr().(*net.TCPAddr).IP.String()
}

func (f *fakeServer) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

// writeBlock writes a multi-line response (300/301/303/304): header line,
// each of lines, then the "." sentinel.
func writeBlock(w *bufio.Writer, header string, lines []string) {
	w.WriteString(header + "\r\n")
	for _, l := range lines {
		w.WriteString(l + "\r\n")
	}
	w.WriteString(".\r\n")
}
