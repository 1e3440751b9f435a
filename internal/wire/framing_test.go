package wire_test

import (
	"net"
	"testing"
	"time"

	"github.com/zinolib/gozino/internal/wire"
)

func TestReadResponseSingleLine(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write([]byte("200 ok\r\n"))
	}()

	c := wire.NewConn(client)
	resp, err := c.ReadResponse(time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.Code != wire.CodeOK || resp.Text != "ok" {
		t.Errorf("got Code=%d Text=%q, want 200/ok", resp.Code, resp.Text)
	}
	if resp.Lines != nil {
		t.Errorf("Lines = %v, want nil", resp.Lines)
	}
}

func TestReadResponseMultiLine(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write([]byte("304 case ids follow\r\n32802\r\n34978\r\n.\r\n"))
	}()

	c := wire.NewConn(client)
	resp, err := c.ReadResponse(time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.Code != wire.CodeIDList {
		t.Errorf("Code = %d, want 304", resp.Code)
	}
	want := []string{"32802", "34978"}
	if len(resp.Lines) != len(want) {
		t.Fatalf("Lines = %v, want %v", resp.Lines, want)
	}
	for i := range want {
		if resp.Lines[i] != want[i] {
			t.Errorf("Lines[%d] = %q, want %q", i, resp.Lines[i], want[i])
		}
	}
}

func TestReadResponseMalformedHeader(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write([]byte("not-a-code blah\r\n"))
	}()

	c := wire.NewConn(client)
	_, err := c.ReadResponse(time.Now().Add(time.Second))
	if err == nil {
		t.Fatal("ReadResponse: expected error, got nil")
	}
}

func TestReadResponseLostConnection(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()

	go func() {
		server.Write([]byte("300 log follows\r\nfirst line\r\n"))
		server.Close()
	}()

	c := wire.NewConn(client)
	_, err := c.ReadResponse(time.Now().Add(time.Second))
	if err == nil {
		t.Fatal("ReadResponse: expected error on peer close, got nil")
	}
}

func TestSendAppendsCRLF(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := server.Read(buf)
		done <- string(buf[:n])
	}()

	c := wire.NewConn(client)
	if err := c.Send("caseids", time.Now().Add(time.Second)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := <-done
	if got != "caseids\r\n" {
		t.Errorf("sent %q, want %q", got, "caseids\r\n")
	}
}
