package core

import (
	"context"
	"net"
	"testing"
	"time"

	"sockkit/socket"
	"sockkit/util"
)

func TestSendMode_UDPReply(t *testing.T) {
	peer, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()
	go func() {
		buf := make([]byte, 64)
		n, from, err := peer.ReadFromUDP(buf)
		if err != nil {
			return
		}
		peer.WriteToUDP(append([]byte("ack:"), buf[:n]...), from) //nolint:errcheck
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chunks, 4)
	m := &SendMode{
		Factory:    quietFactory(),
		Mode:       socket.UDPUnicast,
		LocalIP:    "127.0.0.1",
		RemoteIP:   "127.0.0.1",
		RemotePort: peer.LocalAddr().(*net.UDPAddr).Port,
		Message:    []byte("hello"),
		Wait:       time.Minute,
		Handler:    got.handler,
		Logger:     util.NewLogger(0),
	}
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	got.expect(t, "ack:hello")
	cancel()
	waitRun(t, done)
}

func TestSendMode_UDPNoWait(t *testing.T) {
	peer, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer peer.Close()

	m := &SendMode{
		Factory:    quietFactory(),
		Mode:       socket.UDPUnicast,
		RemoteIP:   "127.0.0.1",
		RemotePort: peer.LocalAddr().(*net.UDPAddr).Port,
		Message:    []byte("fire-and-forget"),
		Logger:     util.NewLogger(0),
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	peer.SetReadDeadline(time.Now().Add(3 * time.Second)) //nolint:errcheck
	buf := make([]byte, 64)
	n, err := peer.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "fire-and-forget" {
		t.Errorf("peer got %q", buf[:n])
	}
}

func TestSendMode_InvalidMessage(t *testing.T) {
	m := &SendMode{
		Factory:    quietFactory(),
		Mode:       socket.UDPUnicast,
		RemoteIP:   "127.0.0.1",
		RemotePort: 9,
		Logger:     util.NewLogger(0),
	}
	if err := m.Run(context.Background()); err == nil {
		t.Error("empty message should be rejected")
	}
}

// serveOnce accepts one connection, optionally reads a request, writes
// reply and closes.
func serveOnce(t *testing.T, read bool, reply string) (int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	requests := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if read {
			buf := make([]byte, 64)
			n, _ := conn.Read(buf)
			requests <- string(buf[:n])
		}
		conn.Write([]byte(reply)) //nolint:errcheck
	}()
	return ln.Addr().(*net.TCPAddr).Port, requests
}

// TestSendMode_ClientExchange verifies the client returns once the
// server hangs up, after delivering the reply.
func TestSendMode_ClientExchange(t *testing.T) {
	port, requests := serveOnce(t, true, "world")

	got := make(chunks, 4)
	m := &SendMode{
		Factory:    quietFactory(),
		Mode:       socket.TCPClient,
		RemoteIP:   "127.0.0.1",
		RemotePort: port,
		Message:    []byte("hello"),
		Wait:       time.Minute,
		Handler:    got.handler,
		Logger:     util.NewLogger(0),
	}
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case req := <-requests:
		if req != "hello" {
			t.Errorf("server got %q", req)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never got the request")
	}
	got.expect(t, "world")
	waitRun(t, done)
}

func TestSendMode_ClientListenOnly(t *testing.T) {
	port, _ := serveOnce(t, false, "banner")

	got := make(chunks, 4)
	m := &SendMode{
		Factory:    quietFactory(),
		Mode:       socket.TCPClient,
		RemoteIP:   "127.0.0.1",
		RemotePort: port,
		Handler:    got.handler,
		Logger:     util.NewLogger(0),
	}
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	got.expect(t, "banner")
	waitRun(t, done)
}

func TestSendMode_ConnectRefused(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	m := &SendMode{
		Factory:    socket.NewFactory(socket.WithLogger(util.NewLogger(0)), socket.WithTimeouts(time.Second, 0)),
		Mode:       socket.TCPClient,
		RemoteIP:   "127.0.0.1",
		RemotePort: port,
		Message:    []byte("x"),
		Logger:     util.NewLogger(0),
	}
	if err := m.Run(context.Background()); err == nil {
		t.Error("expected connection refused")
	}
}
