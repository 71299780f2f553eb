// Package transport provides the strategy layer behind the socket
// facades.  A Strategy handles the "how" of one transport mode (UDP
// unicast, multicast, broadcast, TCP server, TCP client): descriptor
// setup, sending, and the background receive session.  Strategies
// never own the facade's primary descriptor; they borrow it per call
// through a Handle.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"sockkit/internal/errors"
	"sockkit/internal/session"
	"sockkit/util"
)

// Mode is the transport mode of a socket.  It is fixed when the facade
// is constructed.
type Mode int

const (
	UDPUnicast Mode = iota
	UDPMulticast
	UDPBroadcast
	TCPServer
	TCPClient
)

var modeNames = [...]string{"unicast", "multicast", "broadcast", "server", "client"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
	return modeNames[m]
}

// IsUDP reports whether m is one of the datagram modes.
func (m Mode) IsUDP() bool { return m >= UDPUnicast && m <= UDPBroadcast }

// IsTCP reports whether m is one of the stream modes.
func (m Mode) IsTCP() bool { return m == TCPServer || m == TCPClient }

// ParseMode accepts the lower-case mode names used in configuration.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, errors.Invalid("mode", s, "expected one of "+strings.Join(modeNames[:], ", "))
}

// AddressInfo is an IPv4 endpoint: the bind target of a socket and the
// sender identity attached to every received unit.
type AddressInfo struct {
	IP   string
	Port uint16
}

func (a AddressInfo) String() string {
	return util.FormatAddr(a.IP, int(a.Port))
}

// AddrFrom converts a net.Addr produced by the OS into an AddressInfo.
func AddrFrom(addr net.Addr) AddressInfo {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return AddressInfo{IP: ipString(a.IP), Port: uint16(a.Port)}
	case *net.TCPAddr:
		return AddressInfo{IP: ipString(a.IP), Port: uint16(a.Port)}
	}
	return AddressInfo{}
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}
	return ip.String()
}

// ip4 parses a.IP as IPv4.  An empty IP means "any" and yields nil.
func (a AddressInfo) ip4() (net.IP, error) {
	if a.IP == "" {
		return nil, nil
	}
	ip := net.ParseIP(a.IP)
	if ip == nil || ip.To4() == nil {
		return nil, errors.Invalid("ip", a.IP, "not an IPv4 address")
	}
	return ip.To4(), nil
}

func (a AddressInfo) udpAddr() (*net.UDPAddr, error) {
	ip, err := a.ip4()
	if err != nil {
		return nil, err
	}
	return &net.UDPAddr{IP: ip, Port: int(a.Port)}, nil
}

func (a AddressInfo) tcpAddr() (*net.TCPAddr, error) {
	ip, err := a.ip4()
	if err != nil {
		return nil, err
	}
	return &net.TCPAddr{IP: ip, Port: int(a.Port)}, nil
}

// ReceiveCallback is invoked once per received datagram or stream chunk,
// on the session's worker goroutine.  buf is owned by the callee: it is
// a fresh slice of exactly length bytes and is never reused.
type ReceiveCallback func(buf []byte, length int, sender AddressInfo)

// Handle is the OS-level socket a facade owns.  Exactly one field is
// set, depending on the mode.
type Handle struct {
	Packet   *net.UDPConn     // UDP modes
	Listener *net.TCPListener // TCP server
	Stream   *net.TCPConn     // TCP client
}

// Valid reports whether h wraps an open descriptor.
func (h *Handle) Valid() bool {
	return h != nil && (h.Packet != nil || h.Listener != nil || h.Stream != nil)
}

// LocalAddr returns the bound local address, or nil.
func (h *Handle) LocalAddr() net.Addr {
	switch {
	case h == nil:
		return nil
	case h.Packet != nil:
		return h.Packet.LocalAddr()
	case h.Listener != nil:
		return h.Listener.Addr()
	case h.Stream != nil:
		return h.Stream.LocalAddr()
	}
	return nil
}

// Close releases the descriptor.
func (h *Handle) Close() error {
	switch {
	case h == nil:
		return errors.ErrInvalidHandle
	case h.Packet != nil:
		return h.Packet.Close()
	case h.Listener != nil:
		return h.Listener.Close()
	case h.Stream != nil:
		return h.Stream.Close()
	}
	return errors.ErrInvalidHandle
}

// Strategy encapsulates the send/receive mechanics for one transport
// mode.  It is stateful only with respect to its own receive session:
// at most one session runs per strategy at any time.
type Strategy interface {
	// Mode returns the transport mode this strategy implements.
	Mode() Mode

	// Bind creates a descriptor bound to local.  UDP modes and the TCP
	// server support it; the TCP client returns ErrUnsupported.
	Bind(ctx context.Context, local AddressInfo) (*Handle, error)

	// Connect creates a descriptor connected to remote.  Only the TCP
	// client supports it.
	Connect(ctx context.Context, remote AddressInfo) (*Handle, error)

	// Send writes payload.  dest is used by UDP modes and ignored by TCP.
	Send(h *Handle, payload []byte, dest AddressInfo) (int, error)

	// StartReceive spawns the receive worker and returns immediately.
	StartReceive(h *Handle, cb ReceiveCallback, bufSize int) (*session.Session, error)

	// SetReceiving(false) stops and joins the active session and always
	// acknowledges with true.  SetReceiving(true) cannot start a session
	// on its own (it has no handle); it reports whether one is running.
	SetReceiving(on bool) bool

	// Stop tears the strategy down: the session is stopped and joined
	// and any descriptor the strategy owns is released.
	Stop()
}

// Config holds the tuneables shared by all strategies.  Zero values
// select the defaults.
type Config struct {
	ConnectTimeout  time.Duration  // TCP connect; 0 = indefinite
	ReadTimeout     time.Duration  // per receive call; 0 = indefinite
	MulticastTTL    int            // default 1
	DisableLoopback bool           // multicast loopback is on by default
	Interface       *net.Interface // multicast interface; nil = system default
	ReuseAddr       bool           // SO_REUSEADDR before bind
	LocalPort       int            // TCP client source port; 0 = ephemeral
	Backlog         int            // TCP server listen backlog; default 20
}

// Defaults for Config fields left at zero.
const (
	DefaultMulticastTTL = 1
	DefaultBacklog      = 20
)

func (c Config) ttl() int {
	if c.MulticastTTL <= 0 {
		return DefaultMulticastTTL
	}
	return c.MulticastTTL
}

func (c Config) backlog() int {
	if c.Backlog <= 0 {
		return DefaultBacklog
	}
	return c.Backlog
}

// New returns the strategy implementing mode.
func New(mode Mode, cfg Config, logger *util.Logger) (Strategy, error) {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	switch mode {
	case UDPUnicast:
		return NewUnicast(cfg, logger), nil
	case UDPMulticast:
		return NewMulticast(cfg, logger), nil
	case UDPBroadcast:
		return NewBroadcast(cfg, logger), nil
	case TCPServer:
		return NewServer(cfg, logger), nil
	case TCPClient:
		return NewClient(cfg, logger), nil
	}
	return nil, errors.Invalid("mode", fmt.Sprint(int(mode)), "unknown transport mode")
}
