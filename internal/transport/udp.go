package transport

import (
	"context"
	"net"

	"golang.org/x/net/ipv4"

	"sockkit/internal/errors"
	"sockkit/internal/session"
	"sockkit/util"
)

// limitedBroadcast is 255.255.255.255.
var limitedBroadcast = net.IPv4bcast

// UnicastStrategy sends connectionless datagrams to a per-call destination.
// It is also the base of the multicast and broadcast strategies, which
// share its send and receive paths.
type UnicastStrategy struct {
	receiver
	cfg Config
}

// NewUnicast returns a unicast strategy.
func NewUnicast(cfg Config, logger *util.Logger) *UnicastStrategy {
	return &UnicastStrategy{
		receiver: receiver{logger: logger, readTimeout: cfg.ReadTimeout},
		cfg:      cfg,
	}
}

// Mode implements Strategy.
func (u *UnicastStrategy) Mode() Mode { return UDPUnicast }

// Bind creates a datagram descriptor on local.  An empty IP binds to
// any address; port 0 lets the OS choose.  Broadcast permission is
// cleared.
func (u *UnicastStrategy) Bind(ctx context.Context, local AddressInfo) (*Handle, error) {
	return u.bind(ctx, local, false)
}

func (u *UnicastStrategy) bind(ctx context.Context, local AddressInfo, broadcast bool) (*Handle, error) {
	laddr, err := local.udpAddr()
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{Control: udpControl(broadcast, u.cfg.ReuseAddr)}
	pc, err := lc.ListenPacket(ctx, "udp4", laddr.String())
	if err != nil {
		u.logger.Error("udp bind %s failed: %v", local, err)
		return nil, errors.Wrap("bind", local.String(), err)
	}

	conn := pc.(*net.UDPConn)
	u.logger.Verbose("udp socket bound to %s", conn.LocalAddr())
	return &Handle{Packet: conn}, nil
}

// Connect implements Strategy; datagram modes have no connection.
func (u *UnicastStrategy) Connect(context.Context, AddressInfo) (*Handle, error) {
	return nil, errors.ErrUnsupported
}

// Send writes one datagram to dest.  The limited broadcast address is
// refused outright; other broadcast destinations fail in the OS since
// SO_BROADCAST is off.
func (u *UnicastStrategy) Send(h *Handle, payload []byte, dest AddressInfo) (int, error) {
	if ip, err := dest.ip4(); err == nil && ip.Equal(limitedBroadcast) {
		return 0, errors.ErrBroadcastDenied
	}
	return u.write(h, payload, dest)
}

func (u *UnicastStrategy) write(h *Handle, payload []byte, dest AddressInfo) (int, error) {
	if !h.Valid() || h.Packet == nil {
		return 0, errors.ErrInvalidHandle
	}
	raddr, err := dest.udpAddr()
	if err != nil {
		return 0, err
	}
	n, err := h.Packet.WriteToUDP(payload, raddr)
	if err != nil {
		u.logger.Warn("udp send to %s failed: %v", dest, err)
		return n, errors.Wrap("send", dest.String(), err)
	}
	u.logger.Debug("udp sent %d bytes to %s", n, dest)
	return n, nil
}

// StartReceive spawns the datagram receive loop.  Each datagram is
// delivered with the sender decoded from its source address.
func (u *UnicastStrategy) StartReceive(h *Handle, cb ReceiveCallback, bufSize int) (*session.Session, error) {
	if !h.Valid() || h.Packet == nil {
		return nil, errors.ErrInvalidHandle
	}
	if cb == nil {
		return nil, errors.ErrNoCallback
	}
	conn := h.Packet
	// A previous Stop leaves the deadline in the past.
	if err := conn.SetReadDeadline(u.deadline()); err != nil {
		return nil, errors.Wrap("recv", conn.LocalAddr().String(), err)
	}

	return u.begin(func(ctx context.Context) {
		bp := util.GetBuf(bufSize)
		defer util.PutBuf(bp)
		buf := *bp

		for ctx.Err() == nil {
			if u.readTimeout > 0 {
				conn.SetReadDeadline(u.deadline()) //nolint:errcheck
			}
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				switch classifyRead(ctx, err) {
				case readRetry:
					continue
				case readStop:
					return
				default:
					u.logger.Error("udp receive on %s failed: %v", conn.LocalAddr(), err)
					return
				}
			}
			deliver(cb, buf, n, AddrFrom(from))
		}
	}, func() {
		conn.SetReadDeadline(aLongTimeAgo) //nolint:errcheck
	})
}

// Stop implements Strategy.  The datagram strategies own no descriptor.
func (u *UnicastStrategy) Stop() { u.halt() }

// MulticastStrategy adds group membership to the unicast strategy.
type MulticastStrategy struct {
	*UnicastStrategy
}

// NewMulticast returns a multicast strategy.
func NewMulticast(cfg Config, logger *util.Logger) *MulticastStrategy {
	return &MulticastStrategy{UnicastStrategy: NewUnicast(cfg, logger)}
}

// Mode implements Strategy.
func (m *MulticastStrategy) Mode() Mode { return UDPMulticast }

// Bind binds 0.0.0.0 on the given port and joins group.IP.  The TTL
// defaults to 1.  Any failure after the descriptor exists closes it.
func (m *MulticastStrategy) Bind(ctx context.Context, group AddressInfo) (*Handle, error) {
	gip, err := group.ip4()
	if err != nil {
		return nil, err
	}
	if gip == nil || !gip.IsMulticast() {
		return nil, errors.Invalid("ip", group.IP, "not an IPv4 multicast group")
	}

	h, err := m.bind(ctx, AddressInfo{Port: group.Port}, false)
	if err != nil {
		return nil, err
	}

	if err := m.join(h.Packet, gip); err != nil {
		h.Close() //nolint:errcheck
		m.logger.Error("multicast setup for %s failed: %v", group, err)
		return nil, err
	}
	m.logger.Verbose("joined multicast group %s (ttl %d)", gip, m.cfg.ttl())
	return h, nil
}

func (m *MulticastStrategy) join(conn *net.UDPConn, group net.IP) error {
	pc := ipv4.NewPacketConn(conn)
	addr := group.String()

	if err := pc.JoinGroup(m.cfg.Interface, &net.UDPAddr{IP: group}); err != nil {
		return errors.Wrap("join", addr, err)
	}
	if m.cfg.Interface != nil {
		if err := pc.SetMulticastInterface(m.cfg.Interface); err != nil {
			return errors.Wrap("join", addr, err)
		}
	}
	if err := pc.SetMulticastTTL(m.cfg.ttl()); err != nil {
		return errors.Wrap("ttl", addr, err)
	}
	if err := pc.SetMulticastLoopback(!m.cfg.DisableLoopback); err != nil {
		return errors.Wrap("loopback", addr, err)
	}
	return nil
}

// BroadcastStrategy adds broadcast-send permission to the unicast strategy.
type BroadcastStrategy struct {
	*UnicastStrategy
}

// NewBroadcast returns a broadcast strategy.
func NewBroadcast(cfg Config, logger *util.Logger) *BroadcastStrategy {
	return &BroadcastStrategy{UnicastStrategy: NewUnicast(cfg, logger)}
}

// Mode implements Strategy.
func (b *BroadcastStrategy) Mode() Mode { return UDPBroadcast }

// Bind creates a datagram descriptor with SO_BROADCAST enabled.
func (b *BroadcastStrategy) Bind(ctx context.Context, local AddressInfo) (*Handle, error) {
	return b.bind(ctx, local, true)
}

// Send writes one datagram to dest, broadcast addresses included.
func (b *BroadcastStrategy) Send(h *Handle, payload []byte, dest AddressInfo) (int, error) {
	return b.write(h, payload, dest)
}
