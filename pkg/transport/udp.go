package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/backkem/p2pcam/pkg/protocol"
	"github.com/pion/logging"
	pnet "github.com/pion/transport/v3"
	"github.com/pion/transport/v3/stdnet"
)

// UDP is the socket a camera session talks through. It is bound to a fixed
// local address and sends every datagram to a single camera address.
//
// Send and Receive may be called from different goroutines, but the session
// layer drives both from one loop so a keepalive never races a receive.
type UDP struct {
	conn    net.PacketConn
	remote  net.Addr
	timeout time.Duration
	log     logging.LeveledLogger

	mu     sync.Mutex
	closed bool
}

// UDPConfig configures the UDP transport.
type UDPConfig struct {
	// Net is the network used to bind and resolve addresses.
	// If nil, the host network stack is used. Tests inject a vnet.Net.
	Net pnet.Net

	// Conn is an optional pre-existing PacketConn to use.
	// If nil, a new connection is bound to LocalAddr.
	Conn net.PacketConn

	// LocalAddr is the host:port to bind to (e.g., "0.0.0.0:5123").
	// Ignored if Conn is provided.
	LocalAddr string

	// RemoteAddr is the camera host:port (e.g., "192.168.1.20:5000").
	// Required.
	RemoteAddr string

	// ReceiveTimeout bounds every Receive call.
	// Default: protocol.DefaultReceiveTimeout.
	ReceiveTimeout time.Duration

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewUDP binds a socket and resolves the camera address.
func NewUDP(config UDPConfig) (*UDP, error) {
	if config.RemoteAddr == "" {
		return nil, ErrInvalidAddress
	}

	nw := config.Net
	if nw == nil {
		std, err := stdnet.NewNet()
		if err != nil {
			return nil, err
		}
		nw = std
	}

	remote, err := nw.ResolveUDPAddr("udp", config.RemoteAddr)
	if err != nil {
		return nil, errors.Join(ErrInvalidAddress, err)
	}

	u := &UDP{
		conn:    config.Conn,
		remote:  remote,
		timeout: config.ReceiveTimeout,
	}
	if u.timeout <= 0 {
		u.timeout = protocol.DefaultReceiveTimeout
	}

	if config.LoggerFactory != nil {
		u.log = config.LoggerFactory.NewLogger("p2pcam-transport")
	}

	if u.conn == nil {
		addr := config.LocalAddr
		if addr == "" {
			addr = ":0" // ephemeral port
		}

		conn, err := nw.ListenPacket("udp", addr)
		if err != nil {
			return nil, errors.Join(ErrBind, err)
		}
		u.conn = conn
	}

	if u.log != nil {
		u.log.Debugf("bound %s, camera at %s", u.conn.LocalAddr(), u.remote)
	}

	return u, nil
}

// Send writes one datagram to the camera.
func (u *UDP) Send(data []byte) error {
	u.mu.Lock()
	closed := u.closed
	u.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if len(data) > protocol.MaxDatagramSize {
		return ErrMessageTooLarge
	}

	if _, err := u.conn.WriteTo(data, u.remote); err != nil {
		if u.log != nil {
			u.log.Warnf("send failed: %v", err)
		}
		return err
	}
	return nil
}

// Receive blocks for one datagram, at most for the configured timeout.
//
// It returns ErrTimeout when nothing arrives in time and ctx.Err() as soon as
// ctx is done; cancellation unblocks a pending read immediately.
func (u *UDP) Receive(ctx context.Context, buf []byte) (int, error) {
	u.mu.Lock()
	closed := u.closed
	u.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := u.conn.SetReadDeadline(time.Now().Add(u.timeout)); err != nil {
		return 0, err
	}

	// Pull the deadline in to unblock the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		u.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	n, addr, err := u.conn.ReadFrom(buf)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}
	if err != nil {
		if isTimeout(err) {
			return 0, ErrTimeout
		}
		return 0, err
	}

	if u.log != nil {
		u.log.Tracef("received %d bytes from %v", n, addr)
	}
	return n, nil
}

// ReceiveTimeout returns the per-receive timeout.
func (u *UDP) ReceiveTimeout() time.Duration {
	return u.timeout
}

// LocalAddr returns the bound local address.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// RemoteAddr returns the camera address.
func (u *UDP) RemoteAddr() net.Addr {
	return u.remote
}

// Close releases the socket.
func (u *UDP) Close() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	u.closed = true
	u.mu.Unlock()

	if u.log != nil {
		u.log.Debugf("closing %s", u.conn.LocalAddr())
	}
	return u.conn.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
