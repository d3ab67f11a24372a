package handshake

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/backkem/p2pcam/pkg/protocol"
	"github.com/backkem/p2pcam/pkg/transport"
	"github.com/pion/logging"
)

// Conn is the datagram socket a handshake runs over.
// *transport.UDP satisfies it.
type Conn interface {
	Send(data []byte) error
	Receive(ctx context.Context, buf []byte) (int, error)
}

// Config configures a Machine.
type Config struct {
	// Nonce returns the value embedded in the status requests of one attempt.
	// Default: uniform in [0, protocol.NonceMax].
	Nonce func() byte

	// MaxTimeouts is the number of consecutive status timeouts tolerated
	// before the camera is declared not responding. Default: 3.
	MaxTimeouts int

	// StatusReads is the number of replies read while looking for a valid
	// status reply. Default: 5.
	StatusReads int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

func (c *Config) applyDefaults() {
	if c.Nonce == nil {
		c.Nonce = randomNonce
	}
	if c.MaxTimeouts <= 0 {
		c.MaxTimeouts = 3
	}
	if c.StatusReads <= 0 {
		c.StatusReads = 5
	}
}

func randomNonce() byte {
	return byte(rand.IntN(protocol.NonceMax + 1))
}

// Machine drives the handshake. It is not safe for concurrent use.
//
// The consecutive timeout count at the status step survives across calls to
// Run, so repeated attempts against a silent camera eventually yield a fatal
// fault. A valid status reply clears it.
type Machine struct {
	config Config
	log    logging.LeveledLogger

	step     Step
	timeouts int
	attempts uint64
	buf      [protocol.MaxDatagramSize]byte
}

// NewMachine creates a handshake machine.
func NewMachine(config Config) *Machine {
	config.applyDefaults()

	m := &Machine{config: config}
	if config.LoggerFactory != nil {
		m.log = config.LoggerFactory.NewLogger("p2pcam-handshake")
	}
	return m
}

// Step returns the step the last attempt reached.
func (m *Machine) Step() Step {
	return m.step
}

// Attempts returns the number of attempts started.
func (m *Machine) Attempts() uint64 {
	return m.attempts
}

// ConsecutiveTimeouts returns the current status timeout streak.
func (m *Machine) ConsecutiveTimeouts() int {
	return m.timeouts
}

// Run performs one complete handshake attempt.
//
// It returns nil once the camera acknowledged the stream setup, ctx.Err() if
// ctx was cancelled, and a *Fault otherwise. Nothing is sent once ctx is done.
func (m *Machine) Run(ctx context.Context, conn Conn) error {
	m.attempts++
	m.step = StepIdle

	nonce := m.config.Nonce()
	status1 := protocol.MessageStatusRequest1.Build(nonce)
	if m.log != nil {
		m.log.Debugf("attempt %d, nonce %d", m.attempts, nonce)
	}

	if err := m.send(ctx, conn, protocol.MessageDiscover.Bytes(), status1); err != nil {
		return err
	}
	m.step = StepAwaitStatus
	if err := m.awaitStatus(ctx, conn, status1); err != nil {
		return err
	}

	if err := m.send(ctx, conn,
		protocol.MessageStatusRequest2.Build(nonce),
		protocol.MessageStatusRequest3.Build(nonce),
	); err != nil {
		return err
	}
	m.step = StepAwaitConfirm
	if err := m.awaitLength(ctx, conn, false, func(n int) bool {
		return n == protocol.StatusReplyLength
	}); err != nil {
		return err
	}

	if err := m.send(ctx, conn, protocol.MessageStreamSetup1.Bytes()); err != nil {
		return err
	}
	m.step = StepAwaitStreamAck1
	if err := m.awaitLength(ctx, conn, true, protocol.IsStreamAck1Length); err != nil {
		return err
	}

	if err := m.send(ctx, conn,
		protocol.MessageStreamSetup2.Bytes(),
		protocol.MessageStreamSetup3.Bytes(),
	); err != nil {
		return err
	}
	m.step = StepAwaitStreamAck2
	if err := m.awaitLength(ctx, conn, true, protocol.IsStreamAck2Length); err != nil {
		return err
	}

	m.step = StepReady
	if m.log != nil {
		m.log.Infof("handshake complete after %d attempts", m.attempts)
	}
	return nil
}

func (m *Machine) send(ctx context.Context, conn Conn, packets ...[]byte) error {
	for _, p := range packets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.log != nil {
			m.log.Debugf("sending %d bytes", len(p))
		}
		if err := conn.Send(p); err != nil {
			return newFault(m.step, FaultSocket, RestartDelay, err)
		}
	}
	return nil
}

func (m *Machine) receive(ctx context.Context, conn Conn) (int, error) {
	n, err := conn.Receive(ctx, m.buf[:])
	if err != nil {
		return 0, err
	}
	if m.log != nil {
		m.log.Debugf("received %d bytes", n)
	}
	return n, nil
}

func (m *Machine) awaitStatus(ctx context.Context, conn Conn, request []byte) error {
	for range m.config.StatusReads {
		n, err := m.receive(ctx, conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !isTimeout(err) {
				return newFault(m.step, FaultSocket, RestartDelay, err)
			}
			m.timeouts++
			if m.timeouts > m.config.MaxTimeouts {
				return newFault(m.step, FaultNotResponding, 0, ErrNotResponding)
			}
			return newFault(m.step, FaultTimeout, TimeoutDelay, ErrTimeout)
		}

		if StatusAccepted(request, m.buf[:n]) {
			m.timeouts = 0
			if m.log != nil {
				m.log.Debug("status ok")
			}
			return nil
		}
		if m.log != nil {
			m.log.Debug("status mismatch, repeating")
		}
	}
	return newFault(m.step, FaultProtocolMismatch, RestartDelay, ErrStatusMismatch)
}

// awaitLength reads one reply and checks its length. With skipSpurious set, a
// single 42 byte reply is dropped and the next one read instead.
func (m *Machine) awaitLength(ctx context.Context, conn Conn, skipSpurious bool, accept func(int) bool) error {
	n, err := m.receive(ctx, conn)
	if err == nil && skipSpurious && n == protocol.SpuriousReplyLength {
		if m.log != nil {
			m.log.Debugf("discarding %d byte reply at %s", n, m.step)
		}
		n, err = m.receive(ctx, conn)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isTimeout(err) {
			return newFault(m.step, FaultTimeout, RestartDelay, ErrTimeout)
		}
		return newFault(m.step, FaultSocket, RestartDelay, err)
	}

	if !accept(n) {
		return newFault(m.step, FaultProtocolMismatch, RestartDelay,
			fmt.Errorf("%w: %d bytes", ErrUnexpectedLength, n))
	}
	return nil
}

// StatusAccepted reports whether reply answers the status request: 13 bytes,
// byte 4 echoing the request with the ack bit set, and byte 6 not echoing the
// nonce with bit 6 set.
func StatusAccepted(request, reply []byte) bool {
	if len(reply) != protocol.StatusReplyLength || len(request) <= protocol.NonceOffset {
		return false
	}
	return reply[4] == request[4]|protocol.StatusAckBit &&
		reply[protocol.NonceOffset] != request[protocol.NonceOffset]|protocol.StatusNonceBit
}

func isTimeout(err error) bool {
	if errors.Is(err, transport.ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
