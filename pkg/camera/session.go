package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/backkem/p2pcam/pkg/handshake"
	"github.com/backkem/p2pcam/pkg/keepalive"
	"github.com/backkem/p2pcam/pkg/protocol"
	"github.com/backkem/p2pcam/pkg/reassembly"
	"github.com/backkem/p2pcam/pkg/transform"
	"github.com/backkem/p2pcam/pkg/transport"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

// stillAliveInterval is the number of frames between two liveness log lines.
const stillAliveInterval = 900

// FrameHandler receives every frame delivered in push mode.
type FrameHandler func(ctx context.Context, frame []byte) error

// Stats is a snapshot of session counters.
type Stats struct {
	ID                string
	State             State
	Target            string
	Frames            uint64
	Fragments         uint64
	KeepAlives        uint64
	HandshakeAttempts uint64
	Faults            uint64
	Resets            uint64
	LastFrame         time.Time
	LastFault         string
}

// Session streams frames from one camera.
//
// RetrieveImage calls are serialized; the socket and all protocol state are
// only touched by the call currently holding the session.
type Session struct {
	id     uuid.UUID
	config Config
	log    logging.LeveledLogger

	mu          sync.Mutex // serializes RetrieveImage, guards everything below
	closed      bool
	conn        *transport.UDP
	machine     *handshake.Machine
	reassembler *reassembly.Reassembler
	encoder     *keepalive.Encoder
	buf         [protocol.MaxDatagramSize]byte

	statsMu sync.Mutex
	stats   Stats

	handlerMu sync.Mutex
	handler   FrameHandler
	running   bool
}

// NewSession creates a session. No socket is bound until the first
// RetrieveImage call.
func NewSession(config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	s := &Session{
		id:          uuid.New(),
		config:      config,
		log:         config.LoggerFactory.NewLogger("p2pcam-session"),
		reassembler: reassembly.New(config.FragmentThreshold),
		encoder:     keepalive.NewEncoder(),
	}
	s.machine = s.newMachine()
	s.stats.ID = s.id.String()
	s.stats.Target = config.remoteAddr()
	return s, nil
}

func (s *Session) newMachine() *handshake.Machine {
	return handshake.NewMachine(handshake.Config{
		Nonce:         s.config.Nonce,
		LoggerFactory: s.config.LoggerFactory,
	})
}

// ID returns the session identifier used in logs and status output.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats.State
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Session) setState(state State) {
	s.statsMu.Lock()
	prev := s.stats.State
	s.stats.State = state
	s.statsMu.Unlock()

	if prev != state {
		s.log.Debugf("%s: %s -> %s", s.id, prev, state)
	}
}

func (s *Session) updateStats(fn func(*Stats)) {
	s.statsMu.Lock()
	fn(&s.stats)
	s.statsMu.Unlock()
}

// RetrieveImage blocks until the next complete frame arrives.
//
// The handshake runs first if no stream is established. Recoverable faults
// are retried internally; the returned error is ctx.Err() on cancellation, a
// fatal *handshake.Fault wrapping handshake.ErrNotResponding, or
// ErrSessionClosed.
func (s *Session) RetrieveImage(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	for {
		if s.conn == nil {
			if err := s.establish(ctx); err != nil {
				return nil, err
			}
		}

		frame, err := s.stream(ctx)
		if err == nil {
			return s.deliver(frame), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.log.Warnf("%s: stream fault after %d fragments, restarting handshake: %v",
			s.id, s.reassembler.Received(), err)
		s.updateStats(func(st *Stats) {
			st.Faults++
			st.LastFault = err.Error()
		})
		s.teardown()
	}
}

// establish binds the socket and runs the handshake until it succeeds, fails
// fatally or ctx is done. Every attempt starts from a fresh socket and fresh
// stream state.
func (s *Session) establish(ctx context.Context) error {
	s.setState(StateHandshaking)

	for {
		if err := ctx.Err(); err != nil {
			s.setState(StateUninitialized)
			return err
		}
		s.resetStream()

		fault, err := s.attempt(ctx)
		if err != nil {
			s.setState(StateUninitialized)
			return err
		}
		if fault == nil {
			s.setState(StateStreaming)
			return nil
		}

		s.updateStats(func(st *Stats) {
			st.Faults++
			st.LastFault = fault.Error()
		})
		if fault.Fatal() {
			s.log.Errorf("%s: %v", s.id, fault)
			s.setState(StateFailed)
			s.machine = s.newMachine()
			return fault
		}

		s.log.Warnf("%s: %s at %s, restarting in %v: %v", s.id, fault.Kind, fault.Step, fault.Delay, fault.Err)
		if err := s.config.Sleep(ctx, fault.Delay); err != nil {
			s.setState(StateUninitialized)
			return err
		}
	}
}

// attempt runs one handshake attempt. A non-nil error means ctx is done.
func (s *Session) attempt(ctx context.Context) (*handshake.Fault, error) {
	conn, err := transport.NewUDP(transport.UDPConfig{
		Net:            s.config.Net,
		LocalAddr:      s.config.localAddr(),
		RemoteAddr:     s.config.remoteAddr(),
		ReceiveTimeout: s.config.ReceiveTimeout,
		LoggerFactory:  s.config.LoggerFactory,
	})
	if err != nil {
		return &handshake.Fault{
			Step:  handshake.StepIdle,
			Kind:  handshake.FaultBind,
			Delay: handshake.BindDelay,
			Err:   err,
		}, nil
	}

	s.updateStats(func(st *Stats) { st.HandshakeAttempts++ })

	err = s.machine.Run(ctx, conn)
	if err == nil {
		s.conn = conn
		s.log.Infof("%s: streaming from %s", s.id, conn.RemoteAddr())
		return nil, nil
	}
	conn.Close()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var fault *handshake.Fault
	if !errors.As(err, &fault) {
		fault = &handshake.Fault{
			Step:  s.machine.Step(),
			Kind:  handshake.FaultSocket,
			Delay: handshake.RestartDelay,
			Err:   err,
		}
	}
	return fault, nil
}

// stream reads fragments until a frame is ready. Any returned error ends the
// stream.
func (s *Session) stream(ctx context.Context) ([]byte, error) {
	for {
		n, err := s.conn.Receive(ctx, s.buf[:])
		if err != nil {
			return nil, err
		}

		res := s.reassembler.Feed(s.buf[:n])
		s.updateStats(func(st *Stats) { st.Fragments++ })

		if packet, due := s.encoder.Observe(s.reassembler.Received()); due {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := s.conn.Send(packet); err != nil {
				return nil, err
			}
			s.updateStats(func(st *Stats) { st.KeepAlives++ })
		}

		switch res.Outcome {
		case reassembly.FrameReady:
			return res.Frame, nil
		case reassembly.Reset:
			s.log.Tracef("%s: accumulator reset (%s)", s.id, res.Cause)
			s.updateStats(func(st *Stats) { st.Resets++ })
		}
	}
}

// deliver counts the frame and applies the configured post-processing. A
// frame that cannot be transformed is returned as extracted.
func (s *Session) deliver(frame []byte) []byte {
	now := s.config.Now()

	var index uint64
	s.updateStats(func(st *Stats) {
		index = st.Frames
		st.Frames++
		st.LastFrame = now
	})
	if index%stillAliveInterval == 0 {
		s.log.Infof("%s: still alive, frame index %d", s.id, index)
	}

	flip := s.config.FlipMode()
	if flip == transform.FlipNone && !s.config.Timestamp {
		return frame
	}

	var stamp string
	if s.config.Timestamp {
		stamp = now.Format(s.config.TimestampLayout)
	}
	out, err := s.config.Transformer.Transform(frame, flip, stamp)
	if err != nil {
		s.log.Warnf("%s: transform failed, returning raw frame: %v", s.id, err)
		return frame
	}
	return out
}

func (s *Session) resetStream() {
	s.reassembler.Clear()
	s.encoder.Reset()
}

func (s *Session) teardown() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.resetStream()
	s.setState(StateUninitialized)
}

// OnFrame registers the handler invoked by Start for every frame.
func (s *Session) OnFrame(handler FrameHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handler = handler
}

// Start runs RetrieveImage in a loop and passes every frame to the handler
// registered with OnFrame. A handler error or panic is logged and the loop
// continues. Start returns when ctx is done or the camera is declared not
// responding.
func (s *Session) Start(ctx context.Context) error {
	s.handlerMu.Lock()
	if s.running {
		s.handlerMu.Unlock()
		return ErrAlreadyStarted
	}
	s.running = true
	s.handlerMu.Unlock()

	defer func() {
		s.handlerMu.Lock()
		s.running = false
		s.handlerMu.Unlock()
	}()

	s.log.Infof("%s: push loop started", s.id)
	for {
		frame, err := s.RetrieveImage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Infof("%s: push loop stopped", s.id)
			}
			return err
		}

		s.handlerMu.Lock()
		handler := s.handler
		s.handlerMu.Unlock()

		if handler != nil {
			if err := s.invoke(ctx, handler, frame); err != nil {
				s.log.Errorf("%s: frame handler: %v", s.id, err)
			}
		}
	}
}

func (s *Session) invoke(ctx context.Context, handler FrameHandler, frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, frame)
}

// Close releases the socket. It waits for an in-flight RetrieveImage, so
// cancel its context first.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		s.setState(StateUninitialized)
		return err
	}
	return nil
}
