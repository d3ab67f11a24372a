package camera

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/backkem/p2pcam/pkg/handshake"
	"github.com/backkem/p2pcam/pkg/keepalive"
	"github.com/backkem/p2pcam/pkg/protocol"
	"github.com/backkem/p2pcam/pkg/transform"
	"github.com/backkem/p2pcam/pkg/transport"
)

const (
	testHost   = "10.0.0.2"
	testTarget = "10.0.0.3"
)

// fakeCamera answers the handshake on the camera side of a virtual network
// and streams the fragments returned by fragments after every completed
// handshake.
type fakeCamera struct {
	conn      net.PacketConn
	fragments func(handshake int) [][]byte

	mu         sync.Mutex
	received   [][]byte
	handshakes int
}

func newFakeCamera(t *testing.T, vn *transport.VirtualNetwork, fragments func(int) [][]byte) *fakeCamera {
	t.Helper()
	conn, err := vn.Camera().ListenPacket("udp", net.JoinHostPort(testTarget, "5000"))
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	c := &fakeCamera{conn: conn, fragments: fragments}
	t.Cleanup(func() { conn.Close() })
	go c.serve()
	return c
}

func (c *fakeCamera) serve() {
	buf := make([]byte, 2048)
	for {
		n, from, err := c.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		p := append([]byte(nil), buf[:n]...)
		for _, r := range c.handle(p) {
			c.conn.WriteTo(r, from)
		}
	}
}

func (c *fakeCamera) handle(p []byte) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, p)

	status1 := protocol.MessageStatusRequest1.Bytes()
	status3 := protocol.MessageStatusRequest3.Bytes()

	switch {
	case len(p) == 13 && p[4] == status1[4]:
		reply := make([]byte, 13)
		reply[4] = status1[4] | protocol.StatusAckBit
		return [][]byte{reply}
	case len(p) == 13 && p[4] == status3[4]:
		return [][]byte{make([]byte, 13)}
	case bytes.Equal(p, protocol.MessageStreamSetup1.Bytes()):
		return [][]byte{make([]byte, 155)}
	case bytes.Equal(p, protocol.MessageStreamSetup3.Bytes()):
		c.handshakes++
		out := [][]byte{make([]byte, 368)}
		if c.fragments != nil {
			out = append(out, c.fragments(c.handshakes)...)
		}
		return out
	}
	return nil
}

func isControl(p []byte) bool {
	for _, m := range []protocol.Message{
		protocol.MessageDiscover,
		protocol.MessageStreamSetup1,
		protocol.MessageStreamSetup2,
		protocol.MessageStreamSetup3,
	} {
		if bytes.Equal(p, m.Bytes()) {
			return true
		}
	}
	return len(p) == 13
}

func (c *fakeCamera) packets() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.received...)
}

func (c *fakeCamera) keepalives() [][]byte {
	var out [][]byte
	for _, p := range c.packets() {
		if !isControl(p) {
			out = append(out, p)
		}
	}
	return out
}

func (c *fakeCamera) handshakeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handshakes
}

// testJPEG is a minimal SOI..EOI byte sequence.
func testJPEG() []byte {
	jpeg := []byte{0xFF, 0xD8}
	for i := range 41 {
		jpeg = append(jpeg, byte(0x10+i))
	}
	return append(jpeg, 0xFF, 0xD9)
}

// split encodes jpeg into one start fragment and continuation fragments with
// consecutive sequence numbers starting at seq.
func split(jpeg []byte, seq byte, parts int) [][]byte {
	size := (len(jpeg) + parts - 1) / parts
	var out [][]byte
	for i := 0; i < parts; i++ {
		chunk := jpeg[i*size : min((i+1)*size, len(jpeg))]
		header := make([]byte, protocol.ContinuationHeaderLength)
		if i == 0 {
			header = make([]byte, protocol.StartHeaderLength)
		}
		header[0] = seq + byte(i)
		out = append(out, append(header, chunk...))
	}
	return out
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	onCall func(n int)
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	n := len(r.delays)
	r.mu.Unlock()
	if r.onCall != nil {
		r.onCall(n)
	}
	return ctx.Err()
}

func (r *recordingSleeper) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func newTestSession(t *testing.T, vn *transport.VirtualNetwork, mutate func(*Config)) *Session {
	t.Helper()
	config := Config{
		HostAddress:       testHost,
		TargetAddress:     testTarget,
		ReceiveTimeout:    200 * time.Millisecond,
		FragmentThreshold: 3,
		Net:               vn.Host(),
		Nonce:             func() byte { return 7 },
	}
	if mutate != nil {
		mutate(&config)
	}
	s, err := NewSession(config)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestNetwork(t *testing.T) *transport.VirtualNetwork {
	t.Helper()
	vn, err := transport.NewVirtualNetwork(transport.VirtualNetworkConfig{
		HostIP:   testHost,
		CameraIP: testTarget,
	})
	if err != nil {
		t.Fatalf("NewVirtualNetwork() error = %v", err)
	}
	t.Cleanup(func() { vn.Close() })
	return vn
}

func TestRetrieveImageEndToEnd(t *testing.T) {
	vn := newTestNetwork(t)
	jpeg := testJPEG()
	newFakeCamera(t, vn, func(int) [][]byte { return split(jpeg, 10, 3) })

	s := newTestSession(t, vn, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frame, err := s.RetrieveImage(ctx)
	if err != nil {
		t.Fatalf("RetrieveImage() error = %v", err)
	}
	if !bytes.Equal(frame, jpeg) {
		t.Errorf("RetrieveImage() = %x, want %x", frame, jpeg)
	}
	if s.State() != StateStreaming {
		t.Errorf("State() = %v, want %v", s.State(), StateStreaming)
	}

	st := s.Stats()
	if st.Frames != 1 || st.Fragments != 3 || st.HandshakeAttempts != 1 {
		t.Errorf("Stats() = %+v, want 1 frame, 3 fragments, 1 attempt", st)
	}
}

func TestRetrieveImageSendsKeepAlive(t *testing.T) {
	vn := newTestNetwork(t)
	jpeg := testJPEG()
	cam := newFakeCamera(t, vn, func(int) [][]byte {
		// Two frames back to back, sequence 10 through 15.
		return append(split(jpeg, 10, 3), split(jpeg, 13, 3)...)
	})

	s := newTestSession(t, vn, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := range 2 {
		frame, err := s.RetrieveImage(ctx)
		if err != nil {
			t.Fatalf("RetrieveImage() #%d error = %v", i, err)
		}
		if !bytes.Equal(frame, jpeg) {
			t.Errorf("RetrieveImage() #%d = %x, want %x", i, frame, jpeg)
		}
	}

	want, _ := keepalive.NewEncoder().Observe(5)

	deadline := time.Now().Add(time.Second)
	for len(cam.keepalives()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	got := cam.keepalives()
	if len(got) != 1 {
		t.Fatalf("camera received %d keepalives, want 1", len(got))
	}
	if !bytes.Equal(got[0], want) {
		t.Errorf("keepalive = %x, want %x", got[0], want)
	}
	if s.Stats().KeepAlives != 1 {
		t.Errorf("Stats().KeepAlives = %d, want 1", s.Stats().KeepAlives)
	}
}

func TestRetrieveImageCancelMidReceive(t *testing.T) {
	vn := newTestNetwork(t)
	jpeg := testJPEG()
	// Three fragments and a threshold of 80: no frame, and fragment index 5
	// is never reached.
	cam := newFakeCamera(t, vn, func(int) [][]byte { return split(jpeg, 10, 3) })

	s := newTestSession(t, vn, func(c *Config) {
		c.FragmentThreshold = 80
		c.ReceiveTimeout = 10 * time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)

	start := time.Now()
	_, err := s.RetrieveImage(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetrieveImage() error = %v, want %v", err, context.Canceled)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("RetrieveImage() took %v to unwind", elapsed)
	}

	before := len(cam.packets())
	time.Sleep(200 * time.Millisecond)
	if after := len(cam.packets()); after != before {
		t.Errorf("camera received %d packets after cancel", after-before)
	}
	if n := len(cam.keepalives()); n != 0 {
		t.Errorf("camera received %d keepalives, want 0", n)
	}
	if cam.handshakeCount() != 1 {
		t.Errorf("handshakes = %d, want 1", cam.handshakeCount())
	}
}

func TestRetrieveImageCancelDuringBackoff(t *testing.T) {
	vn := newTestNetwork(t)

	ctx, cancel := context.WithCancel(context.Background())
	sleeper := &recordingSleeper{onCall: func(int) { cancel() }}

	// No camera: the first status request times out.
	s := newTestSession(t, vn, func(c *Config) {
		c.ReceiveTimeout = 20 * time.Millisecond
		c.Sleep = sleeper.Sleep
	})

	_, err := s.RetrieveImage(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RetrieveImage() error = %v, want %v", err, context.Canceled)
	}
	if got := sleeper.Delays(); len(got) != 1 {
		t.Errorf("sleeps = %v, want exactly one", got)
	}
	if s.Stats().HandshakeAttempts != 1 {
		t.Errorf("HandshakeAttempts = %d, want 1", s.Stats().HandshakeAttempts)
	}
}

func TestRetrieveImageNotResponding(t *testing.T) {
	vn := newTestNetwork(t)
	sleeper := &recordingSleeper{}
	s := newTestSession(t, vn, func(c *Config) {
		c.ReceiveTimeout = 20 * time.Millisecond
		c.Sleep = sleeper.Sleep
	})

	_, err := s.RetrieveImage(context.Background())
	if !errors.Is(err, handshake.ErrNotResponding) {
		t.Fatalf("RetrieveImage() error = %v, want %v", err, handshake.ErrNotResponding)
	}

	var f *handshake.Fault
	if !errors.As(err, &f) || !f.Fatal() {
		t.Errorf("RetrieveImage() error = %v, want fatal *handshake.Fault", err)
	}

	want := []time.Duration{time.Second, time.Second, time.Second}
	got := sleeper.Delays()
	if len(got) != len(want) {
		t.Fatalf("sleeps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, got[i], want[i])
		}
	}
	if s.State() != StateFailed {
		t.Errorf("State() = %v, want %v", s.State(), StateFailed)
	}
}

func TestRetrieveImageBindFailure(t *testing.T) {
	vn := newTestNetwork(t)
	jpeg := testJPEG()
	newFakeCamera(t, vn, func(int) [][]byte { return split(jpeg, 10, 3) })

	blocker, err := vn.Host().ListenPacket("udp", net.JoinHostPort(testHost, "5123"))
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}

	sleeper := &recordingSleeper{onCall: func(int) { blocker.Close() }}
	s := newTestSession(t, vn, func(c *Config) { c.Sleep = sleeper.Sleep })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frame, err := s.RetrieveImage(ctx)
	if err != nil {
		t.Fatalf("RetrieveImage() error = %v", err)
	}
	if !bytes.Equal(frame, jpeg) {
		t.Errorf("RetrieveImage() = %x, want %x", frame, jpeg)
	}

	got := sleeper.Delays()
	if len(got) != 1 || got[0] != 15*time.Second {
		t.Errorf("sleeps = %v, want [15s]", got)
	}
	if st := s.Stats(); st.Faults != 1 {
		t.Errorf("Stats().Faults = %d, want 1", st.Faults)
	}
}

func TestRetrieveImageStreamFaultRestartsHandshake(t *testing.T) {
	vn := newTestNetwork(t)
	jpeg := testJPEG()
	cam := newFakeCamera(t, vn, func(n int) [][]byte {
		if n == 1 {
			return nil // silent after the first handshake
		}
		return split(jpeg, 200, 3)
	})

	sleeper := &recordingSleeper{}
	s := newTestSession(t, vn, func(c *Config) { c.Sleep = sleeper.Sleep })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frame, err := s.RetrieveImage(ctx)
	if err != nil {
		t.Fatalf("RetrieveImage() error = %v", err)
	}
	if !bytes.Equal(frame, jpeg) {
		t.Errorf("RetrieveImage() = %x, want %x", frame, jpeg)
	}
	if cam.handshakeCount() != 2 {
		t.Errorf("handshakes = %d, want 2", cam.handshakeCount())
	}
	if got := sleeper.Delays(); len(got) != 0 {
		t.Errorf("sleeps = %v, want none", got)
	}
	if st := s.Stats(); st.Faults != 1 || st.HandshakeAttempts != 2 {
		t.Errorf("Stats() = %+v, want 1 fault, 2 attempts", st)
	}
}

type stubTransformer struct {
	flip  []string
	stamp string
	err   error
}

func (s *stubTransformer) Transform(frame []byte, flip transform.FlipMode, stamp string) ([]byte, error) {
	s.flip = append(s.flip, flip.String())
	s.stamp = stamp
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte("T:"), frame...), nil
}

func TestRetrieveImageTransform(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantCalls int
		wantFlip  string
		wantStamp string
		wantErr   error
	}{
		{
			name:      "none",
			mutate:    func(*Config) {},
			wantCalls: 0,
		},
		{
			name:      "both flips",
			mutate:    func(c *Config) { c.HorizontalFlip, c.VerticalFlip = true, true },
			wantCalls: 1,
			wantFlip:  "Both",
		},
		{
			name:      "timestamp",
			mutate:    func(c *Config) { c.Timestamp = true },
			wantCalls: 1,
			wantFlip:  "None",
			wantStamp: "2024-03-09  07:05:01",
		},
		{
			name:      "failure returns raw frame",
			mutate:    func(c *Config) { c.VerticalFlip = true },
			wantCalls: 1,
			wantFlip:  "Vertical",
			wantErr:   errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vn := newTestNetwork(t)
			jpeg := testJPEG()
			newFakeCamera(t, vn, func(int) [][]byte { return split(jpeg, 10, 3) })

			stub := &stubTransformer{err: tt.wantErr}
			s := newTestSession(t, vn, func(c *Config) {
				c.Transformer = stub
				c.Now = func() time.Time { return fixed }
				tt.mutate(c)
			})

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			frame, err := s.RetrieveImage(ctx)
			if err != nil {
				t.Fatalf("RetrieveImage() error = %v", err)
			}
			if len(stub.flip) != tt.wantCalls {
				t.Fatalf("Transform() calls = %d, want %d", len(stub.flip), tt.wantCalls)
			}

			want := jpeg
			if tt.wantCalls > 0 {
				if stub.flip[0] != tt.wantFlip {
					t.Errorf("flip = %s, want %s", stub.flip[0], tt.wantFlip)
				}
				if stub.stamp != tt.wantStamp {
					t.Errorf("stamp = %q, want %q", stub.stamp, tt.wantStamp)
				}
				if tt.wantErr == nil {
					want = append([]byte("T:"), jpeg...)
				}
			}
			if !bytes.Equal(frame, want) {
				t.Errorf("RetrieveImage() = %x, want %x", frame, want)
			}
		})
	}
}

func TestStartSurvivesHandlerFailures(t *testing.T) {
	vn := newTestNetwork(t)
	jpeg := testJPEG()
	newFakeCamera(t, vn, func(int) [][]byte {
		var out [][]byte
		for i := range 4 {
			out = append(out, split(jpeg, byte(10+3*i), 3)...)
		}
		return out
	})

	s := newTestSession(t, vn, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var calls int
	s.OnFrame(func(_ context.Context, frame []byte) error {
		calls++
		switch calls {
		case 1:
			panic("handler exploded")
		case 2:
			return errors.New("handler failed")
		case 3:
			cancel()
		}
		return nil
	})

	err := s.Start(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want %v", err, context.Canceled)
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestStartTwice(t *testing.T) {
	vn := newTestNetwork(t)
	newFakeCamera(t, vn, nil)
	s := newTestSession(t, vn, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for s.State() == StateUninitialized && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := s.Start(ctx); err != ErrAlreadyStarted {
		t.Errorf("Start() second call error = %v, want %v", err, ErrAlreadyStarted)
	}
	cancel()
	<-done
}

func TestCloseSession(t *testing.T) {
	vn := newTestNetwork(t)
	s := newTestSession(t, vn, nil)

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Close(); err != ErrSessionClosed {
		t.Errorf("Close() second call error = %v, want %v", err, ErrSessionClosed)
	}
	if _, err := s.RetrieveImage(context.Background()); err != ErrSessionClosed {
		t.Errorf("RetrieveImage() after Close error = %v, want %v", err, ErrSessionClosed)
	}
}
