package camera

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/backkem/p2pcam/pkg/protocol"
	"github.com/backkem/p2pcam/pkg/transform"
	"github.com/pion/logging"
	pnet "github.com/pion/transport/v3"
)

// DefaultTimestampLayout formats the overlay text.
const DefaultTimestampLayout = "2006-01-02  15:04:05"

// DefaultHostAddress binds on every interface.
const DefaultHostAddress = "0.0.0.0"

// Config holds the configuration of a Session.
type Config struct {
	// Endpoint
	HostAddress    string        // Local bind IP (default: 0.0.0.0)
	TargetAddress  string        // Camera IP - Required
	LocalPort      int           // Local UDP port (default: 5123)
	RemotePort     int           // Camera UDP port (default: 5000)
	ReceiveTimeout time.Duration // Per-receive timeout (default: 2s)

	// FragmentThreshold is the number of accepted fragments accumulated
	// before scanning for a frame (default: 80).
	FragmentThreshold int

	// Post-processing
	HorizontalFlip  bool
	VerticalFlip    bool
	Timestamp       bool
	TimestampLayout string                // default: DefaultTimestampLayout
	Transformer     transform.Transformer // default: transform.JPEG{}

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging.NewDefaultLoggerFactory() is used.
	LoggerFactory logging.LoggerFactory

	// Advanced - Testing
	Net   pnet.Net                                         // Network stack (default: host stack)
	Sleep func(ctx context.Context, d time.Duration) error // Backoff wait (default: timer)
	Nonce func() byte                                      // Handshake nonce source
	Now   func() time.Time                                 // Timestamp clock (default: time.Now)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.TargetAddress == "" {
		return ErrTargetRequired
	}
	if net.ParseIP(c.TargetAddress) == nil {
		return ErrInvalidAddress
	}
	if c.HostAddress != "" && net.ParseIP(c.HostAddress) == nil {
		return ErrInvalidAddress
	}
	if c.LocalPort < 0 || c.LocalPort > 65535 || c.RemotePort < 0 || c.RemotePort > 65535 {
		return ErrInvalidPort
	}
	if c.FragmentThreshold < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.HostAddress == "" {
		c.HostAddress = DefaultHostAddress
	}
	if c.LocalPort == 0 {
		c.LocalPort = protocol.DefaultLocalPort
	}
	if c.RemotePort == 0 {
		c.RemotePort = protocol.DefaultRemotePort
	}
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = protocol.DefaultReceiveTimeout
	}
	if c.FragmentThreshold == 0 {
		c.FragmentThreshold = protocol.DefaultFragmentThreshold
	}
	if c.TimestampLayout == "" {
		c.TimestampLayout = DefaultTimestampLayout
	}
	if c.Transformer == nil {
		c.Transformer = transform.JPEG{}
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// FlipMode returns the mirroring selected by the two flip flags.
func (c *Config) FlipMode() transform.FlipMode {
	return transform.FlipModeFromFlags(c.HorizontalFlip, c.VerticalFlip)
}

func (c *Config) localAddr() string {
	return net.JoinHostPort(c.HostAddress, strconv.Itoa(c.LocalPort))
}

func (c *Config) remoteAddr() string {
	return net.JoinHostPort(c.TargetAddress, strconv.Itoa(c.RemotePort))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
