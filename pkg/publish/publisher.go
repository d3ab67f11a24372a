// Package publish pushes camera frames to an MQTT broker.
//
// A Publisher's HandleFrame method has the signature of camera.FrameHandler,
// so it can be registered directly with Session.OnFrame.
package publish

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

// Defaults.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultPublishTimeout = 2 * time.Second
	DefaultName           = "camera"
)

// Client is the subset of mqtt.Client used by the publisher.
type Client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Config configures a Publisher.
type Config struct {
	// Broker address, "host:port" or a URL such as "tcp://host:1883". Required.
	Broker string

	// Name of the camera, used in the default topic.
	Name string

	// Topic frames are published to. Default: "p2pcam/<Name>/image".
	Topic string

	// ClientID of the MQTT connection. Default: "p2pcam-<uuid>".
	ClientID string

	Username string
	Password string

	// QoS of frame messages (0-2).
	QoS byte

	// Retain marks frames as retained so new subscribers get the last image.
	Retain bool

	ConnectTimeout time.Duration // default: 5s
	PublishTimeout time.Duration // default: 2s

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// NewClient builds the MQTT client. Default: mqtt.NewClient.
	NewClient func(opts *mqtt.ClientOptions) Client
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return ErrBrokerRequired
	}
	if c.QoS > 2 {
		return ErrInvalidQoS
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Topic == "" {
		c.Topic = fmt.Sprintf("p2pcam/%s/image", c.Name)
	}
	if c.ClientID == "" {
		c.ClientID = "p2pcam-" + uuid.NewString()
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = DefaultPublishTimeout
	}
	if c.NewClient == nil {
		c.NewClient = func(opts *mqtt.ClientOptions) Client {
			return mqtt.NewClient(opts)
		}
	}
	if !strings.Contains(c.Broker, "://") {
		c.Broker = "tcp://" + c.Broker
	}
}

// Stats holds publisher counters.
type Stats struct {
	Connected bool
	Published uint64
	Bytes     uint64
	Errors    uint64
}

// Publisher publishes frames to one topic.
type Publisher struct {
	config Config
	client Client
	log    logging.LeveledLogger

	mu    sync.RWMutex
	stats Stats
}

// New creates a publisher. Call Connect before publishing.
func New(config Config) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	p := &Publisher{config: config}
	if config.LoggerFactory != nil {
		p.log = config.LoggerFactory.NewLogger("p2pcam-publish")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		p.setConnected(true)
		if p.log != nil {
			p.log.Infof("connected to %s", config.Broker)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		if p.log != nil {
			p.log.Warnf("connection to %s lost, reconnecting: %v", config.Broker, err)
		}
	})

	p.client = config.NewClient(opts)
	return p, nil
}

// Topic returns the topic frames are published to.
func (p *Publisher) Topic() string {
	return p.config.Topic
}

// Connect connects to the broker.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.log != nil {
		p.log.Debugf("connecting to %s as %s", p.config.Broker, p.config.ClientID)
	}
	token := p.client.Connect()
	if err := p.wait(ctx, token, p.config.ConnectTimeout); err != nil {
		return fmt.Errorf("publish: connect %s: %w", p.config.Broker, err)
	}
	p.setConnected(true)
	return nil
}

// Publish sends one frame.
func (p *Publisher) Publish(ctx context.Context, frame []byte) error {
	if !p.isConnected() {
		p.countError()
		return ErrNotConnected
	}

	token := p.client.Publish(p.config.Topic, p.config.QoS, p.config.Retain, frame)
	if err := p.wait(ctx, token, p.config.PublishTimeout); err != nil {
		p.countError()
		return err
	}

	p.mu.Lock()
	p.stats.Published++
	p.stats.Bytes += uint64(len(frame))
	p.mu.Unlock()

	if p.log != nil {
		p.log.Tracef("published %d bytes to %s", len(frame), p.config.Topic)
	}
	return nil
}

// HandleFrame publishes frame. It matches camera.FrameHandler.
func (p *Publisher) HandleFrame(ctx context.Context, frame []byte) error {
	return p.Publish(ctx, frame)
}

// Stats returns a snapshot of the publisher counters.
func (p *Publisher) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		if p.log != nil {
			p.log.Infof("disconnected from %s", p.config.Broker)
		}
	}
	p.setConnected(false)
	return nil
}

func (p *Publisher) wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) setConnected(connected bool) {
	p.mu.Lock()
	p.stats.Connected = connected
	p.mu.Unlock()
}

func (p *Publisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats.Connected
}

func (p *Publisher) countError() {
	p.mu.Lock()
	p.stats.Errors++
	p.mu.Unlock()
}
