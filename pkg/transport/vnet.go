package transport

import (
	"fmt"
	"sync"

	"github.com/pion/logging"
	pnet "github.com/pion/transport/v3"
	"github.com/pion/transport/v3/vnet"
)

// VirtualNetwork connects a host and a camera through an in-memory router.
// It wraps pion's vnet and is meant for deterministic tests without real
// network I/O: both sides get a pnet.Net that binds fixed ports just like
// the host stack would.
type VirtualNetwork struct {
	router *vnet.Router
	host   *vnet.Net
	camera *vnet.Net

	mu   sync.RWMutex
	drop func(payload []byte) bool
}

// VirtualNetworkConfig configures a VirtualNetwork.
type VirtualNetworkConfig struct {
	// CIDR of the virtual LAN. Default: "10.0.0.0/24".
	CIDR string

	// HostIP is the address of the client side. Default: "10.0.0.2".
	HostIP string

	// CameraIP is the address of the camera side. Default: "10.0.0.3".
	CameraIP string

	// LoggerFactory is passed to the vnet router.
	// If nil, the pion default factory is used.
	LoggerFactory logging.LoggerFactory
}

// NewVirtualNetwork creates and starts a virtual network.
func NewVirtualNetwork(config VirtualNetworkConfig) (*VirtualNetwork, error) {
	if config.CIDR == "" {
		config.CIDR = "10.0.0.0/24"
	}
	if config.HostIP == "" {
		config.HostIP = "10.0.0.2"
	}
	if config.CameraIP == "" {
		config.CameraIP = "10.0.0.3"
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	router, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          config.CIDR,
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	host, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{config.HostIP}})
	if err != nil {
		return nil, fmt.Errorf("creating host net: %w", err)
	}
	camera, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{config.CameraIP}})
	if err != nil {
		return nil, fmt.Errorf("creating camera net: %w", err)
	}

	if err := router.AddNet(host); err != nil {
		return nil, fmt.Errorf("adding host net: %w", err)
	}
	if err := router.AddNet(camera); err != nil {
		return nil, fmt.Errorf("adding camera net: %w", err)
	}

	v := &VirtualNetwork{
		router: router,
		host:   host,
		camera: camera,
	}
	router.AddChunkFilter(v.filter)

	if err := router.Start(); err != nil {
		return nil, fmt.Errorf("starting router: %w", err)
	}
	return v, nil
}

// Host returns the network of the client side.
func (v *VirtualNetwork) Host() pnet.Net {
	return v.host
}

// Camera returns the network of the camera side.
func (v *VirtualNetwork) Camera() pnet.Net {
	return v.camera
}

// SetDrop installs a predicate; datagrams for which it returns true are
// silently dropped. Pass nil to deliver everything again.
func (v *VirtualNetwork) SetDrop(drop func(payload []byte) bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.drop = drop
}

// filter is the router chunk filter. Returning false drops the chunk.
func (v *VirtualNetwork) filter(c vnet.Chunk) bool {
	v.mu.RLock()
	drop := v.drop
	v.mu.RUnlock()

	if drop == nil {
		return true
	}
	return !drop(c.UserData())
}

// Close stops the router.
func (v *VirtualNetwork) Close() error {
	return v.router.Stop()
}
