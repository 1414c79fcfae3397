// Package discovery advertises and browses for object-secured CoAP
// endpoints via DNS-SD (_coap._udp), so peers can find each other on
// the local network before ever exchanging a protected message.
package discovery

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// ServiceName is the DNS-SD service type this package advertises and
// browses.
const ServiceName = "_coap._udp"

// DefaultPort is the default CoAP port.
const DefaultPort = 5683

// oscoreTXTKey flags, in a service's TXT record, that the endpoint
// speaks this object-security layer rather than plain CoAP.
const oscoreTXTKey = "oscore=1"

// MDNSServer is the interface for an active mDNS service registration.
// Allows dependency injection in tests.
type MDNSServer interface {
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Port is the CoAP port to advertise (default DefaultPort).
	Port int

	// ContextID is included as a cid=<hex> TXT entry, so browsers can
	// filter for a known peer without a separate handshake.
	ContextID []byte

	// Interfaces restricts advertisement to specific interfaces; nil
	// advertises on all of them.
	Interfaces []net.Interface

	// ServerFactory overrides the mDNS server implementation; nil uses
	// zeroconf.
	ServerFactory MDNSServerFactory

	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes this endpoint's object-secured CoAP service
// over DNS-SD.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu           sync.Mutex
	server       MDNSServer
	instanceName string
	closed       bool
}

// NewAdvertiser creates an Advertiser from config.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultPort
	}
	factory := config.ServerFactory
	if factory == nil {
		factory = zeroconfServerFactory{}
	}

	a := &Advertiser{config: config, factory: factory}
	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("discovery")
	}
	return a
}

// Start begins advertising ServiceName on the configured port.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		return ErrAlreadyStarted
	}

	instanceName, err := generateRandomInstanceName()
	if err != nil {
		return fmt.Errorf("discovery: failed to generate instance name: %w", err)
	}

	txt := []string{oscoreTXTKey}
	if len(a.config.ContextID) > 0 {
		txt = append(txt, fmt.Sprintf("cid=%x", a.config.ContextID))
	}

	server, err := a.factory.Register(instanceName, ServiceName, "local.", a.config.Port, txt, a.config.Interfaces)
	if err != nil {
		return fmt.Errorf("discovery: register failed: %w", err)
	}

	a.server = server
	a.instanceName = instanceName

	if a.log != nil {
		a.log.Infof("advertising %s as %s on port %d", ServiceName, instanceName, a.config.Port)
	}
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server == nil {
		return ErrNotStarted
	}

	a.server.Shutdown()
	a.server = nil
	a.instanceName = ""
	return nil
}

// Close stops advertising and marks the Advertiser unusable.
func (a *Advertiser) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.closed = true
	return nil
}

// InstanceName returns the currently advertised instance name, or the
// empty string if not advertising.
func (a *Advertiser) InstanceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.instanceName
}

// generateRandomInstanceName generates a random 64-bit instance name,
// formatted as 16 uppercase hex characters.
func generateRandomInstanceName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016X", binary.BigEndian.Uint64(buf[:])), nil
}
