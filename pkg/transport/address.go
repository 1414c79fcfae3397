package transport

import (
	"fmt"
	"net"
)

// TransportType identifies the network transport a PeerAddress was
// resolved over.
type TransportType int

const (
	// TransportUDP is a UDP peer address.
	TransportUDP TransportType = iota
	// TransportTCP is a TCP peer address.
	TransportTCP
)

func (t TransportType) String() string {
	switch t {
	case TransportUDP:
		return "udp"
	case TransportTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// PeerAddress identifies the remote endpoint of a received or sent
// message.
type PeerAddress struct {
	Addr          net.Addr
	TransportType TransportType
}

// NewUDPPeerAddress wraps a UDP net.Addr as a PeerAddress.
func NewUDPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{Addr: addr, TransportType: TransportUDP}
}

// NewTCPPeerAddress wraps a TCP net.Addr as a PeerAddress.
func NewTCPPeerAddress(addr net.Addr) PeerAddress {
	return PeerAddress{Addr: addr, TransportType: TransportTCP}
}

// UDPAddrFromString resolves s as a UDP PeerAddress.
func UDPAddrFromString(s string) (PeerAddress, error) {
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		return PeerAddress{}, fmt.Errorf("transport: %w", err)
	}
	return NewUDPPeerAddress(addr), nil
}

// TCPAddrFromString resolves s as a TCP PeerAddress.
func TCPAddrFromString(s string) (PeerAddress, error) {
	addr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		return PeerAddress{}, fmt.Errorf("transport: %w", err)
	}
	return NewTCPPeerAddress(addr), nil
}

// String returns the underlying address's string form, or "" if the
// PeerAddress has no address.
func (p PeerAddress) String() string {
	if p.Addr == nil {
		return ""
	}
	return p.Addr.String()
}

// IsValid reports whether p carries a usable address.
func (p PeerAddress) IsValid() bool {
	return p.Addr != nil && p.Addr.String() != ""
}
