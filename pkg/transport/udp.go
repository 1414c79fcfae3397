package transport

import (
	"errors"
	"net"
	"sync"

	"github.com/pion/logging"
)

// UDPConfig configures a UDP transport.
type UDPConfig struct {
	// Conn is an already-bound packet connection to use. If nil, Start
	// dials ListenAddr.
	Conn net.PacketConn

	// ListenAddr is used to create a connection when Conn is nil, e.g.
	// ":5683".
	ListenAddr string

	// MessageHandler receives datagrams read off the connection.
	MessageHandler MessageHandler

	LoggerFactory logging.LoggerFactory
}

// UDP is a datagram transport for exchanging object-secured CoAP
// messages over a net.PacketConn.
type UDP struct {
	conn       net.PacketConn
	listenAddr string
	handler    MessageHandler
	log        logging.LeveledLogger

	closeCh chan struct{}
	wg      sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewUDP creates a UDP transport from config. The connection is not
// opened until Start is called.
func NewUDP(config UDPConfig) *UDP {
	u := &UDP{
		conn:    config.Conn,
		handler: config.MessageHandler,
		closeCh: make(chan struct{}),
	}
	if config.LoggerFactory != nil {
		u.log = config.LoggerFactory.NewLogger("transport")
	}
	if u.conn == nil && config.ListenAddr != "" {
		u.listenAddr = config.ListenAddr
	}
	return u
}

// Start opens the connection (if not already supplied) and begins the
// read loop.
func (u *UDP) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return ErrClosed
	}
	if u.started {
		return ErrAlreadyStarted
	}
	if u.handler == nil {
		return ErrNoHandler
	}

	if u.conn == nil {
		conn, err := net.ListenPacket("udp", u.listenAddr)
		if err != nil {
			return err
		}
		u.conn = conn
	}

	u.started = true
	u.wg.Add(1)
	go u.readLoop()
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (u *UDP) Stop() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	started := u.started
	conn := u.conn
	u.mu.Unlock()

	close(u.closeCh)
	if started && conn != nil {
		_ = conn.Close()
	}
	u.wg.Wait()
	return nil
}

// Send writes data to addr. addr must be a UDP PeerAddress.
func (u *UDP) Send(data []byte, addr PeerAddress) error {
	if len(data) > MaxDatagramSize {
		return ErrMessageTooLarge
	}
	if !addr.IsValid() || addr.TransportType != TransportUDP {
		return ErrInvalidAddress
	}

	u.mu.RLock()
	conn := u.conn
	closed := u.closed
	u.mu.RUnlock()

	if closed || conn == nil {
		return ErrClosed
	}

	_, err := conn.WriteTo(data, addr.Addr)
	return err
}

// LocalAddr returns the transport's bound local address, or nil if
// not started.
func (u *UDP) LocalAddr() net.Addr {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

func (u *UDP) readLoop() {
	defer u.wg.Done()

	buf := make([]byte, MaxDatagramSize)
	for {
		select {
		case <-u.closeCh:
			return
		default:
		}

		n, addr, err := u.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-u.closeCh:
				return
			default:
			}
			if u.log != nil {
				u.log.Warnf("read error: %v", err)
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		u.handler(&ReceivedMessage{
			Data:     data,
			PeerAddr: NewUDPPeerAddress(addr),
		})
	}
}
