package transport

// MaxDatagramSize bounds a single outer-message datagram. Large enough
// for any realistic constrained-network packet plus the object
// security envelope overhead.
const MaxDatagramSize = 1280

// DefaultListenPort is the default CoAP port used for PipeAddr display
// values when no real socket is involved.
const DefaultListenPort = 5683

// ReceivedMessage is a raw outer-message datagram along with the peer
// it arrived from. Transports hand these to a MessageHandler; it is
// the caller's job to decode the CoAP framing and run it through
// Unprotect.
type ReceivedMessage struct {
	Data     []byte
	PeerAddr PeerAddress
}

// MessageHandler processes a datagram received by a transport. It is
// invoked from the transport's read loop, so it must not block for
// long: no further datagrams are read until it returns.
type MessageHandler func(msg *ReceivedMessage)
