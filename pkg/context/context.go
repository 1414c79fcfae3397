// Package context implements the security-context store: per-peer
// key and sequence-number state, addressed by an opaque Handle instead
// of a pointer, so contexts can live in a fixed-capacity pool and be
// safely reused once freed.
package context

import (
	"math"
	"sync"

	"github.com/go-oscoap/oscoap/pkg/cose"
)

// sequenceRetirementMargin is how close sender_seq may get to
// math.MaxUint32 before NextSenderSeq starts refusing to hand out any
// more sequence numbers.
const sequenceRetirementMargin = 1 << 16

// SecurityContext holds the keying material and sequence-number state
// for one peer relationship: a context id (kid), the algorithm it
// uses, sender and receiver keys/IVs, and the independent sender and
// receiver sequence counters.
type SecurityContext struct {
	mu sync.Mutex

	contextID []byte
	alg       cose.AlgorithmID

	senderKey   []byte
	senderIV    []byte
	receiverKey []byte
	receiverIV  []byte

	senderSeq   uint32
	receiverSeq uint32

	// WindowSize reserves room for a future sliding-window replay
	// check; 0 means strict monotonic (the only mode implemented).
	WindowSize int
}

// ContextID returns the context's id (kid), as installed at New.
func (c *SecurityContext) ContextID() []byte {
	return c.contextID
}

// Algorithm returns the AEAD algorithm this context uses.
func (c *SecurityContext) Algorithm() cose.AlgorithmID {
	return c.alg
}

// SenderIV returns the sender's common (static) IV.
func (c *SecurityContext) SenderIV() []byte { return c.senderIV }

// ReceiverIV returns the receiver's common (static) IV.
func (c *SecurityContext) ReceiverIV() []byte { return c.receiverIV }

// SenderKey returns the sender's AEAD key.
func (c *SecurityContext) SenderKey() []byte { return c.senderKey }

// ReceiverKey returns the receiver's AEAD key.
func (c *SecurityContext) ReceiverKey() []byte { return c.receiverKey }

// NextSenderSeq atomically increments and returns the sender sequence
// number to use for the next protected message. Once the counter
// enters its retirement margin below math.MaxUint32 it stops handing
// out values and returns ErrSequenceExhausted; the caller must retire
// the context instead of wrapping the counter.
func (c *SecurityContext) NextSenderSeq() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.senderSeq >= math.MaxUint32-sequenceRetirementMargin {
		return 0, ErrSequenceExhausted
	}
	c.senderSeq++
	return c.senderSeq, nil
}

// CheckReceiverSeq validates an incoming sequence number against
// replay, then records it as the new high-water mark. With
// WindowSize == 0 (the only mode this implementation supports) the
// check is strict: seq must be greater than every sequence number
// accepted so far. The high-water mark starts at 0, so sequence
// number 0 is never acceptable; senders increment before their first
// send and start at 1.
func (c *SecurityContext) CheckReceiverSeq(seq uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.receiverSeq {
		return ErrReplay
	}
	c.receiverSeq = seq
	return nil
}

// zeroize overwrites every keying buffer in place before the context
// is returned to the store's free list.
func (c *SecurityContext) zeroize() {
	for _, b := range [][]byte{c.senderKey, c.senderIV, c.receiverKey, c.receiverIV} {
		for i := range b {
			b[i] = 0
		}
	}
	c.senderSeq, c.receiverSeq = 0, 0
}
