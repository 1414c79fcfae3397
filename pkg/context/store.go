package context

import (
	"sync"

	"github.com/go-oscoap/oscoap/pkg/cose"
	"github.com/go-oscoap/oscoap/pkg/crypto"
)

// DefaultCapacity is the default number of contexts a Store can hold
// concurrently.
const DefaultCapacity = 16

// Handle addresses a context within a Store. It packs a slot index
// with a generation counter, so a handle to a freed (and since
// reused) slot is detected as stale rather than silently resolving to
// an unrelated context.
type Handle struct {
	index      uint32
	generation uint32
}

type slot struct {
	ctx        *SecurityContext
	generation uint32
	occupied   bool
}

// Store is a fixed-capacity pool of security contexts, addressed by
// Handle and indexed by context id for incoming-message lookup.
type Store struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32 // indices available for reuse, LIFO
	byCID map[string]uint32
}

// NewStore creates a Store with room for capacity contexts (0 uses
// DefaultCapacity).
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		slots: make([]slot, capacity),
		free:  make([]uint32, capacity),
		byCID: make(map[string]uint32, capacity),
	}
	for i := range s.free {
		s.free[i] = uint32(capacity - 1 - i)
	}
	return s
}

// New installs a security context with the given context id, algorithm,
// and keying material, and returns its Handle. Returns ErrStoreFull if
// the store is at capacity, or ErrDuplicateContextID if cid is already
// in use by a live context.
func (s *Store) New(cid []byte, alg cose.AlgorithmID, senderKey, senderIV, receiverKey, receiverIV []byte) (Handle, error) {
	if len(senderKey) != crypto.KeySize || len(receiverKey) != crypto.KeySize {
		return Handle{}, ErrInvalidKeySize
	}
	if len(senderIV) != cose.IVLen || len(receiverIV) != cose.IVLen {
		return Handle{}, ErrInvalidKeySize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(cid)
	if _, exists := s.byCID[key]; exists {
		return Handle{}, ErrDuplicateContextID
	}
	if len(s.free) == 0 {
		return Handle{}, ErrStoreFull
	}

	idx := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]

	ctx := &SecurityContext{
		contextID:   append([]byte(nil), cid...),
		alg:         alg,
		senderKey:   append([]byte(nil), senderKey...),
		senderIV:    append([]byte(nil), senderIV...),
		receiverKey: append([]byte(nil), receiverKey...),
		receiverIV:  append([]byte(nil), receiverIV...),
	}

	s.slots[idx].ctx = ctx
	s.slots[idx].occupied = true
	s.byCID[key] = idx

	return Handle{index: idx, generation: s.slots[idx].generation}, nil
}

// Get resolves a Handle to its SecurityContext. Returns ErrNotFound if
// the index is out of range or the slot is empty, ErrStaleHandle if
// the slot has been recycled since the handle was issued.
func (s *Store) Get(h Handle) (*SecurityContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(h)
}

func (s *Store) get(h Handle) (*SecurityContext, error) {
	if int(h.index) >= len(s.slots) || !s.slots[h.index].occupied {
		return nil, ErrNotFound
	}
	if s.slots[h.index].generation != h.generation {
		return nil, ErrStaleHandle
	}
	return s.slots[h.index].ctx, nil
}

// FindByCID looks up a live context by its context id (kid).
func (s *Store) FindByCID(cid []byte) (*SecurityContext, Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byCID[string(cid)]
	if !ok {
		return nil, Handle{}, false
	}
	return s.slots[idx].ctx, Handle{index: idx, generation: s.slots[idx].generation}, true
}

// Free zeroizes and releases the context addressed by h, making its
// slot available for reuse. Freeing an already-free or stale handle is
// a no-op.
func (s *Store) Free(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(h.index) >= len(s.slots) || !s.slots[h.index].occupied {
		return
	}
	if s.slots[h.index].generation != h.generation {
		return
	}

	ctx := s.slots[h.index].ctx
	ctx.zeroize()

	delete(s.byCID, string(ctx.contextID))
	s.slots[h.index].ctx = nil
	s.slots[h.index].occupied = false
	s.slots[h.index].generation++

	s.free = append(s.free, h.index)
}

// Len returns the number of contexts currently live in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCID)
}
