package context

import (
	"math"
	"testing"
)

func TestNextSenderSeqIncrements(t *testing.T) {
	c := &SecurityContext{}
	for want := uint32(1); want <= 3; want++ {
		got, err := c.NextSenderSeq()
		if err != nil {
			t.Fatalf("NextSenderSeq() error: %v", err)
		}
		if got != want {
			t.Fatalf("NextSenderSeq() = %d, want %d", got, want)
		}
	}
}

func TestNextSenderSeqExhaustion(t *testing.T) {
	c := &SecurityContext{senderSeq: math.MaxUint32 - sequenceRetirementMargin}
	if _, err := c.NextSenderSeq(); err != ErrSequenceExhausted {
		t.Fatalf("NextSenderSeq() error = %v, want ErrSequenceExhausted", err)
	}
}

func TestCheckReceiverSeqStrictMonotonic(t *testing.T) {
	c := &SecurityContext{}
	if err := c.CheckReceiverSeq(0); err != ErrReplay {
		t.Fatalf("CheckReceiverSeq(0) = %v, want ErrReplay", err)
	}
	if err := c.CheckReceiverSeq(1); err != nil {
		t.Fatalf("CheckReceiverSeq(1) error: %v", err)
	}
	if err := c.CheckReceiverSeq(5); err != nil {
		t.Fatalf("CheckReceiverSeq(5) error: %v", err)
	}
	if err := c.CheckReceiverSeq(5); err != ErrReplay {
		t.Fatalf("CheckReceiverSeq(5) again = %v, want ErrReplay", err)
	}
	if err := c.CheckReceiverSeq(3); err != ErrReplay {
		t.Fatalf("CheckReceiverSeq(3 out of order) = %v, want ErrReplay", err)
	}
	if err := c.CheckReceiverSeq(6); err != nil {
		t.Fatalf("CheckReceiverSeq(6) error: %v", err)
	}
}

func TestZeroizeClearsSequenceState(t *testing.T) {
	c := &SecurityContext{
		senderKey:   []byte{1, 2, 3},
		senderIV:    []byte{1, 2, 3},
		receiverKey: []byte{1, 2, 3},
		receiverIV:  []byte{1, 2, 3},
	}
	_ = c.CheckReceiverSeq(10)
	c.zeroize()

	if err := c.CheckReceiverSeq(1); err != nil {
		t.Fatalf("CheckReceiverSeq(1) after zeroize error: %v", err)
	}
}
