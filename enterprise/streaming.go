package enterprise

import (
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/expmath"
)

// streamingReserve drip-feeds rental income into the reserve. A payment of
// P becomes available as P*(1 - 2^(-dt/halving)): half after one halving
// period, three quarters after two. Aggregating all pending payments into
// one anchor is exact because the decay is linear in the remaining amount.
//
// This is the anti-frontrunning device: a staker arriving just before a
// large payment lands earns only the part of it that streams in while they
// are actually staked.
type streamingReserve struct {
	// target is the income still streaming toward the reserve.
	target  *big.Int
	updated uint64
	halving uint64
}

func newStreamingReserve(halving uint64, now uint64) *streamingReserve {
	return &streamingReserve{
		target:  big.NewInt(0),
		updated: now,
		halving: halving,
	}
}

// available returns the portion of target matured by time t but not yet
// flushed into the fixed reserve.
func (s *streamingReserve) available(t uint64) *big.Int {
	if s.target.Sign() == 0 {
		return big.NewInt(0)
	}
	if t < s.updated {
		t = s.updated
	}
	remaining := expmath.HalfLifeValue(s.updated, s.target, s.halving, t)
	return new(big.Int).Sub(s.target, remaining)
}

// flush moves the matured portion out of the stream and re-anchors the
// remainder at t. The remainder keeps decaying at the same rate, so a
// flush never changes observable availability.
func (s *streamingReserve) flush(t uint64) *big.Int {
	matured := s.available(t)
	if t > s.updated {
		s.updated = t
	}
	if matured.Sign() > 0 {
		s.target = new(big.Int).Sub(s.target, matured)
	}
	return matured
}

// canRecord reports whether an extra payment keeps the stream target
// inside the width the decay math can settle.
func (s *streamingReserve) canRecord(payment *big.Int) bool {
	if payment == nil || payment.Sign() <= 0 {
		return true
	}
	return new(big.Int).Add(s.target, payment).BitLen() <= expmath.MaxValueBits
}

// record queues a new payment into the stream. The stream must be flushed
// to t first so earlier payments keep their own schedule.
func (s *streamingReserve) record(payment *big.Int) {
	if payment == nil || payment.Sign() <= 0 {
		return
	}
	s.target = new(big.Int).Add(s.target, payment)
}
