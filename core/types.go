package core

import (
	"bytes"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

// Phase is the lifecycle stage of an auction, derived from its persistent state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseAwaitingOwner
	PhaseOpen
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseAwaitingOwner:
		return "awaiting_owner"
	case PhaseOpen:
		return "open"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Royalty is a rational fee taken from the winning bid.
// A nil Address means the default recipient (marketplace fee) or no recipient (royalty).
type Royalty struct {
	Numerator   uint16
	Denominator uint16
	Address     *address.Address
}

// AntiSniping extends the deadline by Extension seconds when a bid lands
// within Threshold seconds of it.
type AntiSniping struct {
	Threshold uint64
	Extension uint64
}

// Bid is the highest standing offer.
type Bid struct {
	Bidder *address.Address
	Amount decimal.Decimal

	// PlacedAt is the unix time the bid was accepted, used for the cooldown gate.
	PlacedAt uint64
}

// AuctionState is the single persistent record of an auction contract.
type AuctionState struct {
	Initialized        bool
	MarketplaceAddress *address.Address
	NFTAddress         *address.Address
	MinBid             decimal.Decimal
	MaxBid             *decimal.Decimal
	AuctionFinishTime  *uint64
	MarketplaceFee     *Royalty
	Royalty            *Royalty
	CooldownTime       *uint64
	AntiSniping        *AntiSniping
	Owner              *address.Address
	CurrentBid         *Bid

	// Settled is set once the NFT has left custody. No bid, accept or cancel
	// succeeds afterwards.
	Settled bool
}

// Phase derives the lifecycle stage from the state fields.
func (s *AuctionState) Phase() Phase {
	switch {
	case !s.Initialized:
		return PhaseUninitialized
	case s.Settled:
		return PhaseSettled
	case s.Owner == nil:
		return PhaseAwaitingOwner
	default:
		return PhaseOpen
	}
}

// Clone returns a deep copy so transitions never write through to the caller's state.
func (s AuctionState) Clone() AuctionState {
	out := s
	if s.MaxBid != nil {
		v := *s.MaxBid
		out.MaxBid = &v
	}
	if s.AuctionFinishTime != nil {
		v := *s.AuctionFinishTime
		out.AuctionFinishTime = &v
	}
	if s.MarketplaceFee != nil {
		v := *s.MarketplaceFee
		out.MarketplaceFee = &v
	}
	if s.Royalty != nil {
		v := *s.Royalty
		out.Royalty = &v
	}
	if s.CooldownTime != nil {
		v := *s.CooldownTime
		out.CooldownTime = &v
	}
	if s.AntiSniping != nil {
		v := *s.AntiSniping
		out.AntiSniping = &v
	}
	if s.CurrentBid != nil {
		v := *s.CurrentBid
		out.CurrentBid = &v
	}
	return out
}

// Equal reports whether two states hold the same values.
func (s AuctionState) Equal(o AuctionState) bool {
	return s.Initialized == o.Initialized &&
		s.Settled == o.Settled &&
		SameAddress(s.MarketplaceAddress, o.MarketplaceAddress) &&
		SameAddress(s.NFTAddress, o.NFTAddress) &&
		s.MinBid.Equal(o.MinBid) &&
		equalAmountPtr(s.MaxBid, o.MaxBid) &&
		equalUintPtr(s.AuctionFinishTime, o.AuctionFinishTime) &&
		equalRoyalty(s.MarketplaceFee, o.MarketplaceFee) &&
		equalRoyalty(s.Royalty, o.Royalty) &&
		equalUintPtr(s.CooldownTime, o.CooldownTime) &&
		equalAntiSniping(s.AntiSniping, o.AntiSniping) &&
		SameAddress(s.Owner, o.Owner) &&
		equalBid(s.CurrentBid, o.CurrentBid)
}

// SameAddress compares two addresses by workchain and hash. Two nil addresses are equal.
func SameAddress(a, b *address.Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Workchain() == b.Workchain() && bytes.Equal(a.Data(), b.Data())
}

func equalAmountPtr(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalUintPtr(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalRoyalty(a, b *Royalty) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Numerator == b.Numerator && a.Denominator == b.Denominator && SameAddress(a.Address, b.Address)
}

func equalAntiSniping(a, b *AntiSniping) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalBid(a, b *Bid) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return SameAddress(a.Bidder, b.Bidder) && a.Amount.Equal(b.Amount) && a.PlacedAt == b.PlacedAt
}
