package core

import (
	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

// Message is an inbound message after op-code dispatch.
// The set of variants is closed: Deploy, OwnershipAssigned, PlaceBid, Accept, Cancel and Bounced.
type Message interface {
	messageKind() string
}

// Deploy is the first message an uninitialized contract receives.
type Deploy struct{}

// OwnershipAssigned is sent by the NFT contract once the auction holds the NFT.
type OwnershipAssigned struct {
	QueryID       uint64
	PreviousOwner *address.Address
}

// PlaceBid is any message that is not one of the other variants. The bid is
// the attached value minus the processing fee.
type PlaceBid struct{}

// Accept asks for settlement with the standing bid.
type Accept struct{}

// Cancel withdraws the listing.
type Cancel struct{}

// Bounced is a message returned by the network. It is never processed.
type Bounced struct{}

func (Deploy) messageKind() string            { return "deploy" }
func (OwnershipAssigned) messageKind() string { return "ownership_assigned" }
func (PlaceBid) messageKind() string          { return "bid" }
func (Accept) messageKind() string            { return "accept" }
func (Cancel) messageKind() string            { return "cancel" }
func (Bounced) messageKind() string           { return "bounced" }

// MessageKind names a message variant for logs.
func MessageKind(m Message) string {
	if m == nil {
		return "none"
	}
	return m.messageKind()
}

// Env is the transaction context supplied by the execution host.
type Env struct {
	Sender *address.Address
	Value  decimal.Decimal // value attached to the inbound message
	Now    uint64          // transaction unix time
}
