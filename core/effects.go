package core

import (
	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

// EffectKind is the kind of outbound effect a transition produces.
type EffectKind int

const (
	// EffectReserve keeps Amount in the contract balance.
	EffectReserve EffectKind = iota
	// EffectPayout sends exactly Amount to Destination.
	EffectPayout
	// EffectSendRemaining sends everything not reserved or already paid to Destination.
	EffectSendRemaining
	// EffectReturnInbound sends the inbound value back to Destination flagged as bounced.
	EffectReturnInbound
	// EffectNFTTransfer instructs the NFT contract to hand the item to NewOwner.
	EffectNFTTransfer
)

// PayoutReason says why an EffectPayout is made.
type PayoutReason string

const (
	ReasonRefund         PayoutReason = "refund"
	ReasonChange         PayoutReason = "change"
	ReasonMarketplaceFee PayoutReason = "marketplace_fee"
	ReasonRoyalty        PayoutReason = "royalty"
	ReasonSeller         PayoutReason = "seller"
)

// Effect is one outbound instruction. Effects are ordered: reservation first,
// then refunds and change, then fee payouts, then the seller, NFT transfer last.
type Effect struct {
	Kind        EffectKind
	Reason      PayoutReason
	Destination *address.Address
	Amount      decimal.Decimal

	// AtMost makes a reservation keep up to Amount instead of failing on a short balance.
	AtMost bool
	// IgnoreErrors lets the transaction succeed even if this send fails.
	IgnoreErrors bool

	// NFT transfer fields; Destination is the NFT contract.
	NewOwner            *address.Address
	ResponseDestination *address.Address
}

// Transition is the result of applying an accepted message.
type Transition struct {
	State   AuctionState
	Effects []Effect

	// Payouts is set when the transition settled the auction with a winner.
	Payouts *Payouts
}

func reserve(amount decimal.Decimal, atMost bool) Effect {
	return Effect{Kind: EffectReserve, Amount: amount, AtMost: atMost}
}

func payout(reason PayoutReason, to *address.Address, amount decimal.Decimal) Effect {
	return Effect{Kind: EffectPayout, Reason: reason, Destination: to, Amount: amount}
}

func sendRemaining(to *address.Address, ignoreErrors bool) Effect {
	return Effect{Kind: EffectSendRemaining, Destination: to, Amount: decimal.Zero, IgnoreErrors: ignoreErrors}
}

func returnInbound(to *address.Address) Effect {
	return Effect{Kind: EffectReturnInbound, Reason: ReasonRefund, Destination: to, Amount: decimal.Zero}
}

func nftTransfer(nft, newOwner, response *address.Address) Effect {
	return Effect{
		Kind:                EffectNFTTransfer,
		Destination:         nft,
		Amount:              decimal.Zero,
		NewOwner:            newOwner,
		ResponseDestination: response,
	}
}

// appendPayout skips zero amounts and missing recipients.
func appendPayout(effects []Effect, reason PayoutReason, to *address.Address, amount decimal.Decimal) []Effect {
	if to == nil || !amount.IsPositive() {
		return effects
	}
	return append(effects, payout(reason, to, amount))
}

// appendFee skips only a missing recipient; zero fees are still sent.
func appendFee(effects []Effect, reason PayoutReason, to *address.Address, amount decimal.Decimal) []Effect {
	if to == nil {
		return effects
	}
	return append(effects, payout(reason, to, amount))
}
