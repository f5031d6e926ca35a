package core

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

// Apply executes one inbound message against the auction state.
//
// Parameters:
//   - fees: processing and storage fee schedule of the deployment
//   - state: current persistent state (never modified)
//   - env: sender, attached value and transaction time
//   - msg: the decoded message variant
//
// Returns:
//   - Transition with the new state and the ordered outbound effects
//   - *RejectError when the message is refused; any other error is fatal
//
// Any message other than Bounced that reaches an uninitialized contract is its deployment.
func Apply(fees Fees, state AuctionState, env Env, msg Message) (Transition, error) {
	if _, ok := msg.(Bounced); ok {
		return Transition{State: state.Clone()}, nil
	}
	if msg == nil {
		return Transition{}, fmt.Errorf("no message to apply")
	}
	if env.Sender == nil {
		return Transition{}, fmt.Errorf("%s message has no sender", MessageKind(msg))
	}

	if state.Phase() == PhaseUninitialized {
		return applyDeploy(fees, state, env)
	}

	switch m := msg.(type) {
	case OwnershipAssigned:
		return applyOwnershipAssigned(fees, state, env, m)
	case Accept:
		return applyAccept(fees, state, env)
	case Cancel:
		return applyCancel(fees, state, env)
	case Deploy, PlaceBid:
		// A deploy body arriving after initialization is just another value transfer
		return applyBid(fees, state, env)
	default:
		return Transition{}, fmt.Errorf("unsupported message type %T", msg)
	}
}

func applyDeploy(fees Fees, state AuctionState, env Env) (Transition, error) {
	if !SameAddress(env.Sender, state.MarketplaceAddress) {
		return Transition{}, reject(ExitWrongDeployer)
	}

	next := state.Clone()
	next.Initialized = true

	return Transition{
		State: next,
		Effects: []Effect{
			reserve(fees.MinStorageFee, false),
			sendRemaining(state.MarketplaceAddress, true),
		},
	}, nil
}

func applyOwnershipAssigned(fees Fees, state AuctionState, env Env, m OwnershipAssigned) (Transition, error) {
	if !SameAddress(env.Sender, state.NFTAddress) {
		return Transition{}, reject(ExitWrongNFTSender)
	}
	switch state.Phase() {
	case PhaseSettled:
		return Transition{}, reject(ExitAlreadySettled)
	case PhaseOpen:
		return Transition{}, reject(ExitOwnerAlreadyAssigned)
	}
	if m.PreviousOwner == nil {
		return Transition{}, reject(ExitCellUnderflow)
	}

	next := state.Clone()
	next.Owner = m.PreviousOwner

	return Transition{
		State: next,
		Effects: []Effect{
			reserve(fees.MinStorageFee, true),
			sendRemaining(state.NFTAddress, true),
		},
	}, nil
}

func applyBid(fees Fees, state AuctionState, env Env) (Transition, error) {
	if env.Value.LessThan(fees.ProcessingFee) {
		return Transition{}, reject(ExitInsufficientValue)
	}
	if err := checkCustody(state); err != nil {
		return Transition{}, err
	}

	// Past the deadline a bid can no longer win; it finalizes the auction instead
	if finishPassed(state, env.Now) {
		return finalizeAfterDeadline(state, env)
	}

	amount := env.Value.Sub(fees.ProcessingFee)
	previous := state.CurrentBid
	if previous != nil && amount.LessThanOrEqual(previous.Amount) {
		return Transition{}, reject(ExitBidNotHigher)
	}
	if amount.LessThan(state.MinBid) {
		return Transition{}, reject(ExitBidBelowMinimum)
	}

	if state.MaxBid != nil && amount.GreaterThanOrEqual(*state.MaxBid) {
		return settleAtMaxBid(state, env, amount)
	}

	next := state.Clone()
	next.CurrentBid = &Bid{Bidder: env.Sender, Amount: amount, PlacedAt: env.Now}
	extendDeadline(&next, env.Now)

	effects := []Effect{reserve(fees.MinStorageFee.Add(amount), false)}
	if previous != nil {
		effects = appendPayout(effects, ReasonRefund, previous.Bidder, previous.Amount)
	}
	effects = append(effects, sendRemaining(env.Sender, false))

	return Transition{State: next, Effects: effects}, nil
}

// settleAtMaxBid sells at max bid; anything the bidder sent above it is returned as change.
func settleAtMaxBid(state AuctionState, env Env, amount decimal.Decimal) (Transition, error) {
	price := *state.MaxBid
	excess := amount.Sub(price)

	payouts, err := ComputePayouts(price, state.MarketplaceAddress, state.MarketplaceFee, state.Royalty)
	if err != nil {
		return Transition{}, fmt.Errorf("settle at max bid: %w", err)
	}

	next := state.Clone()
	next.CurrentBid = &Bid{Bidder: env.Sender, Amount: price, PlacedAt: env.Now}
	next.Settled = true

	var effects []Effect
	if previous := state.CurrentBid; previous != nil {
		effects = appendPayout(effects, ReasonRefund, previous.Bidder, previous.Amount)
	}
	effects = appendPayout(effects, ReasonChange, env.Sender, excess)
	effects = appendSettlement(effects, payouts, state.Owner)
	effects = append(effects, nftTransfer(state.NFTAddress, env.Sender, env.Sender))

	return Transition{State: next, Effects: effects, Payouts: &payouts}, nil
}

// finalizeAfterDeadline settles with the standing bid, or returns the NFT to its
// owner when there is none. The sender's value goes back flagged as bounced.
func finalizeAfterDeadline(state AuctionState, env Env) (Transition, error) {
	next := state.Clone()
	next.Settled = true

	effects := []Effect{returnInbound(env.Sender)}

	bid := state.CurrentBid
	if bid == nil {
		effects = append(effects, nftTransfer(state.NFTAddress, state.Owner, env.Sender))
		return Transition{State: next, Effects: effects}, nil
	}

	payouts, err := ComputePayouts(bid.Amount, state.MarketplaceAddress, state.MarketplaceFee, state.Royalty)
	if err != nil {
		return Transition{}, fmt.Errorf("finalize after deadline: %w", err)
	}
	effects = appendSettlement(effects, payouts, state.Owner)
	effects = append(effects, nftTransfer(state.NFTAddress, bid.Bidder, env.Sender))

	return Transition{State: next, Effects: effects, Payouts: &payouts}, nil
}

func applyAccept(fees Fees, state AuctionState, env Env) (Transition, error) {
	if env.Value.LessThan(fees.ProcessingFee) {
		return Transition{}, reject(ExitInsufficientValue)
	}
	if err := checkCustody(state); err != nil {
		return Transition{}, err
	}
	bid := state.CurrentBid
	if bid == nil {
		return Transition{}, reject(ExitAcceptWithoutBid)
	}

	// Once a time gate opens anyone may force settlement
	if !finishPassed(state, env.Now) && !cooldownElapsed(state, env.Now) {
		if !SameAddress(env.Sender, state.Owner) {
			return Transition{}, reject(ExitAcceptFromNonOwner)
		}
		if state.AuctionFinishTime != nil || state.CooldownTime != nil {
			return Transition{}, reject(ExitAcceptTooEarly)
		}
	}

	payouts, err := ComputePayouts(bid.Amount, state.MarketplaceAddress, state.MarketplaceFee, state.Royalty)
	if err != nil {
		return Transition{}, fmt.Errorf("accept: %w", err)
	}

	next := state.Clone()
	next.Settled = true

	effects := appendSettlement(nil, payouts, state.Owner)
	effects = append(effects, nftTransfer(state.NFTAddress, bid.Bidder, env.Sender))

	return Transition{State: next, Effects: effects, Payouts: &payouts}, nil
}

func applyCancel(fees Fees, state AuctionState, env Env) (Transition, error) {
	if env.Value.LessThan(fees.ProcessingFee) {
		return Transition{}, reject(ExitInsufficientValue)
	}
	if err := checkCustody(state); err != nil {
		return Transition{}, err
	}
	if !SameAddress(env.Sender, state.Owner) {
		return Transition{}, reject(ExitCancelFromNonOwner)
	}
	if state.CurrentBid != nil && finishPassed(state, env.Now) {
		return Transition{}, reject(ExitCancelAfterFinish)
	}

	next := state.Clone()
	next.Settled = true

	var effects []Effect
	if bid := state.CurrentBid; bid != nil {
		effects = appendPayout(effects, ReasonRefund, bid.Bidder, bid.Amount)
	}
	effects = append(effects, nftTransfer(state.NFTAddress, state.Owner, state.Owner))

	return Transition{State: next, Effects: effects}, nil
}

func checkCustody(state AuctionState) error {
	switch state.Phase() {
	case PhaseSettled:
		return reject(ExitAlreadySettled)
	case PhaseAwaitingOwner:
		return reject(ExitNotInCustody)
	}
	return nil
}

func finishPassed(state AuctionState, now uint64) bool {
	return state.AuctionFinishTime != nil && now >= *state.AuctionFinishTime
}

func cooldownElapsed(state AuctionState, now uint64) bool {
	if state.CooldownTime == nil || state.CurrentBid == nil {
		return false
	}
	placedAt := state.CurrentBid.PlacedAt
	return now >= placedAt && now-placedAt >= *state.CooldownTime
}

// extendDeadline pushes the finish time when a bid lands within the anti-sniping threshold.
func extendDeadline(state *AuctionState, now uint64) {
	if state.AuctionFinishTime == nil || state.AntiSniping == nil {
		return
	}
	finish := *state.AuctionFinishTime
	if finish-now <= state.AntiSniping.Threshold {
		extended := finish + state.AntiSniping.Extension
		state.AuctionFinishTime = &extended
	}
}

// appendSettlement pays the marketplace fee, then the royalty, then the seller.
// A configured fee with a recipient is paid even when it rounds down to zero.
func appendSettlement(effects []Effect, p Payouts, seller *address.Address) []Effect {
	effects = appendFee(effects, ReasonMarketplaceFee, p.MarketplaceFeeRecipient, p.MarketplaceFee)
	effects = appendFee(effects, ReasonRoyalty, p.RoyaltyRecipient, p.Royalty)
	return appendPayout(effects, ReasonSeller, seller, p.Seller)
}
