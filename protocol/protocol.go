package protocol

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/core"
)

// Inbound is an internal message delivered to the auction contract.
type Inbound struct {
	Sender  *address.Address
	Value   decimal.Decimal
	Bounced bool
	Body    *cell.Cell // nil for an empty body
	Now     uint64     // transaction unix time
}

// Outcome is the result of executing one inbound message.
type Outcome struct {
	ExitCode core.ExitCode

	// State is the data cell after the transaction; on rejection it is the input cell.
	State   *cell.Cell
	Actions []auctionapi.Action

	// Kind names the message variant the inbound was classified as.
	Kind string

	// Payouts is set when the message settled the auction with a winner.
	Payouts *core.Payouts
}

// Accepted reports whether the message was processed without rejection.
func (o *Outcome) Accepted() bool {
	return o.ExitCode == core.ExitOK
}

// Classify maps an inbound message to its variant.
// Bounced messages are recognized first, then deployment of an uninitialized contract,
// then the body op code.
func Classify(state core.AuctionState, in Inbound) (core.Message, error) {
	if in.Bounced {
		return core.Bounced{}, nil
	}
	if !state.Initialized {
		return core.Deploy{}, nil
	}
	return auctionapi.DecodeBody(in.Body)
}

// Execute runs one inbound message against the persisted state cell.
//
// Rejections are reported through Outcome.ExitCode with the state unchanged and no
// actions. An error is returned only when the transaction cannot run at all, such as
// a state cell that fails to decode (wrapping auctionapi.ErrMalformedState).
func Execute(fees core.Fees, stateCell *cell.Cell, in Inbound) (*Outcome, error) {
	// Step 1: Decode persisted state
	state, err := auctionapi.DecodeState(stateCell)
	if err != nil {
		log.Printf("ERROR: Refusing to execute against undecodable state: %v", err)
		return nil, fmt.Errorf("decode state: %w", err)
	}

	// Step 2: Classify the message
	msg, err := Classify(state, in)
	if err != nil {
		if !errors.Is(err, auctionapi.ErrMalformedBody) {
			return nil, fmt.Errorf("classify message: %w", err)
		}
		op, _ := auctionapi.PeekOp(in.Body)
		if op != auctionapi.OpOwnershipAssigned {
			log.Printf("WARNING: Rejecting message with malformed body: %v", err)
			return rejected(stateCell, core.ExitCellUnderflow, "malformed"), nil
		}
		// Sender and phase checks come first; the missing previous owner maps to exit 9
		log.Printf("WARNING: Truncated ownership_assigned body: %v", err)
		msg = core.OwnershipAssigned{}
	}
	kind := core.MessageKind(msg)

	// Step 3: Run the state machine
	env := core.Env{Sender: in.Sender, Value: in.Value, Now: in.Now}
	tr, err := core.Apply(fees, state, env, msg)
	if err != nil {
		if code, ok := core.ExitCodeOf(err); ok {
			log.Printf("INFO: %s rejected with exit code %d (%s)", kind, int(code), code)
			return rejected(stateCell, code, kind), nil
		}
		return nil, fmt.Errorf("apply %s: %w", kind, err)
	}

	// Step 4: Persist the new state and package effects
	newCell, err := auctionapi.EncodeState(tr.State)
	if err != nil {
		return nil, fmt.Errorf("encode state after %s: %w", kind, err)
	}

	actions, err := PackageEffects(tr.Effects)
	if err != nil {
		return nil, fmt.Errorf("package effects of %s: %w", kind, err)
	}

	log.Printf("INFO: %s accepted: phase %s -> %s, %d actions", kind, state.Phase(), tr.State.Phase(), len(actions))

	return &Outcome{
		ExitCode: core.ExitOK,
		State:    newCell,
		Actions:  actions,
		Kind:     kind,
		Payouts:  tr.Payouts,
	}, nil
}

func rejected(stateCell *cell.Cell, code core.ExitCode, kind string) *Outcome {
	return &Outcome{ExitCode: code, State: stateCell, Kind: kind}
}

// PackageEffects maps state machine effects to outbound actions, preserving order.
//
//	reserve exact / at most  -> reserve mode 0 / 2
//	payout                   -> send mode 1 with the exact amount
//	send remaining           -> send mode 128 (+2 when errors are ignored)
//	return inbound           -> send mode 64, value 0, bounced
//	nft transfer             -> send mode 128+32 to the NFT with a transfer body
func PackageEffects(effects []core.Effect) ([]auctionapi.Action, error) {
	actions := make([]auctionapi.Action, 0, len(effects))
	for i, e := range effects {
		a, err := packageEffect(e)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func packageEffect(e core.Effect) (auctionapi.Action, error) {
	switch e.Kind {
	case core.EffectReserve:
		mode := auctionapi.ReserveExact
		if e.AtMost {
			mode = auctionapi.ReserveAtMost
		}
		return auctionapi.ReserveAction(e.Amount, mode), nil

	case core.EffectPayout:
		if e.Destination == nil {
			return auctionapi.Action{}, fmt.Errorf("%s payout has no destination", e.Reason)
		}
		return auctionapi.SendAction(auctionapi.SendModePayFeesSeparate, e.Destination, e.Amount, nil), nil

	case core.EffectSendRemaining:
		mode := auctionapi.SendModeCarryAllBalance
		if e.IgnoreErrors {
			mode = auctionapi.SendModeCarryAllNoBounce
		}
		return auctionapi.SendAction(mode, e.Destination, decimal.Zero, nil), nil

	case core.EffectReturnInbound:
		a := auctionapi.SendAction(auctionapi.SendModeCarryInbound, e.Destination, decimal.Zero, nil)
		a.Bounced = true
		return a, nil

	case core.EffectNFTTransfer:
		body, err := auctionapi.BuildNFTTransferBody(e.NewOwner, e.ResponseDestination)
		if err != nil {
			return auctionapi.Action{}, fmt.Errorf("build nft transfer body: %w", err)
		}
		return auctionapi.SendAction(auctionapi.SendModeCarryAllAndBurn, e.Destination, decimal.Zero, body), nil

	default:
		return auctionapi.Action{}, fmt.Errorf("unknown effect kind %d", e.Kind)
	}
}
