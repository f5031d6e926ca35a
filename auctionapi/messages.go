package auctionapi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/core"
)

// Message op codes (uint32 body prefix).
const (
	OpComment           uint32 = 0x00000000
	OpDeploySale        uint32 = 0x00000001
	OpOwnershipAssigned uint32 = 0x05138d91
	OpAccept            uint32 = 0x1e064098
	OpCancel            uint32 = 0x5616c572
	OpNFTTransfer       uint32 = 0x5fcc3d14
)

// ErrMalformedBody is returned when a recognized op code is followed by an unreadable payload.
var ErrMalformedBody = errors.New("malformed message body")

// AcceptBody asks the auction to settle with the standing bid.
type AcceptBody struct {
	_ tlb.Magic `tlb:"#1e064098"`
}

// CancelBody withdraws the listing.
type CancelBody struct {
	_ tlb.Magic `tlb:"#5616c572"`
}

// OwnershipAssignedBody is the notification the NFT contract sends to its new owner.
// A forward payload may follow; it is ignored.
type OwnershipAssignedBody struct {
	_             tlb.Magic        `tlb:"#05138d91"`
	QueryID       uint64           `tlb:"## 64"`
	PreviousOwner *address.Address `tlb:"addr"`
}

// NFTTransferBody is the outbound instruction moving the NFT to a new owner.
type NFTTransferBody struct {
	_                   tlb.Magic        `tlb:"#5fcc3d14"`
	QueryID             uint64           `tlb:"## 64"`
	NewOwner            *address.Address `tlb:"addr"`
	ResponseDestination *address.Address `tlb:"addr"`
	CustomPayload       *cell.Cell       `tlb:"maybe ^"`
	ForwardAmount       tlb.Coins        `tlb:"."`
}

// DeploySaleBody is what the marketplace receives to deploy an auction contract.
type DeploySaleBody struct {
	_         tlb.Magic      `tlb:"#00000001"`
	Amount    tlb.Coins      `tlb:"."`
	StateInit *tlb.StateInit `tlb:"^"`
	Payload   *cell.Cell     `tlb:"^"`
}

// PeekOp returns the op code of a body, and false when the body is too short to carry one.
func PeekOp(body *cell.Cell) (uint32, bool) {
	if body == nil || body.BitsSize() < 32 {
		return 0, false
	}
	op, err := body.BeginParse().LoadUInt(32)
	if err != nil {
		return 0, false
	}
	return uint32(op), true
}

// DecodeBody classifies a message body by op code.
//
// Accept and Cancel carry nothing beyond the op. OwnershipAssigned is parsed in full and
// fails with ErrMalformedBody when truncated. Every other body, including an empty one
// or a text comment, is a bid.
func DecodeBody(body *cell.Cell) (core.Message, error) {
	op, ok := PeekOp(body)
	if !ok {
		return core.PlaceBid{}, nil
	}

	switch op {
	case OpAccept:
		return core.Accept{}, nil
	case OpCancel:
		return core.Cancel{}, nil
	case OpOwnershipAssigned:
		var m OwnershipAssignedBody
		if err := tlb.LoadFromCell(&m, body.BeginParse()); err != nil {
			return nil, fmt.Errorf("%w: ownership_assigned: %v", ErrMalformedBody, err)
		}
		previousOwner := presentAddr(m.PreviousOwner)
		if previousOwner == nil {
			return nil, fmt.Errorf("%w: ownership_assigned: previous owner is absent", ErrMalformedBody)
		}
		return core.OwnershipAssigned{QueryID: m.QueryID, PreviousOwner: previousOwner}, nil
	default:
		return core.PlaceBid{}, nil
	}
}

// BuildAcceptBody returns the body of an Accept message.
func BuildAcceptBody() (*cell.Cell, error) {
	return tlb.ToCell(AcceptBody{})
}

// BuildCancelBody returns the body of a Cancel message.
func BuildCancelBody() (*cell.Cell, error) {
	return tlb.ToCell(CancelBody{})
}

// BuildOwnershipAssignedBody returns the notification an NFT sends to the auction once it holds the item.
func BuildOwnershipAssignedBody(queryID uint64, previousOwner *address.Address) (*cell.Cell, error) {
	return tlb.ToCell(OwnershipAssignedBody{QueryID: queryID, PreviousOwner: previousOwner})
}

// BuildNFTTransferBody returns the outbound NFT transfer with query id 0, no custom
// payload and no forwarded amount.
func BuildNFTTransferBody(newOwner, responseDestination *address.Address) (*cell.Cell, error) {
	return tlb.ToCell(NFTTransferBody{
		QueryID:             0,
		NewOwner:            newOwner,
		ResponseDestination: responseDestination,
		ForwardAmount:       tlb.ZeroCoins,
	})
}

// BuildDeploySaleBody returns the marketplace message deploying an auction with the given code and data.
func BuildDeploySaleBody(amount decimal.Decimal, code, data *cell.Cell) (*cell.Cell, error) {
	nano, err := AmountToNano(amount)
	if err != nil {
		return nil, fmt.Errorf("deploy amount: %w", err)
	}
	return tlb.ToCell(DeploySaleBody{
		Amount:    tlb.FromNanoTON(nano),
		StateInit: &tlb.StateInit{Code: code, Data: data},
		Payload:   cell.BeginCell().EndCell(),
	})
}

// ContractAddress derives the address a contract with this code and data deploys to.
func ContractAddress(workchain int32, code, data *cell.Cell) (*address.Address, error) {
	stateInit, err := tlb.ToCell(&tlb.StateInit{Code: code, Data: data})
	if err != nil {
		return nil, fmt.Errorf("build state init: %w", err)
	}
	return address.NewAddress(0, byte(workchain), stateInit.Hash()), nil
}
