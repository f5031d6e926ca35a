package auctionapi

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// ActionType is the kind of an outbound action.
type ActionType string

const (
	ActionReserveCurrency ActionType = "reserve_currency"
	ActionSendMsg         ActionType = "send_msg"
)

// Send modes.
const (
	SendModeOrdinary         uint8 = 0
	SendModePayFeesSeparate  uint8 = 1
	SendModeIgnoreErrors     uint8 = 2
	SendModeDestroyIfZero    uint8 = 32
	SendModeCarryInbound     uint8 = 64
	SendModeCarryAllBalance  uint8 = 128
	SendModeCarryAllAndBurn  uint8 = SendModeCarryAllBalance | SendModeDestroyIfZero
	SendModeCarryAllNoBounce uint8 = SendModeCarryAllBalance | SendModeIgnoreErrors
)

// Reserve modes.
const (
	ReserveExact  uint8 = 0
	ReserveAtMost uint8 = 2
)

// Action is one entry of the outbound action list of a transaction.
// Reservations use only Mode and Value.
type Action struct {
	Type        ActionType
	Mode        uint8
	Destination *address.Address
	Value       decimal.Decimal
	Bounced     bool
	Body        *cell.Cell
}

// ReserveAction keeps value in the contract balance.
func ReserveAction(value decimal.Decimal, mode uint8) Action {
	return Action{Type: ActionReserveCurrency, Mode: mode, Value: value}
}

// SendAction sends an internal message.
func SendAction(mode uint8, to *address.Address, value decimal.Decimal, body *cell.Cell) Action {
	return Action{Type: ActionSendMsg, Mode: mode, Destination: to, Value: value, Body: body}
}

// Canonical renders the action as "type:mode:destination:value:bounced:body_hash".
// Receipts hash this form.
func (a Action) Canonical() string {
	dest := ""
	if a.Destination != nil {
		dest = FormatAddress(a.Destination)
	}
	bodyHash := ""
	if a.Body != nil {
		bodyHash = fmt.Sprintf("%x", a.Body.Hash())
	}
	return fmt.Sprintf("%s:%d:%s:%s:%t:%s", a.Type, a.Mode, dest, a.Value.StringFixed(0), a.Bounced, bodyHash)
}

// CanonicalActions renders a list of actions for hashing.
func CanonicalActions(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Canonical()
	}
	return out
}
