package auctionapi

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/core"
)

// Request and response type tags of the execution host protocol.
const (
	TypePing            = "ping"
	TypePong            = "pong"
	TypeError           = "error"
	TypeInitRequest     = "init_request"
	TypeInitResponse    = "init_response"
	TypeStateRequest    = "state_request"
	TypeStateResponse   = "state_response"
	TypeExecuteRequest  = "execute_request"
	TypeExecuteResponse = "execute_response"
)

// RoyaltyJSON is a rate with an optional recipient.
type RoyaltyJSON struct {
	Numerator   uint16 `json:"numerator"`
	Denominator uint16 `json:"denominator"`
	Address     string `json:"address,omitempty"`
}

// AntiSnipingJSON mirrors core.AntiSniping.
type AntiSnipingJSON struct {
	Threshold uint64 `json:"threshold"`
	Extension uint64 `json:"extension"`
}

// AuctionConfigJSON is the creation-time configuration of an auction.
// Amounts are nanotons; addresses are raw ("0:<hex>") or user-friendly.
type AuctionConfigJSON struct {
	MarketplaceAddress string           `json:"marketplace_address"`
	NFTAddress         string           `json:"nft_address"`
	MinBid             decimal.Decimal  `json:"min_bid"`
	MaxBid             *decimal.Decimal `json:"max_bid,omitempty"`
	AuctionFinishTime  *uint64          `json:"auction_finish_time,omitempty"`
	MarketplaceFee     *RoyaltyJSON     `json:"marketplace_fee,omitempty"`
	Royalty            *RoyaltyJSON     `json:"royalty,omitempty"`
	CooldownTime       *uint64          `json:"cooldown_time,omitempty"`
	AntiSniping        *AntiSnipingJSON `json:"anti_sniping,omitempty"`
}

// ToConfig parses addresses and builds the core configuration. It does not validate amounts or rates.
func (c AuctionConfigJSON) ToConfig() (core.AuctionConfig, error) {
	marketplace, err := ParseAddress(c.MarketplaceAddress)
	if err != nil {
		return core.AuctionConfig{}, fmt.Errorf("marketplace_address: %w", err)
	}
	nft, err := ParseAddress(c.NFTAddress)
	if err != nil {
		return core.AuctionConfig{}, fmt.Errorf("nft_address: %w", err)
	}
	marketplaceFee, err := c.MarketplaceFee.toRoyalty()
	if err != nil {
		return core.AuctionConfig{}, fmt.Errorf("marketplace_fee: %w", err)
	}
	royalty, err := c.Royalty.toRoyalty()
	if err != nil {
		return core.AuctionConfig{}, fmt.Errorf("royalty: %w", err)
	}

	cfg := core.AuctionConfig{
		MarketplaceAddress: marketplace,
		NFTAddress:         nft,
		MinBid:             c.MinBid,
		MaxBid:             c.MaxBid,
		AuctionFinishTime:  c.AuctionFinishTime,
		MarketplaceFee:     marketplaceFee,
		Royalty:            royalty,
		CooldownTime:       c.CooldownTime,
	}
	if c.AntiSniping != nil {
		cfg.AntiSniping = &core.AntiSniping{Threshold: c.AntiSniping.Threshold, Extension: c.AntiSniping.Extension}
	}
	return cfg, nil
}

func (r *RoyaltyJSON) toRoyalty() (*core.Royalty, error) {
	if r == nil {
		return nil, nil
	}
	out := &core.Royalty{Numerator: r.Numerator, Denominator: r.Denominator}
	if r.Address != "" {
		addr, err := ParseAddress(r.Address)
		if err != nil {
			return nil, err
		}
		out.Address = addr
	}
	return out, nil
}

// BidJSON is the standing bid in a state view.
type BidJSON struct {
	Bidder   string          `json:"bidder"`
	Amount   decimal.Decimal `json:"amount"`
	PlacedAt uint64          `json:"placed_at,omitempty"`
}

// StateView is a decoded, human-readable auction state.
type StateView struct {
	Phase       string            `json:"phase"`
	Initialized bool              `json:"initialized"`
	Settled     bool              `json:"settled"`
	Config      AuctionConfigJSON `json:"config"`
	Owner       string            `json:"owner,omitempty"`
	CurrentBid  *BidJSON          `json:"current_bid,omitempty"`
}

// NewStateView renders a state for JSON output.
func NewStateView(s core.AuctionState) StateView {
	view := StateView{
		Phase:       s.Phase().String(),
		Initialized: s.Initialized,
		Settled:     s.Settled,
		Config: AuctionConfigJSON{
			MarketplaceAddress: FormatAddress(s.MarketplaceAddress),
			NFTAddress:         FormatAddress(s.NFTAddress),
			MinBid:             s.MinBid,
			MaxBid:             s.MaxBid,
			AuctionFinishTime:  s.AuctionFinishTime,
			MarketplaceFee:     royaltyJSON(s.MarketplaceFee),
			Royalty:            royaltyJSON(s.Royalty),
			CooldownTime:       s.CooldownTime,
		},
		Owner: FormatAddress(s.Owner),
	}
	if s.AntiSniping != nil {
		view.Config.AntiSniping = &AntiSnipingJSON{Threshold: s.AntiSniping.Threshold, Extension: s.AntiSniping.Extension}
	}
	if s.CurrentBid != nil {
		view.CurrentBid = &BidJSON{
			Bidder:   FormatAddress(s.CurrentBid.Bidder),
			Amount:   s.CurrentBid.Amount,
			PlacedAt: s.CurrentBid.PlacedAt,
		}
	}
	return view
}

func royaltyJSON(r *core.Royalty) *RoyaltyJSON {
	if r == nil {
		return nil
	}
	return &RoyaltyJSON{Numerator: r.Numerator, Denominator: r.Denominator, Address: FormatAddress(r.Address)}
}

// InboundJSON is an inbound internal message.
type InboundJSON struct {
	Sender  string          `json:"sender"`
	Value   decimal.Decimal `json:"value"`
	Bounced bool            `json:"bounced"`
	BodyBOC string          `json:"body_boc,omitempty"` // base64 bag of cells; empty for no body
}

// ActionJSON is an outbound action in an execute response.
type ActionJSON struct {
	Type        ActionType      `json:"type"`
	Mode        uint8           `json:"mode"`
	Destination string          `json:"destination,omitempty"`
	Value       decimal.Decimal `json:"value"`
	Bounced     bool            `json:"bounced,omitempty"`
	BodyBOC     string          `json:"body_boc,omitempty"`
}

// NewActionJSON renders an action for JSON output.
func NewActionJSON(a Action) ActionJSON {
	return ActionJSON{
		Type:        a.Type,
		Mode:        a.Mode,
		Destination: FormatAddress(a.Destination),
		Value:       a.Value,
		Bounced:     a.Bounced,
		BodyBOC:     EncodeBOC(a.Body),
	}
}

// InitRequest asks the host for the initial data cell of an auction.
type InitRequest struct {
	Type   string            `json:"type"`
	Config AuctionConfigJSON `json:"config"`
}

// InitResponse carries the initial data cell.
type InitResponse struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	StateBOC string `json:"state_boc,omitempty"`
}

// StateRequest asks the host to decode a data cell.
type StateRequest struct {
	Type     string `json:"type"`
	StateBOC string `json:"state_boc"`
}

// StateResponse carries the decoded state.
type StateResponse struct {
	Type    string     `json:"type"`
	Success bool       `json:"success"`
	Message string     `json:"message"`
	State   *StateView `json:"state,omitempty"`
}

// ExecuteRequest runs one inbound message against a persisted state.
type ExecuteRequest struct {
	Type     string      `json:"type"`
	StateBOC string      `json:"state_boc"`
	Message  InboundJSON `json:"message"`
	Now      uint64      `json:"now"`
}

// ExecuteResponse is the result of an ExecuteRequest.
// Success is false only when the request could not be executed at all; a rejected
// message is a successful execution with a non-zero ExitCode.
type ExecuteResponse struct {
	Type                  string                `json:"type"`
	Success               bool                  `json:"success"`
	Message               string                `json:"message"`
	TransactionID         string                `json:"transaction_id,omitempty"`
	ExitCode              int                   `json:"exit_code"`
	StateBOC              string                `json:"state_boc,omitempty"`
	Actions               []ActionJSON          `json:"actions,omitempty"`
	AttestationCOSEBase64 AttestationCOSEBase64 `json:"attestation_cose_base64,omitempty"`
	ProcessingTime        int64                 `json:"processing_time_ms"`
}

// ParseAddress accepts a raw ("0:<hex>") or user-friendly address.
func ParseAddress(s string) (*address.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("address is empty")
	}
	if strings.Contains(s, ":") {
		addr, err := address.ParseRawAddr(s)
		if err != nil {
			return nil, fmt.Errorf("parse raw address %q: %w", s, err)
		}
		return addr, nil
	}
	addr, err := address.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}

// FormatAddress renders an address in raw form, or "" for none.
func FormatAddress(addr *address.Address) string {
	if presentAddr(addr) == nil {
		return ""
	}
	return fmt.Sprintf("%d:%x", addr.Workchain(), addr.Data())
}

// EncodeBOC serializes a cell as a base64 bag of cells, or "" for nil.
func EncodeBOC(c *cell.Cell) string {
	if c == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(c.ToBOC())
}

// DecodeBOC parses a base64 bag of cells. An empty string is no cell.
func DecodeBOC(s string) (*cell.Cell, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode boc base64: %w", err)
	}
	c, err := cell.FromBOC(raw)
	if err != nil {
		return nil, fmt.Errorf("parse boc: %w", err)
	}
	return c, nil
}
