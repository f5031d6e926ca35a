package auctionapi

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/core"
)

// ErrMalformedState is returned when persisted state cannot be decoded.
// The auction cannot continue from such a state.
var ErrMalformedState = errors.New("malformed auction state")

// coinsBits is the widest amount the varuint16 coins encoding can carry.
const coinsBits = 120

// RoyaltyCell is the Royalty sub-cell: uint16 numerator, uint16 denominator, optional recipient.
type RoyaltyCell struct {
	Numerator   uint16           `tlb:"## 16"`
	Denominator uint16           `tlb:"## 16"`
	Destination *address.Address `tlb:"addr"`
}

// AntiSnipingCell is the AntiSnipe sub-cell.
type AntiSnipingCell struct {
	Threshold uint64 `tlb:"## 64"`
	Extension uint64 `tlb:"## 64"`
}

// EncodeState serializes the auction state into its data cell.
//
// The root cell follows the deployed layout field by field. Two trailing fields are
// appended only when set, so states without them are bit-identical to data written by
// the marketplace deploy tooling:
//   - the root cell ends with a 1 bit once the auction is settled
//   - the bid sub-cell ends with "1 + uint64 placed_at" when the bid time is known
func EncodeState(s core.AuctionState) (*cell.Cell, error) {
	if s.MarketplaceAddress == nil || s.NFTAddress == nil {
		return nil, fmt.Errorf("encode state: marketplace and nft addresses are required")
	}

	b := cell.BeginCell()
	if err := b.StoreBoolBit(s.Initialized); err != nil {
		return nil, fmt.Errorf("store initialized: %w", err)
	}
	if err := b.StoreAddr(s.MarketplaceAddress); err != nil {
		return nil, fmt.Errorf("store marketplace_address: %w", err)
	}
	if err := b.StoreAddr(s.NFTAddress); err != nil {
		return nil, fmt.Errorf("store nft_address: %w", err)
	}
	if err := storeAmount(b, "min_bid", s.MinBid); err != nil {
		return nil, err
	}

	if err := b.StoreBoolBit(s.MaxBid != nil); err != nil {
		return nil, fmt.Errorf("store has_max_bid: %w", err)
	}
	if s.MaxBid != nil {
		if err := storeAmount(b, "max_bid", *s.MaxBid); err != nil {
			return nil, err
		}
	}

	if err := storeMaybeUint64(b, "auction_finish_time", s.AuctionFinishTime); err != nil {
		return nil, err
	}
	if err := storeMaybeRoyalty(b, "marketplace_fee", s.MarketplaceFee); err != nil {
		return nil, err
	}
	if err := storeMaybeRoyalty(b, "royalty", s.Royalty); err != nil {
		return nil, err
	}
	if err := storeMaybeUint64(b, "cooldown_time", s.CooldownTime); err != nil {
		return nil, err
	}

	if err := b.StoreBoolBit(s.AntiSniping != nil); err != nil {
		return nil, fmt.Errorf("store has_anti_sniping: %w", err)
	}
	if s.AntiSniping != nil {
		ref, err := tlb.ToCell(AntiSnipingCell{Threshold: s.AntiSniping.Threshold, Extension: s.AntiSniping.Extension})
		if err != nil {
			return nil, fmt.Errorf("build anti_sniping cell: %w", err)
		}
		if err := b.StoreRef(ref); err != nil {
			return nil, fmt.Errorf("store anti_sniping: %w", err)
		}
	}

	if err := b.StoreBoolBit(s.Owner != nil); err != nil {
		return nil, fmt.Errorf("store has_owner: %w", err)
	}
	if s.Owner != nil {
		if err := b.StoreAddr(s.Owner); err != nil {
			return nil, fmt.Errorf("store owner: %w", err)
		}
	}

	if err := b.StoreBoolBit(s.CurrentBid != nil); err != nil {
		return nil, fmt.Errorf("store has_bid: %w", err)
	}
	if s.CurrentBid != nil {
		ref, err := encodeBid(*s.CurrentBid)
		if err != nil {
			return nil, err
		}
		if err := b.StoreRef(ref); err != nil {
			return nil, fmt.Errorf("store current_bid: %w", err)
		}
	}

	if s.Settled {
		if err := b.StoreBoolBit(true); err != nil {
			return nil, fmt.Errorf("store settled: %w", err)
		}
	}

	return b.EndCell(), nil
}

// DecodeState parses a data cell produced by EncodeState or by the marketplace deploy tooling.
// Every failure wraps ErrMalformedState.
func DecodeState(c *cell.Cell) (core.AuctionState, error) {
	if c == nil {
		return core.AuctionState{}, fmt.Errorf("%w: no data cell", ErrMalformedState)
	}

	var s core.AuctionState
	sl := c.BeginParse()

	var err error
	if s.Initialized, err = sl.LoadBoolBit(); err != nil {
		return core.AuctionState{}, malformed("initialized", err)
	}
	if s.MarketplaceAddress, err = loadRequiredAddr(sl, "marketplace_address"); err != nil {
		return core.AuctionState{}, err
	}
	if s.NFTAddress, err = loadRequiredAddr(sl, "nft_address"); err != nil {
		return core.AuctionState{}, err
	}
	if s.MinBid, err = loadAmount(sl, "min_bid"); err != nil {
		return core.AuctionState{}, err
	}

	hasMaxBid, err := sl.LoadBoolBit()
	if err != nil {
		return core.AuctionState{}, malformed("has_max_bid", err)
	}
	if hasMaxBid {
		maxBid, err := loadAmount(sl, "max_bid")
		if err != nil {
			return core.AuctionState{}, err
		}
		s.MaxBid = &maxBid
	}

	if s.AuctionFinishTime, err = loadMaybeUint64(sl, "auction_finish_time"); err != nil {
		return core.AuctionState{}, err
	}
	if s.MarketplaceFee, err = loadMaybeRoyalty(sl, "marketplace_fee"); err != nil {
		return core.AuctionState{}, err
	}
	if s.Royalty, err = loadMaybeRoyalty(sl, "royalty"); err != nil {
		return core.AuctionState{}, err
	}
	if err := core.ValidateRates(s.MarketplaceFee, s.Royalty); err != nil {
		return core.AuctionState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if s.CooldownTime, err = loadMaybeUint64(sl, "cooldown_time"); err != nil {
		return core.AuctionState{}, err
	}

	hasAntiSniping, err := sl.LoadBoolBit()
	if err != nil {
		return core.AuctionState{}, malformed("has_anti_sniping", err)
	}
	if hasAntiSniping {
		ref, err := sl.LoadRef()
		if err != nil {
			return core.AuctionState{}, malformed("anti_sniping", err)
		}
		var as AntiSnipingCell
		if err := tlb.LoadFromCell(&as, ref); err != nil {
			return core.AuctionState{}, malformed("anti_sniping", err)
		}
		s.AntiSniping = &core.AntiSniping{Threshold: as.Threshold, Extension: as.Extension}
	}

	hasOwner, err := sl.LoadBoolBit()
	if err != nil {
		return core.AuctionState{}, malformed("has_owner", err)
	}
	if hasOwner {
		if s.Owner, err = loadRequiredAddr(sl, "owner"); err != nil {
			return core.AuctionState{}, err
		}
	}

	hasBid, err := sl.LoadBoolBit()
	if err != nil {
		return core.AuctionState{}, malformed("has_bid", err)
	}
	if hasBid {
		ref, err := sl.LoadRef()
		if err != nil {
			return core.AuctionState{}, malformed("current_bid", err)
		}
		bid, err := decodeBid(ref)
		if err != nil {
			return core.AuctionState{}, err
		}
		s.CurrentBid = &bid
	}

	// Data written by the marketplace deploy tooling ends here
	if sl.BitsLeft() > 0 {
		if s.Settled, err = sl.LoadBoolBit(); err != nil {
			return core.AuctionState{}, malformed("settled", err)
		}
	}

	return s, nil
}

func encodeBid(bid core.Bid) (*cell.Cell, error) {
	if bid.Bidder == nil {
		return nil, fmt.Errorf("encode state: current bid has no bidder")
	}
	b := cell.BeginCell()
	if err := b.StoreAddr(bid.Bidder); err != nil {
		return nil, fmt.Errorf("store bidder: %w", err)
	}
	if err := storeAmount(b, "bid amount", bid.Amount); err != nil {
		return nil, err
	}
	if bid.PlacedAt != 0 {
		if err := b.StoreBoolBit(true); err != nil {
			return nil, fmt.Errorf("store has_placed_at: %w", err)
		}
		if err := b.StoreUInt(bid.PlacedAt, 64); err != nil {
			return nil, fmt.Errorf("store placed_at: %w", err)
		}
	}
	return b.EndCell(), nil
}

func decodeBid(sl *cell.Slice) (core.Bid, error) {
	var bid core.Bid
	var err error
	if bid.Bidder, err = loadRequiredAddr(sl, "bidder"); err != nil {
		return core.Bid{}, err
	}
	if bid.Amount, err = loadAmount(sl, "bid amount"); err != nil {
		return core.Bid{}, err
	}
	if sl.BitsLeft() > 0 {
		hasPlacedAt, err := sl.LoadBoolBit()
		if err != nil {
			return core.Bid{}, malformed("has_placed_at", err)
		}
		if hasPlacedAt {
			if bid.PlacedAt, err = sl.LoadUInt(64); err != nil {
				return core.Bid{}, malformed("placed_at", err)
			}
		}
	}
	return bid, nil
}

func storeMaybeUint64(b *cell.Builder, name string, v *uint64) error {
	if err := b.StoreBoolBit(v != nil); err != nil {
		return fmt.Errorf("store has_%s: %w", name, err)
	}
	if v == nil {
		return nil
	}
	if err := b.StoreUInt(*v, 64); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func loadMaybeUint64(sl *cell.Slice, name string) (*uint64, error) {
	has, err := sl.LoadBoolBit()
	if err != nil {
		return nil, malformed("has_"+name, err)
	}
	if !has {
		return nil, nil
	}
	v, err := sl.LoadUInt(64)
	if err != nil {
		return nil, malformed(name, err)
	}
	return &v, nil
}

func storeMaybeRoyalty(b *cell.Builder, name string, r *core.Royalty) error {
	if err := b.StoreBoolBit(r != nil); err != nil {
		return fmt.Errorf("store has_%s: %w", name, err)
	}
	if r == nil {
		return nil
	}
	ref, err := tlb.ToCell(RoyaltyCell{Numerator: r.Numerator, Denominator: r.Denominator, Destination: r.Address})
	if err != nil {
		return fmt.Errorf("build %s cell: %w", name, err)
	}
	if err := b.StoreRef(ref); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func loadMaybeRoyalty(sl *cell.Slice, name string) (*core.Royalty, error) {
	has, err := sl.LoadBoolBit()
	if err != nil {
		return nil, malformed("has_"+name, err)
	}
	if !has {
		return nil, nil
	}
	ref, err := sl.LoadRef()
	if err != nil {
		return nil, malformed(name, err)
	}
	var rc RoyaltyCell
	if err := tlb.LoadFromCell(&rc, ref); err != nil {
		return nil, malformed(name, err)
	}
	return &core.Royalty{
		Numerator:   rc.Numerator,
		Denominator: rc.Denominator,
		Address:     presentAddr(rc.Destination),
	}, nil
}

func loadRequiredAddr(sl *cell.Slice, name string) (*address.Address, error) {
	addr, err := sl.LoadAddr()
	if err != nil {
		return nil, malformed(name, err)
	}
	if presentAddr(addr) == nil {
		return nil, fmt.Errorf("%w: %s is absent", ErrMalformedState, name)
	}
	return addr, nil
}

// presentAddr maps addr_none to nil.
func presentAddr(addr *address.Address) *address.Address {
	if addr == nil || addr.Type() == address.NoneAddress {
		return nil
	}
	return addr
}

func storeAmount(b *cell.Builder, name string, d decimal.Decimal) error {
	v, err := AmountToNano(d)
	if err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	if err := b.StoreBigCoins(v); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

func loadAmount(sl *cell.Slice, name string) (decimal.Decimal, error) {
	v, err := sl.LoadBigCoins()
	if err != nil {
		return decimal.Zero, malformed(name, err)
	}
	return decimal.NewFromBigInt(v, 0), nil
}

// AmountToNano converts a whole, non-negative amount to the integer carried by the coins encoding.
func AmountToNano(d decimal.Decimal) (*big.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %s is negative", d)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("amount %s is not a whole number of nanotons", d)
	}
	v := d.BigInt()
	if v.BitLen() > coinsBits {
		return nil, fmt.Errorf("amount %s exceeds %d bits", d, coinsBits)
	}
	return v, nil
}

func malformed(field string, err error) error {
	return fmt.Errorf("%w: read %s: %v", ErrMalformedState, field, err)
}
