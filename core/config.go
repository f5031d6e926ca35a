package core

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

const (
	// DefaultProcessingFee is the value (nanotons) an Accept, Cancel or Bid must carry
	// on top of any bid to pay for its own execution.
	DefaultProcessingFee int64 = 1_000_000_000

	// DefaultMinStorageFee is the balance (nanotons) kept in the contract between messages.
	DefaultMinStorageFee int64 = 100_000_000
)

// Fees is the processing and storage fee schedule of a deployment.
type Fees struct {
	ProcessingFee decimal.Decimal
	MinStorageFee decimal.Decimal
}

// DefaultFees returns the production fee schedule.
func DefaultFees() Fees {
	return Fees{
		ProcessingFee: decimal.NewFromInt(DefaultProcessingFee),
		MinStorageFee: decimal.NewFromInt(DefaultMinStorageFee),
	}
}

// Validate checks that both fees are non-negative whole amounts.
func (f Fees) Validate() error {
	if err := validateAmount("processing fee", f.ProcessingFee); err != nil {
		return err
	}
	return validateAmount("min storage fee", f.MinStorageFee)
}

// AuctionConfig holds the parameters fixed when an auction is created.
type AuctionConfig struct {
	MarketplaceAddress *address.Address
	NFTAddress         *address.Address
	MinBid             decimal.Decimal
	MaxBid             *decimal.Decimal
	AuctionFinishTime  *uint64
	MarketplaceFee     *Royalty
	Royalty            *Royalty
	CooldownTime       *uint64
	AntiSniping        *AntiSniping
}

// Validate rejects configurations the state machine cannot settle correctly.
func (c AuctionConfig) Validate() error {
	if c.MarketplaceAddress == nil {
		return fmt.Errorf("marketplace address is required")
	}
	if c.NFTAddress == nil {
		return fmt.Errorf("nft address is required")
	}
	if err := validateAmount("min bid", c.MinBid); err != nil {
		return err
	}
	if c.MaxBid != nil {
		if err := validateAmount("max bid", *c.MaxBid); err != nil {
			return err
		}
		if c.MaxBid.LessThan(c.MinBid) {
			return fmt.Errorf("max bid %s is below min bid %s", c.MaxBid, c.MinBid)
		}
	}
	if err := ValidateRates(c.MarketplaceFee, c.Royalty); err != nil {
		return err
	}
	if c.AntiSniping != nil && c.AntiSniping.Extension == 0 {
		return fmt.Errorf("anti-sniping extension must be positive")
	}
	return nil
}

// NewAuctionState builds the pre-deployment state for a validated configuration.
func NewAuctionState(c AuctionConfig) (AuctionState, error) {
	if err := c.Validate(); err != nil {
		return AuctionState{}, fmt.Errorf("invalid auction config: %w", err)
	}
	s := AuctionState{
		MarketplaceAddress: c.MarketplaceAddress,
		NFTAddress:         c.NFTAddress,
		MinBid:             c.MinBid,
		MaxBid:             c.MaxBid,
		AuctionFinishTime:  c.AuctionFinishTime,
		MarketplaceFee:     c.MarketplaceFee,
		Royalty:            c.Royalty,
		CooldownTime:       c.CooldownTime,
		AntiSniping:        c.AntiSniping,
	}
	return s.Clone(), nil
}

// ValidateRates checks that each configured rate has a positive denominator and
// that the marketplace fee and royalty together take at most the whole bid.
func ValidateRates(marketplaceFee, royalty *Royalty) error {
	if marketplaceFee != nil {
		if err := validateRate("marketplace fee", *marketplaceFee); err != nil {
			return err
		}
	}
	if royalty != nil {
		if err := validateRate("royalty", *royalty); err != nil {
			return err
		}
	}
	if marketplaceFee != nil && royalty != nil {
		// mkt.num/mkt.den + roy.num/roy.den <= 1
		lhs := int64(marketplaceFee.Numerator)*int64(royalty.Denominator) +
			int64(royalty.Numerator)*int64(marketplaceFee.Denominator)
		rhs := int64(marketplaceFee.Denominator) * int64(royalty.Denominator)
		if lhs > rhs {
			return fmt.Errorf("marketplace fee and royalty together exceed the bid")
		}
	}
	return nil
}

func validateAmount(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%s must not be negative, got %s", name, d)
	}
	if !d.IsInteger() {
		return fmt.Errorf("%s must be a whole number of nanotons, got %s", name, d)
	}
	return nil
}

func validateRate(name string, r Royalty) error {
	if r.Denominator == 0 {
		return fmt.Errorf("%s denominator must be positive", name)
	}
	if r.Numerator > r.Denominator {
		return fmt.Errorf("%s rate %d/%d exceeds 1", name, r.Numerator, r.Denominator)
	}
	return nil
}
