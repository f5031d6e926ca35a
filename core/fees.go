package core

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
)

// Payouts is the distribution of an accepted bid at settlement.
// Seller + MarketplaceFee + Royalty always equals Amount.
type Payouts struct {
	Amount decimal.Decimal

	MarketplaceFee          decimal.Decimal
	MarketplaceFeeRecipient *address.Address

	Royalty          decimal.Decimal
	RoyaltyRecipient *address.Address // nil when no royalty is payable

	Seller decimal.Decimal
}

// Split takes floor(amount * numerator / denominator) out of amount.
// Returns the fee and what is left of amount.
func Split(amount decimal.Decimal, r Royalty) (fee, remainder decimal.Decimal, err error) {
	if r.Denominator == 0 {
		return decimal.Zero, amount, fmt.Errorf("royalty denominator is zero")
	}
	if amount.IsNegative() {
		return decimal.Zero, amount, fmt.Errorf("cannot split negative amount %s", amount)
	}

	// Exact integer division; decimal keeps the product free of overflow
	numerator := decimal.NewFromInt(int64(r.Numerator))
	denominator := decimal.NewFromInt(int64(r.Denominator))
	fee, _ = amount.Mul(numerator).QuoRem(denominator, 0)

	return fee, amount.Sub(fee), nil
}

// ComputePayouts splits amount between the marketplace, the royalty recipient and the seller.
//
// Both fees are computed against the full amount, marketplace fee first. The marketplace
// fee goes to marketplaceFee.Address, or to marketplace when that is nil. A royalty without
// an address pays no one and leaves its share with the seller.
func ComputePayouts(amount decimal.Decimal, marketplace *address.Address, marketplaceFee, royalty *Royalty) (Payouts, error) {
	p := Payouts{
		Amount:         amount,
		MarketplaceFee: decimal.Zero,
		Royalty:        decimal.Zero,
		Seller:         amount,
	}

	if marketplaceFee != nil {
		fee, _, err := Split(amount, *marketplaceFee)
		if err != nil {
			return Payouts{}, fmt.Errorf("marketplace fee: %w", err)
		}
		p.MarketplaceFee = fee
		p.MarketplaceFeeRecipient = marketplace
		if marketplaceFee.Address != nil {
			p.MarketplaceFeeRecipient = marketplaceFee.Address
		}
	}

	if royalty != nil && royalty.Address != nil {
		fee, _, err := Split(amount, *royalty)
		if err != nil {
			return Payouts{}, fmt.Errorf("royalty: %w", err)
		}
		p.Royalty = fee
		p.RoyaltyRecipient = royalty.Address
	}

	p.Seller = amount.Sub(p.MarketplaceFee).Sub(p.Royalty)
	if p.Seller.IsNegative() {
		return Payouts{}, fmt.Errorf("fees %s + %s exceed bid %s", p.MarketplaceFee, p.Royalty, amount)
	}

	return p, nil
}
