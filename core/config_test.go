package core

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func validConfig() AuctionConfig {
	return AuctionConfig{
		MarketplaceAddress: marketplaceAddr,
		NFTAddress:         nftAddr,
		MinBid:             nano(1),
	}
}

func TestAuctionConfig_Validate(t *testing.T) {
	maxBelowMin := nano(5)
	fractional := decimal.RequireFromString("1.5")

	tests := []struct {
		name    string
		mutate  func(c *AuctionConfig)
		wantErr bool
	}{
		{"minimal config", func(c *AuctionConfig) {}, false},
		{"missing marketplace", func(c *AuctionConfig) { c.MarketplaceAddress = nil }, true},
		{"missing nft", func(c *AuctionConfig) { c.NFTAddress = nil }, true},
		{"negative min bid", func(c *AuctionConfig) { c.MinBid = nano(-1) }, true},
		{"fractional min bid", func(c *AuctionConfig) { c.MinBid = fractional }, true},
		{"max bid below min bid", func(c *AuctionConfig) { c.MinBid = nano(10); c.MaxBid = &maxBelowMin }, true},
		{"max bid equal to min bid", func(c *AuctionConfig) { c.MinBid = nano(5); c.MaxBid = &maxBelowMin }, false},
		{"zero fee denominator", func(c *AuctionConfig) { c.MarketplaceFee = &Royalty{Numerator: 1} }, true},
		{"fee rate above one", func(c *AuctionConfig) { c.Royalty = &Royalty{Numerator: 3, Denominator: 2} }, true},
		{"combined rates above one", func(c *AuctionConfig) {
			c.MarketplaceFee = &Royalty{Numerator: 1, Denominator: 2}
			c.Royalty = &Royalty{Numerator: 2, Denominator: 3, Address: royaltyAddr}
		}, true},
		{"combined rates exactly one", func(c *AuctionConfig) {
			c.MarketplaceFee = &Royalty{Numerator: 1, Denominator: 2}
			c.Royalty = &Royalty{Numerator: 2, Denominator: 4, Address: royaltyAddr}
		}, false},
		{"anti-sniping without extension", func(c *AuctionConfig) { c.AntiSniping = &AntiSniping{Threshold: 5} }, true},
		{"anti-sniping", func(c *AuctionConfig) { c.AntiSniping = &AntiSniping{Threshold: 5, Extension: 10} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			check.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestNewAuctionState(t *testing.T) {
	finish := uint64(100)
	c := validConfig()
	c.AuctionFinishTime = &finish

	s, err := NewAuctionState(c)
	assert.NoError(t, err)
	check.Equal(t, PhaseUninitialized, s.Phase())
	check.Nil(t, s.Owner)
	check.Nil(t, s.CurrentBid)
	check.False(t, s.Settled)

	// The state does not alias the config
	finish = 200
	check.Equal(t, uint64(100), *s.AuctionFinishTime)

	_, err = NewAuctionState(AuctionConfig{})
	check.NotNil(t, err)
}

func TestFees_Validate(t *testing.T) {
	assert.NoError(t, DefaultFees().Validate())
	checkAmount(t, DefaultProcessingFee, DefaultFees().ProcessingFee)
	checkAmount(t, DefaultMinStorageFee, DefaultFees().MinStorageFee)

	check.NotNil(t, Fees{ProcessingFee: nano(-1), MinStorageFee: nano(1)}.Validate())
	check.NotNil(t, Fees{ProcessingFee: nano(1), MinStorageFee: decimal.RequireFromString("0.5")}.Validate())
}

func TestAuctionState_PhaseAndClone(t *testing.T) {
	s := AuctionState{MarketplaceAddress: marketplaceAddr, NFTAddress: nftAddr}
	check.Equal(t, PhaseUninitialized, s.Phase())

	s.Initialized = true
	check.Equal(t, PhaseAwaitingOwner, s.Phase())

	s.Owner = ownerAddr
	check.Equal(t, PhaseOpen, s.Phase())

	s.CurrentBid = &Bid{Bidder: bidderAddr, Amount: nano(10), PlacedAt: 3}
	clone := s.Clone()
	check.True(t, clone.Equal(s))

	clone.CurrentBid.Amount = nano(11)
	checkAmount(t, 10, s.CurrentBid.Amount)
	check.False(t, clone.Equal(s))

	s.Settled = true
	check.Equal(t, PhaseSettled, s.Phase())
	check.Equal(t, "settled", s.Phase().String())
}
