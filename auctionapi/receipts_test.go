package auctionapi

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"

	"github.com/cloudx-io/nftauction/core"
)

func TestInboundHash(t *testing.T) {
	body, err := BuildAcceptBody()
	assert.NoError(t, err)

	sender := address.MustParseRawAddr("0:" + strings.Repeat("a", 64))
	in := InboundJSON{
		Sender:  FormatAddress(sender),
		Value:   decimal.NewFromInt(1_000_000_000),
		BodyBOC: EncodeBOC(body),
	}

	hash, err := in.Hash(42)
	assert.NoError(t, err)
	expected := core.ComputeMessageHash(FormatAddress(sender), in.Value, false, StateHash(body), 42)
	check.Equal(t, expected, hash)

	// The friendly form of the same sender hashes identically
	friendly := in
	friendly.Sender = sender.String()
	friendlyHash, err := friendly.Hash(42)
	assert.NoError(t, err)
	check.Equal(t, hash, friendlyHash)

	other, err := in.Hash(43)
	assert.NoError(t, err)
	check.NotEqual(t, hash, other)

	_, err = InboundJSON{Sender: "nope"}.Hash(0)
	check.Error(t, err)
}

func TestActionsHashJSON(t *testing.T) {
	body, err := BuildCancelBody()
	assert.NoError(t, err)
	dest := address.MustParseRawAddr("0:" + strings.Repeat("b", 64))

	actions := []Action{
		ReserveAction(decimal.NewFromInt(100), ReserveExact),
		SendAction(SendModeCarryAllAndBurn, dest, decimal.Zero, body),
	}
	rendered := make([]ActionJSON, len(actions))
	for i, a := range actions {
		rendered[i] = NewActionJSON(a)
	}

	hash, err := ActionsHashJSON(rendered)
	assert.NoError(t, err)
	check.Equal(t, ActionsHash(actions), hash)

	// Order matters
	reversed := []ActionJSON{rendered[1], rendered[0]}
	reversedHash, err := ActionsHashJSON(reversed)
	assert.NoError(t, err)
	check.NotEqual(t, hash, reversedHash)

	check.Equal(t, core.ComputeActionsHash(nil), ActionsHash(nil))
}
