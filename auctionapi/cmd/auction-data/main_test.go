package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/auctionapi"
)

var testConfig = `{
	"marketplace_address": "0:` + strings.Repeat("1", 64) + `",
	"nft_address": "0:` + strings.Repeat("2", 64) + `",
	"min_bid": "1000",
	"max_bid": "5000",
	"auction_finish_time": 1700003600,
	"royalty": {"numerator": 5, "denominator": 100, "address": "0:` + strings.Repeat("4", 64) + `"}
}`

func TestInitThenInspect(t *testing.T) {
	var initOut bytes.Buffer
	assert.NoError(t, runInit([]string{"--config", testConfig}, &initOut))

	var initResult map[string]string
	assert.NoError(t, json.Unmarshal(initOut.Bytes(), &initResult))
	check.Equal(t, 64, len(initResult["state_hash"]))

	var inspectOut bytes.Buffer
	assert.NoError(t, runInspect([]string{"--state", initResult["state_boc"]}, &inspectOut))

	var view auctionapi.StateView
	assert.NoError(t, json.Unmarshal(inspectOut.Bytes(), &view))
	check.Equal(t, "uninitialized", view.Phase)
	check.Equal(t, "1000", view.Config.MinBid.String())
	assert.NotNil(t, view.Config.MaxBid)
	check.Equal(t, "5000", view.Config.MaxBid.String())
	assert.NotNil(t, view.Config.Royalty)
	check.Equal(t, uint16(5), view.Config.Royalty.Numerator)
}

func TestInitErrors(t *testing.T) {
	check.Error(t, runInit(nil, &bytes.Buffer{}))
	check.Error(t, runInit([]string{"--config", "{"}, &bytes.Buffer{}))
	check.Error(t, runInit([]string{"--config", `{"marketplace_address": "0:00"}`}, &bytes.Buffer{}))
	check.Error(t, runInspect([]string{"--state", "AAAA"}, &bytes.Buffer{}))
}

func TestDeploy(t *testing.T) {
	code := auctionapi.EncodeBOC(cell.BeginCell().MustStoreUInt(0xdeadbeef, 32).EndCell())

	var out bytes.Buffer
	assert.NoError(t, runDeploy([]string{"--config", testConfig, "--code", code, "--amount", "50000000"}, &out))

	var result map[string]string
	assert.NoError(t, json.Unmarshal(out.Bytes(), &result))
	check.True(t, strings.HasPrefix(result["address"], "0:"))

	body, err := auctionapi.DecodeBOC(result["body_boc"])
	assert.NoError(t, err)
	op, ok := auctionapi.PeekOp(body)
	check.True(t, ok)
	check.Equal(t, auctionapi.OpDeploySale, op)

	// Same config and code always deploy to the same address
	var again bytes.Buffer
	assert.NoError(t, runDeploy([]string{"--config", testConfig, "--code", code, "--amount", "1"}, &again))
	var againResult map[string]string
	assert.NoError(t, json.Unmarshal(again.Bytes(), &againResult))
	check.Equal(t, result["address"], againResult["address"])

	check.Error(t, runDeploy([]string{"--config", testConfig}, &bytes.Buffer{}))
	check.Error(t, runDeploy([]string{"--config", testConfig, "--code", code, "--amount", "lots"}, &bytes.Buffer{}))
}
