package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"
	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/cloudx-io/nftauction/auctionapi"
)

// MockEnclaveHandle implements the Attest method for testing
type MockEnclaveHandle struct {
	AttestFunc func(options enclave.AttestationOptions) ([]byte, error)
}

func (m *MockEnclaveHandle) Attest(options enclave.AttestationOptions) ([]byte, error) {
	if m.AttestFunc != nil {
		return m.AttestFunc(options)
	}
	return nil, fmt.Errorf("mock not configured")
}

func mustDecodeHex(t *testing.T, hexStr string) []byte {
	t.Helper()
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		panic(fmt.Sprintf("invalid hex string: %s", hexStr))
	}
	return bytes
}

// CreateMockEnclave creates a mock enclave handle that wraps user data in an
// unsigned NSM-shaped COSE_Sign1 array.
func CreateMockEnclave(t *testing.T) *MockEnclaveHandle {
	t.Helper()
	return &MockEnclaveHandle{
		AttestFunc: func(options enclave.AttestationOptions) ([]byte, error) {
			nestedDoc := map[string]any{
				"module_id": "test-enclave-12345",
				"digest":    "SHA384",
				"timestamp": uint64(1234567890),
				"pcrs": map[uint64][]byte{
					0: mustDecodeHex(t, "3b4cef27e672fdbcc808960a88ddfe7329dd2e367b6850c9a8d910315f0b47e4224d6db361b75e010c87691d86ca9c57"),
					1: mustDecodeHex(t, "4b4d5b3661b3efc12920900c80e126e4ce783c522de6c02a2a5bf7af3a2b9327b86776f188e4be1c1c404a129dbda493"),
					2: mustDecodeHex(t, "2bdd28c1d85bb3872da3617a29a6bfeb50c65750c995f92e7dac6b5f2c4c72e0f9976bdee62a0b25864d10dffb535e11"),
				},
				"certificate": []byte("test-certificate-data"),
				"cabundle":    [][]byte{[]byte("test-ca-cert")},
				"public_key":  []byte{},
				"user_data":   options.UserData,
				"nonce":       options.Nonce,
			}

			nestedBytes, err := cbor.Marshal(nestedDoc)
			if err != nil {
				return nil, err
			}

			// [protected header, unprotected header, payload, signature]
			return cbor.Marshal([]any{
				[]byte{0x01, 0x02, 0x03},
				map[string]any{},
				nestedBytes,
				[]byte{0x04, 0x05, 0x06},
			})
		},
	}
}

func failingEnclave() *MockEnclaveHandle {
	return &MockEnclaveHandle{
		AttestFunc: func(enclave.AttestationOptions) ([]byte, error) {
			return nil, fmt.Errorf("nsm device unavailable")
		},
	}
}

// parseReceipt is a shared test helper that extracts the receipt of an execute response.
func parseReceipt(t *testing.T, resp auctionapi.ExecuteResponse) *auctionapi.ExecutionReceipt {
	t.Helper()
	raw, err := resp.AttestationCOSEBase64.Decode()
	assert.NoError(t, err)
	doc, err := raw.ParseReceiptAttestation()
	assert.NoError(t, err)
	return doc.Receipt
}

var (
	marketplaceAddr = address.MustParseRawAddr("0:" + strings.Repeat("1", 64))
	nftAddr         = address.MustParseRawAddr("0:" + strings.Repeat("2", 64))
	ownerAddr       = address.MustParseRawAddr("0:" + strings.Repeat("3", 64))
	bidderAddr      = address.MustParseRawAddr("0:" + strings.Repeat("F", 64))
)

func testConfigJSON() auctionapi.AuctionConfigJSON {
	return auctionapi.AuctionConfigJSON{
		MarketplaceAddress: auctionapi.FormatAddress(marketplaceAddr),
		NFTAddress:         auctionapi.FormatAddress(nftAddr),
		MinBid:             decimal.NewFromInt(1_000),
		MarketplaceFee:     &auctionapi.RoyaltyJSON{Numerator: 5, Denominator: 100},
	}
}

func testReceipt() auctionapi.ExecutionReceipt {
	return auctionapi.ExecutionReceipt{
		TransactionID:   "5f0c1c9e-2a49-4c1f-9b8e-0c7f4c0e9a11",
		StateHashBefore: "aa",
		StateHashAfter:  "bb",
		MessageHash:     "cc",
		ExitCode:        0,
		ActionsHash:     "dd",
		Timestamp:       1700000000000,
	}
}

func mustEmptyCell() *cell.Cell {
	return cell.BeginCell().EndCell()
}
