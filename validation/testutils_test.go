package validation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
	"github.com/veraison/go-cose"
	"github.com/xssnick/tonutils-go/address"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/auctionapi/parsing"
	"github.com/cloudx-io/nftauction/core"
	"github.com/cloudx-io/nftauction/protocol"
)

var testPCRs = PCRSet{
	PCR0:       strings.Repeat("a1", 48),
	PCR1:       strings.Repeat("b2", 48),
	PCR2:       strings.Repeat("c3", 48),
	CommitHash: "abc1234",
}

// testEnclave signs NSM-shaped attestations with a throwaway P-384 chain.
type testEnclave struct {
	roots   *x509.CertPool
	rootDER []byte
	leafDER []byte
	key     *ecdsa.PrivateKey
	now     time.Time
}

func newTestEnclave(t *testing.T) *testEnclave {
	t.Helper()
	now := time.Now()

	rootKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	assert.NoError(t, err)
	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test.nitro-enclaves"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	assert.NoError(t, err)
	root, err := x509.ParseCertificate(rootDER)
	assert.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	assert.NoError(t, err)
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "test-enclave-12345"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, root, &leafKey.PublicKey, rootKey)
	assert.NoError(t, err)

	roots := x509.NewCertPool()
	roots.AddCert(root)

	return &testEnclave{roots: roots, rootDER: rootDER, leafDER: leafDER, key: leafKey, now: now}
}

func (e *testEnclave) trust() Trust {
	return Trust{Roots: e.roots, PCRSets: []PCRSet{testPCRs}}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	out, err := hex.DecodeString(s)
	assert.NoError(t, err)
	return out
}

// attest produces a signed COSE_Sign1 attestation carrying userData.
func (e *testEnclave) attest(t *testing.T, userData []byte) auctionapi.AttestationCOSE {
	t.Helper()
	doc, err := cbor.Marshal(map[string]any{
		"module_id": "test-enclave-12345",
		"digest":    "SHA384",
		"timestamp": uint64(e.now.UnixMilli()),
		"pcrs": map[uint64][]byte{
			0: mustHex(t, testPCRs.PCR0),
			1: mustHex(t, testPCRs.PCR1),
			2: mustHex(t, testPCRs.PCR2),
		},
		"certificate": e.leafDER,
		"cabundle":    [][]byte{e.rootDER},
		"public_key":  []byte{},
		"user_data":   userData,
		"nonce":       []byte("nonce"),
	})
	assert.NoError(t, err)

	protected, err := cbor.Marshal(map[int]int{1: -35}) // alg: ES384
	assert.NoError(t, err)

	sigStructure, err := parsing.SigStructure(protected, doc)
	assert.NoError(t, err)
	signer, err := cose.NewSigner(cose.AlgorithmES384, e.key)
	assert.NoError(t, err)
	signature, err := signer.Sign(rand.Reader, sigStructure)
	assert.NoError(t, err)

	out, err := cbor.Marshal([]any{protected, map[any]any{}, doc, signature})
	assert.NoError(t, err)
	return auctionapi.AttestationCOSE(out)
}

var (
	marketplaceAddr = address.MustParseRawAddr("0:" + strings.Repeat("1", 64))
	nftAddr         = address.MustParseRawAddr("0:" + strings.Repeat("2", 64))
)

func initialStateBOC(t *testing.T) string {
	t.Helper()
	s, err := core.NewAuctionState(core.AuctionConfig{
		MarketplaceAddress: marketplaceAddr,
		NFTAddress:         nftAddr,
		MinBid:             decimal.NewFromInt(1),
	})
	assert.NoError(t, err)
	c, err := auctionapi.EncodeState(s)
	assert.NoError(t, err)
	return auctionapi.EncodeBOC(c)
}

func deployRequest(t *testing.T) auctionapi.ExecuteRequest {
	t.Helper()
	return auctionapi.ExecuteRequest{
		Type:     auctionapi.TypeExecuteRequest,
		StateBOC: initialStateBOC(t),
		Message: auctionapi.InboundJSON{
			Sender: auctionapi.FormatAddress(marketplaceAddr),
			Value:  decimal.NewFromInt(1_000_000_000),
		},
		Now: 1700000000,
	}
}

// executeAttested runs req the way the execution host does and attests the receipt.
func (e *testEnclave) executeAttested(t *testing.T, req auctionapi.ExecuteRequest) auctionapi.ExecuteResponse {
	t.Helper()
	stateCell, err := auctionapi.DecodeBOC(req.StateBOC)
	assert.NoError(t, err)
	sender, err := auctionapi.ParseAddress(req.Message.Sender)
	assert.NoError(t, err)
	body, err := auctionapi.DecodeBOC(req.Message.BodyBOC)
	assert.NoError(t, err)

	outcome, err := protocol.Execute(core.DefaultFees(), stateCell, protocol.Inbound{
		Sender:  sender,
		Value:   req.Message.Value,
		Bounced: req.Message.Bounced,
		Body:    body,
		Now:     req.Now,
	})
	assert.NoError(t, err)

	messageHash, err := req.Message.Hash(req.Now)
	assert.NoError(t, err)

	receipt := auctionapi.ExecutionReceipt{
		TransactionID:   uuid.NewString(),
		StateHashBefore: auctionapi.StateHash(stateCell),
		StateHashAfter:  auctionapi.StateHash(outcome.State),
		MessageHash:     messageHash,
		ExitCode:        int(outcome.ExitCode),
		ActionsHash:     auctionapi.ActionsHash(outcome.Actions),
		Timestamp:       e.now.UnixMilli(),
	}
	userData, err := auctionapi.EncodeReceipt(receipt)
	assert.NoError(t, err)

	actions := make([]auctionapi.ActionJSON, 0, len(outcome.Actions))
	for _, a := range outcome.Actions {
		actions = append(actions, auctionapi.NewActionJSON(a))
	}

	return auctionapi.ExecuteResponse{
		Type:                  auctionapi.TypeExecuteResponse,
		Success:               true,
		TransactionID:         receipt.TransactionID,
		ExitCode:              receipt.ExitCode,
		StateBOC:              auctionapi.EncodeBOC(outcome.State),
		Actions:               actions,
		AttestationCOSEBase64: e.attest(t, userData).EncodeBase64(),
	}
}

func pcrsOf(set PCRSet) auctionapi.PCRs {
	return auctionapi.PCRs{ImageFileHash: set.PCR0, KernelHash: set.PCR1, ApplicationHash: set.PCR2}
}
