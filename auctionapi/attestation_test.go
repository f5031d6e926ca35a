package auctionapi

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func testReceipt() ExecutionReceipt {
	return ExecutionReceipt{
		TransactionID:   "6f1c2a4e-8b0d-4e55-9f1e-2d7c3b9a0e11",
		StateHashBefore: "aa",
		StateHashAfter:  "bb",
		MessageHash:     "cc",
		ExitCode:        103,
		ActionsHash:     "dd",
		Timestamp:       1700000000123,
	}
}

func fakeAttestation(t *testing.T, userData []byte) AttestationCOSE {
	t.Helper()
	doc, err := cbor.Marshal(map[string]any{
		"module_id":   "test-enclave-12345",
		"digest":      "SHA384",
		"timestamp":   uint64(1700000000123),
		"pcrs":        map[uint64][]byte{0: {0x01}, 1: {0x02}, 2: {0x03}},
		"certificate": []byte("cert"),
		"cabundle":    [][]byte{[]byte("ca")},
		"public_key":  []byte{},
		"user_data":   userData,
		"nonce":       []byte("nonce"),
	})
	assert.NoError(t, err)
	out, err := cbor.Marshal([]any{[]byte{0xa0}, map[string]any{}, doc, []byte{0x00}})
	assert.NoError(t, err)
	return AttestationCOSE(out)
}

func TestReceiptEncoding(t *testing.T) {
	r := testReceipt()

	a, err := EncodeReceipt(r)
	assert.NoError(t, err)
	b, err := EncodeReceipt(r)
	assert.NoError(t, err)
	check.Equal(t, a, b)

	decoded, err := DecodeReceipt(a)
	assert.NoError(t, err)
	check.Equal(t, r, *decoded)

	_, err = DecodeReceipt(nil)
	check.Error(t, err)
}

func TestParseReceiptAttestation(t *testing.T) {
	userData, err := EncodeReceipt(testReceipt())
	assert.NoError(t, err)

	cose := fakeAttestation(t, userData)

	// Survives the base64 transport form
	decoded, err := cose.EncodeBase64().Decode()
	assert.NoError(t, err)

	doc, err := decoded.ParseReceiptAttestation()
	assert.NoError(t, err)
	check.Equal(t, "test-enclave-12345", doc.ModuleID)
	check.Equal(t, "01", doc.PCRs.ImageFileHash)
	check.Equal(t, "03", doc.PCRs.ApplicationHash)
	check.Equal(t, "", doc.PCRs.SigningCertHash)
	check.Equal(t, "Y2VydA==", doc.Certificate)
	check.Equal(t, int64(1700000000123), doc.Timestamp.UnixMilli())
	check.Equal(t, "nonce", doc.Nonce)
	assert.NotNil(t, doc.Receipt)
	check.Equal(t, 103, doc.Receipt.ExitCode)
}

func TestParseReceiptAttestation_Errors(t *testing.T) {
	_, err := AttestationCOSE([]byte{0x01}).ParseReceiptAttestation()
	check.Error(t, err)

	_, err = fakeAttestation(t, nil).ParseReceiptAttestation()
	check.Error(t, err)

	_, err = AttestationCOSEBase64("***").Decode()
	check.Error(t, err)
}
