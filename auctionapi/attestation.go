package auctionapi

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/nftauction/auctionapi/parsing"
)

// AttestationCOSE is a raw NSM attestation: an untagged COSE_Sign1 CBOR array.
type AttestationCOSE []byte

// AttestationCOSEBase64 is an attestation as carried in JSON responses.
type AttestationCOSEBase64 string

// EncodeBase64 encodes the attestation for transport.
func (a AttestationCOSE) EncodeBase64() AttestationCOSEBase64 {
	return AttestationCOSEBase64(base64.StdEncoding.EncodeToString(a))
}

// Decode returns the raw attestation bytes.
func (a AttestationCOSEBase64) Decode() (AttestationCOSE, error) {
	raw, err := base64.StdEncoding.DecodeString(string(a))
	if err != nil {
		return nil, fmt.Errorf("decode attestation base64: %w", err)
	}
	return AttestationCOSE(raw), nil
}

// PCRs represents the Platform Configuration Registers from AWS Nitro Enclaves
type PCRs struct {
	// PCR0: Hash of the Enclave Image File (EIF)
	ImageFileHash string `json:"0"`

	// PCR1: Hash of the Linux kernel and initial RAM data (initramfs)
	KernelHash string `json:"1"`

	// PCR2: Hash of user applications, excluding the boot ramfs
	ApplicationHash string `json:"2"`

	// PCR3: Hash of the IAM role assigned to the parent instance
	IAMRoleHash string `json:"3"`

	// PCR4: Hash of the parent instance's ID
	InstanceIDHash string `json:"4"`

	// PCR8: Hash of the enclave image file's signing certificate
	SigningCertHash string `json:"8,omitempty"`
}

// AttestationDoc is the decoded attestation document without its user data.
type AttestationDoc struct {
	ModuleID        string    `json:"module_id"`
	Timestamp       time.Time `json:"timestamp"`
	DigestAlgorithm string    `json:"digest"`
	PCRs            PCRs      `json:"pcrs"`

	// Base64 DER signing certificate and CA bundle
	Certificate string   `json:"certificate"`
	CABundle    []string `json:"cabundle"`

	PublicKey string `json:"public_key"`
	Nonce     string `json:"nonce"`
}

// ExecutionReceipt is the user data attested for every executed message.
// Hashes are lowercase hex.
type ExecutionReceipt struct {
	TransactionID   string `cbor:"transaction_id" json:"transaction_id"`
	StateHashBefore string `cbor:"state_hash_before" json:"state_hash_before"`
	StateHashAfter  string `cbor:"state_hash_after" json:"state_hash_after"`
	MessageHash     string `cbor:"message_hash" json:"message_hash"`
	ExitCode        int    `cbor:"exit_code" json:"exit_code"`
	ActionsHash     string `cbor:"actions_hash" json:"actions_hash"`
	Timestamp       int64  `cbor:"timestamp" json:"timestamp"` // unix milliseconds
}

// ReceiptAttestationDoc is an attestation carrying an execution receipt.
type ReceiptAttestationDoc struct {
	AttestationDoc
	Receipt *ExecutionReceipt `json:"receipt"`
}

var receiptEncMode = mustReceiptEncMode()

func mustReceiptEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("receipt cbor encoding mode: %v", err))
	}
	return em
}

// EncodeReceipt serializes a receipt as deterministic CBOR.
func EncodeReceipt(r ExecutionReceipt) ([]byte, error) {
	out, err := receiptEncMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %w", err)
	}
	return out, nil
}

// DecodeReceipt parses receipt user data.
func DecodeReceipt(data []byte) (*ExecutionReceipt, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("receipt is empty")
	}
	var r ExecutionReceipt
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return &r, nil
}

// ParseAttestationDoc extracts the attestation document and its raw user data.
func (a AttestationCOSE) ParseAttestationDoc() (AttestationDoc, []byte, error) {
	payload, err := parsing.ExtractCOSEPayload(a)
	if err != nil {
		return AttestationDoc{}, nil, fmt.Errorf("extract COSE payload: %w", err)
	}

	raw, err := parsing.ParseNitroDocument(payload)
	if err != nil {
		return AttestationDoc{}, nil, err
	}

	doc := AttestationDoc{
		ModuleID:        raw.ModuleID,
		Timestamp:       time.UnixMilli(int64(raw.Timestamp)).UTC(),
		DigestAlgorithm: raw.Digest,
		PCRs: PCRs{
			ImageFileHash:   parsing.FormatPCR(raw.PCRs[0]),
			KernelHash:      parsing.FormatPCR(raw.PCRs[1]),
			ApplicationHash: parsing.FormatPCR(raw.PCRs[2]),
			IAMRoleHash:     parsing.FormatPCR(raw.PCRs[3]),
			InstanceIDHash:  parsing.FormatPCR(raw.PCRs[4]),
			SigningCertHash: parsing.FormatPCR(raw.PCRs[8]),
		},
		CABundle:  parsing.EncodeCertificateBundle(raw.CABundle),
		PublicKey: base64.StdEncoding.EncodeToString(raw.PublicKey),
		Nonce:     string(raw.Nonce),
	}
	if len(raw.Certificate) > 0 {
		doc.Certificate = base64.StdEncoding.EncodeToString(raw.Certificate)
	}

	return doc, raw.UserData, nil
}

// ParseReceiptAttestation parses an attestation and decodes its execution receipt.
func (a AttestationCOSE) ParseReceiptAttestation() (*ReceiptAttestationDoc, error) {
	doc, userData, err := a.ParseAttestationDoc()
	if err != nil {
		return nil, err
	}
	receipt, err := DecodeReceipt(userData)
	if err != nil {
		return nil, fmt.Errorf("parse user data: %w", err)
	}
	return &ReceiptAttestationDoc{AttestationDoc: doc, Receipt: receipt}, nil
}
