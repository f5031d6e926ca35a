package validation

import (
	"crypto/x509"

	"github.com/cloudx-io/nftauction/auctionapi"
)

// BaseValidationResult contains the attestation checks shared by every receipt
type BaseValidationResult struct {
	PCRsValid         bool
	CertificateValid  bool
	SignatureValid    bool
	ValidationDetails []string
}

// ReceiptValidationResult contains validation results for an execution receipt
type ReceiptValidationResult struct {
	BaseValidationResult
	TransactionIDMatch bool
	StateBeforeMatch   bool
	StateAfterMatch    bool
	MessageMatch       bool
	ExitCodeMatch      bool
	ActionsMatch       bool

	Receipt *auctionapi.ExecutionReceipt
}

// IsValid returns true if all receipt validation checks passed
func (r *ReceiptValidationResult) IsValid() bool {
	return r.PCRsValid && r.CertificateValid && r.SignatureValid &&
		r.TransactionIDMatch && r.StateBeforeMatch && r.StateAfterMatch &&
		r.MessageMatch && r.ExitCodeMatch && r.ActionsMatch
}

// PCRSet is the measurement of one receipt host build
type PCRSet struct {
	PCR0       string `json:"pcr0"`
	PCR1       string `json:"pcr1"`
	PCR2       string `json:"pcr2"`
	CommitHash string `json:"commit_hash"` // nftauction repo commit used to build the host image
}

// PCRConfig is the layout of the host measurements file
type PCRConfig struct {
	PCRSets []PCRSet `json:"pcr_sets"`
}

// Trust is what an attestation is checked against: the root certificates of the
// signing chain and the enclave measurements allowed to produce receipts.
type Trust struct {
	Roots   *x509.CertPool
	PCRSets []PCRSet
}

// ReceiptValidationInput is what the caller observed around one execution.
type ReceiptValidationInput struct {
	AttestationCOSEBase64 auctionapi.AttestationCOSEBase64
	TransactionID         string

	StateBOCBefore string
	StateBOCAfter  string
	Message        auctionapi.InboundJSON
	Now            uint64

	ExitCode int
	Actions  []auctionapi.ActionJSON
}

// NewReceiptValidationInput pairs an execute request with the host's response.
func NewReceiptValidationInput(req auctionapi.ExecuteRequest, resp auctionapi.ExecuteResponse) ReceiptValidationInput {
	return ReceiptValidationInput{
		AttestationCOSEBase64: resp.AttestationCOSEBase64,
		TransactionID:         resp.TransactionID,
		StateBOCBefore:        req.StateBOC,
		StateBOCAfter:         resp.StateBOC,
		Message:               req.Message,
		Now:                   req.Now,
		ExitCode:              resp.ExitCode,
		Actions:               resp.Actions,
	}
}
