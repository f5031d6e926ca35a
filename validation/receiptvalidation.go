package validation

import (
	"fmt"

	"github.com/cloudx-io/nftauction/auctionapi"
)

// ValidateReceiptAttestation validates an attested execution receipt and verifies:
// - The receipt names the transaction the host reported
// - State hashes match the data cells before and after execution
// - The message hash matches the inbound message and transaction time
// - Exit code and outbound actions match the host's response
//
// Returns:
//   - ReceiptValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed attestation or input cells)
func ValidateReceiptAttestation(input ReceiptValidationInput, trust Trust) (*ReceiptValidationResult, error) {
	// Perform common attestation validation (PCRs, certificate, signature)
	baseResult, userData, err := validateCommonAttestation(input.AttestationCOSEBase64, trust)
	if err != nil {
		return nil, err
	}

	result := &ReceiptValidationResult{
		BaseValidationResult: *baseResult,
	}

	receipt, err := auctionapi.DecodeReceipt(userData)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Attestation receipt unreadable: %v", err))
		return result, nil
	}
	result.Receipt = receipt

	// Recompute every hash from what the caller observed
	before, err := auctionapi.DecodeBOC(input.StateBOCBefore)
	if err != nil {
		return nil, fmt.Errorf("state before: %w", err)
	}
	after, err := auctionapi.DecodeBOC(input.StateBOCAfter)
	if err != nil {
		return nil, fmt.Errorf("state after: %w", err)
	}
	messageHash, err := input.Message.Hash(input.Now)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	actionsHash, err := auctionapi.ActionsHashJSON(input.Actions)
	if err != nil {
		return nil, fmt.Errorf("actions: %w", err)
	}

	result.TransactionIDMatch = compare(result, "Transaction ID", input.TransactionID, receipt.TransactionID)
	result.StateBeforeMatch = compare(result, "State hash before", auctionapi.StateHash(before), receipt.StateHashBefore)
	result.StateAfterMatch = compare(result, "State hash after", auctionapi.StateHash(after), receipt.StateHashAfter)
	result.MessageMatch = compare(result, "Message hash", messageHash, receipt.MessageHash)
	result.ExitCodeMatch = compare(result, "Exit code", fmt.Sprint(input.ExitCode), fmt.Sprint(receipt.ExitCode))
	result.ActionsMatch = compare(result, "Actions hash", actionsHash, receipt.ActionsHash)

	return result, nil
}

func compare(result *ReceiptValidationResult, name, computed, attested string) bool {
	if computed != attested {
		result.ValidationDetails = append(result.ValidationDetails,
			fmt.Sprintf("%s mismatch: computed %s, attested %s", name, computed, attested))
		return false
	}
	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("%s matches attestation", name))
	return true
}
