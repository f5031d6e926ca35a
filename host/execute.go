package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/core"
	"github.com/cloudx-io/nftauction/protocol"
)

// ProcessInit builds the initial data cell for an auction configuration.
func ProcessInit(req auctionapi.InitRequest) auctionapi.InitResponse {
	fail := func(format string, args ...any) auctionapi.InitResponse {
		msg := fmt.Sprintf(format, args...)
		log.Printf("ERROR: Init failed: %s", msg)
		return auctionapi.InitResponse{Type: auctionapi.TypeInitResponse, Success: false, Message: msg}
	}

	cfg, err := req.Config.ToConfig()
	if err != nil {
		return fail("Invalid config: %v", err)
	}
	state, err := core.NewAuctionState(cfg)
	if err != nil {
		return fail("Invalid config: %v", err)
	}
	c, err := auctionapi.EncodeState(state)
	if err != nil {
		return fail("Failed to encode state: %v", err)
	}

	return auctionapi.InitResponse{
		Type:     auctionapi.TypeInitResponse,
		Success:  true,
		Message:  "Initial data built",
		StateBOC: auctionapi.EncodeBOC(c),
	}
}

// ProcessState decodes a data cell into its readable view.
func ProcessState(req auctionapi.StateRequest) auctionapi.StateResponse {
	fail := func(format string, args ...any) auctionapi.StateResponse {
		msg := fmt.Sprintf(format, args...)
		log.Printf("ERROR: State request failed: %s", msg)
		return auctionapi.StateResponse{Type: auctionapi.TypeStateResponse, Success: false, Message: msg}
	}

	c, err := auctionapi.DecodeBOC(req.StateBOC)
	if err != nil {
		return fail("Invalid state_boc: %v", err)
	}
	state, err := auctionapi.DecodeState(c)
	if err != nil {
		return fail("Failed to decode state: %v", err)
	}

	view := auctionapi.NewStateView(state)
	return auctionapi.StateResponse{
		Type:    auctionapi.TypeStateResponse,
		Success: true,
		Message: fmt.Sprintf("Auction is %s", view.Phase),
		State:   &view,
	}
}

// ProcessExecution runs one inbound message and attests the resulting receipt.
func ProcessExecution(attester EnclaveAttester, fees core.Fees, req auctionapi.ExecuteRequest) auctionapi.ExecuteResponse {
	startTime := time.Now()

	fail := func(format string, args ...any) auctionapi.ExecuteResponse {
		msg := fmt.Sprintf(format, args...)
		log.Printf("ERROR: Execution failed: %s", msg)
		return auctionapi.ExecuteResponse{
			Type:           auctionapi.TypeExecuteResponse,
			Success:        false,
			Message:        msg,
			ProcessingTime: time.Since(startTime).Milliseconds(),
		}
	}

	// Step 1: Decode request cells and addresses
	stateCell, err := auctionapi.DecodeBOC(req.StateBOC)
	if err != nil {
		return fail("Invalid state_boc: %v", err)
	}
	sender, err := auctionapi.ParseAddress(req.Message.Sender)
	if err != nil {
		return fail("Invalid sender: %v", err)
	}
	body, err := auctionapi.DecodeBOC(req.Message.BodyBOC)
	if err != nil {
		return fail("Invalid body_boc: %v", err)
	}
	if _, err := auctionapi.AmountToNano(req.Message.Value); err != nil {
		return fail("Invalid value: %v", err)
	}
	messageHash, err := req.Message.Hash(req.Now)
	if err != nil {
		return fail("Invalid message: %v", err)
	}

	// Step 2: Execute the transaction
	outcome, err := protocol.Execute(fees, stateCell, protocol.Inbound{
		Sender:  sender,
		Value:   req.Message.Value,
		Bounced: req.Message.Bounced,
		Body:    body,
		Now:     req.Now,
	})
	if err != nil {
		return fail("Execution aborted: %v", err)
	}

	// Step 3: Build and attest the receipt
	transactionID := uuid.NewString()
	receipt := auctionapi.ExecutionReceipt{
		TransactionID:   transactionID,
		StateHashBefore: auctionapi.StateHash(stateCell),
		StateHashAfter:  auctionapi.StateHash(outcome.State),
		MessageHash:     messageHash,
		ExitCode:        int(outcome.ExitCode),
		ActionsHash:     auctionapi.ActionsHash(outcome.Actions),
		Timestamp:       startTime.UnixMilli(),
	}

	attestation, err := GenerateReceiptAttestation(attester, receipt)
	processingTime := time.Since(startTime).Milliseconds()
	if err != nil {
		log.Printf("ERROR: TEE attestation failed: %v", err)
		return fail("Enclave processing failed: %v", err)
	}

	log.Printf("INFO: Transaction %s complete: %s exit=%d actions=%d processing=%dms",
		transactionID, outcome.Kind, int(outcome.ExitCode), len(outcome.Actions), processingTime)

	actions := make([]auctionapi.ActionJSON, 0, len(outcome.Actions))
	for _, a := range outcome.Actions {
		actions = append(actions, auctionapi.NewActionJSON(a))
	}

	message := fmt.Sprintf("Executed %s", outcome.Kind)
	if !outcome.Accepted() {
		message = fmt.Sprintf("Rejected %s: %s", outcome.Kind, outcome.ExitCode)
	}

	return auctionapi.ExecuteResponse{
		Type:                  auctionapi.TypeExecuteResponse,
		Success:               true,
		Message:               message,
		TransactionID:         transactionID,
		ExitCode:              int(outcome.ExitCode),
		StateBOC:              auctionapi.EncodeBOC(outcome.State),
		Actions:               actions,
		AttestationCOSEBase64: attestation.EncodeBase64(),
		ProcessingTime:        processingTime,
	}
}
