package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/validation"
)

func main() {
	var (
		requestInput  = flag.String("request", "", "Execute request JSON (file path or inline JSON)")
		responseInput = flag.String("response", "", "Execute response JSON (file path or inline JSON)")
		pcrsPath      = flag.String("pcrs", validation.DefaultHostPCRsPath(), "Measurements of trusted receipt host builds (JSON)")
		outputFormat  = flag.String("format", "text", "Output format: text or json")
		help          = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *requestInput == "" || *responseInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: Both inputs are required (--request, --response)\n")
		os.Exit(1)
	}

	var req auctionapi.ExecuteRequest
	if err := readJSONInput(*requestInput, &req); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading execute request: %v\n", err)
		os.Exit(2)
	}

	var resp auctionapi.ExecuteResponse
	if err := readJSONInput(*responseInput, &resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading execute response: %v\n", err)
		os.Exit(2)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "Execute response reports failure, nothing to validate: %s\n", resp.Message)
		os.Exit(2)
	}

	trust, err := validation.NewTrust(*pcrsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trust configuration: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateReceiptAttestation(validation.NewReceiptValidationInput(req, resp), trust)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Auction Execution Receipt Validator")
	fmt.Println()
	fmt.Println("Validates the attested receipt of one auction transaction against the request")
	fmt.Println("sent to the execution host and the response it returned.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --request <json> --response <json> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --request <json>                  execute_request sent to the host")
	fmt.Println("  --response <json>                 execute_response returned by the host")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --pcrs <path>                     Trusted host measurements (default: validation/pcrs.json)")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Input Format:")
	fmt.Println("  Each flag accepts either a file path or inline JSON string.")
	fmt.Println()
	fmt.Println("Execute Request:")
	fmt.Println("  {")
	fmt.Println("    \"type\": \"execute_request\",")
	fmt.Println("    \"state_boc\": \"te6cck...\",")
	fmt.Println("    \"message\": {\"sender\": \"0:...\", \"value\": \"1000000000\", \"bounced\": false, \"body_boc\": \"\"},")
	fmt.Println("    \"now\": 1700000000")
	fmt.Println("  }")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readJSONInput(input string, out any) error {
	data := []byte(input)
	// Try reading as file first
	if fileData, err := os.ReadFile(input); err == nil {
		data = fileData
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

func outputText(result *validation.ReceiptValidationResult) {
	fmt.Println("Auction Execution Receipt Validator")
	fmt.Println("===================================")
	fmt.Println()

	if result.Receipt != nil {
		fmt.Println("Receipt:")
		fmt.Printf("  Transaction:             %s\n", result.Receipt.TransactionID)
		fmt.Printf("  Exit Code:               %d\n", result.Receipt.ExitCode)
		fmt.Printf("  Timestamp (ms):          %d\n", result.Receipt.Timestamp)
		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  PCRs Valid:              %v\n", result.PCRsValid)
	fmt.Printf("  Certificate Valid:       %v\n", result.CertificateValid)
	fmt.Printf("  Signature Valid:         %v\n", result.SignatureValid)
	fmt.Printf("  Transaction ID Match:    %v\n", result.TransactionIDMatch)
	fmt.Printf("  State Before Match:      %v\n", result.StateBeforeMatch)
	fmt.Printf("  State After Match:       %v\n", result.StateAfterMatch)
	fmt.Printf("  Message Match:           %v\n", result.MessageMatch)
	fmt.Printf("  Exit Code Match:         %v\n", result.ExitCodeMatch)
	fmt.Printf("  Actions Match:           %v\n", result.ActionsMatch)

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("===================================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
		fmt.Println("Exit Code: 0")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
		fmt.Println("Exit Code: 1")
	}
}

func outputJSON(result *validation.ReceiptValidationResult) {
	output := map[string]any{
		"valid":                result.IsValid(),
		"pcrs_valid":           result.PCRsValid,
		"certificate_valid":    result.CertificateValid,
		"signature_valid":      result.SignatureValid,
		"transaction_id_match": result.TransactionIDMatch,
		"state_before_match":   result.StateBeforeMatch,
		"state_after_match":    result.StateAfterMatch,
		"message_match":        result.MessageMatch,
		"exit_code_match":      result.ExitCodeMatch,
		"actions_match":        result.ActionsMatch,
		"receipt":              result.Receipt,
		"details":              result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
