package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/core"
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:], os.Stdout)
	case "inspect":
		err = runInspect(os.Args[2:], os.Stdout)
	case "deploy":
		err = runDeploy(os.Args[2:], os.Stdout)
	case "help", "--help", "-h":
		showUsage()
		return
	default:
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func showUsage() {
	fmt.Println("Auction Data Tool")
	fmt.Println()
	fmt.Println("Builds and inspects the persistent data cell of an NFT auction.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  auction-data init --config <json>")
	fmt.Println("  auction-data inspect --state <boc>")
	fmt.Println("  auction-data deploy --config <json> --code <boc> --amount <nanotons> [--workchain 0]")
	fmt.Println()
	fmt.Println("Each JSON or BOC flag accepts either a file path or an inline value.")
	fmt.Println("BOCs are base64 bags of cells.")
}

// readInput returns the file contents when input names a file, otherwise input itself.
func readInput(input string) []byte {
	if data, err := os.ReadFile(input); err == nil {
		return data
	}
	return []byte(input)
}

func loadConfig(input string) (core.AuctionConfig, error) {
	var cfgJSON auctionapi.AuctionConfigJSON
	if err := json.Unmarshal(readInput(input), &cfgJSON); err != nil {
		return core.AuctionConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfgJSON.ToConfig()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runInit(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configInput := fs.String("config", "", "Auction config JSON (file path or inline JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configInput == "" {
		return fmt.Errorf("--config is required")
	}

	cfg, err := loadConfig(*configInput)
	if err != nil {
		return err
	}
	state, err := core.NewAuctionState(cfg)
	if err != nil {
		return err
	}
	data, err := auctionapi.EncodeState(state)
	if err != nil {
		return err
	}

	return writeJSON(out, map[string]any{
		"state_boc":  auctionapi.EncodeBOC(data),
		"state_hash": auctionapi.StateHash(data),
	})
}

func runInspect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	stateInput := fs.String("state", "", "State BOC (file path or inline base64)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stateInput == "" {
		return fmt.Errorf("--state is required")
	}

	data, err := auctionapi.DecodeBOC(string(readInput(*stateInput)))
	if err != nil {
		return err
	}
	state, err := auctionapi.DecodeState(data)
	if err != nil {
		return err
	}
	return writeJSON(out, auctionapi.NewStateView(state))
}

// runDeploy prints the contract address and the marketplace deploy body for a config.
func runDeploy(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("deploy", flag.ContinueOnError)
	configInput := fs.String("config", "", "Auction config JSON (file path or inline JSON)")
	codeInput := fs.String("code", "", "Auction contract code BOC (file path or inline base64)")
	amountInput := fs.String("amount", "0", "Value forwarded to the new contract, in nanotons")
	workchain := fs.Int("workchain", 0, "Workchain of the new contract")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configInput == "" || *codeInput == "" {
		return fmt.Errorf("--config and --code are required")
	}

	cfg, err := loadConfig(*configInput)
	if err != nil {
		return err
	}
	state, err := core.NewAuctionState(cfg)
	if err != nil {
		return err
	}
	data, err := auctionapi.EncodeState(state)
	if err != nil {
		return err
	}
	code, err := auctionapi.DecodeBOC(string(readInput(*codeInput)))
	if err != nil {
		return fmt.Errorf("code: %w", err)
	}
	if code == nil {
		return fmt.Errorf("code: empty")
	}
	amount, err := decimal.NewFromString(*amountInput)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	addr, err := auctionapi.ContractAddress(int32(*workchain), code, data)
	if err != nil {
		return err
	}
	body, err := auctionapi.BuildDeploySaleBody(amount, code, data)
	if err != nil {
		return err
	}

	return writeJSON(out, map[string]any{
		"address":   auctionapi.FormatAddress(addr),
		"state_boc": auctionapi.EncodeBOC(data),
		"body_boc":  auctionapi.EncodeBOC(body),
	})
}
