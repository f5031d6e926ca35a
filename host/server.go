package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"
	"github.com/mdlayher/vsock"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/core"
)

// HostServer executes auction transactions received over vsock.
type HostServer struct {
	port uint32
	fees core.Fees

	// newAttester returns the attester used to sign receipts
	newAttester func() (EnclaveAttester, error)
}

func NewHostServer(port uint32, fees core.Fees) *HostServer {
	return &HostServer{
		port:        port,
		fees:        fees,
		newAttester: getEnclaveAttester,
	}
}

// getEnclaveAttester attempts to get the NSM attester, returns error if not available
func getEnclaveAttester() (EnclaveAttester, error) {
	handle, err := enclave.GetOrInitializeHandle()
	if err != nil {
		return nil, fmt.Errorf("NSM not available: %w", err)
	}
	return handle, nil
}

func (s *HostServer) Start() error {
	listener, err := vsock.Listen(s.port, nil)
	if err != nil {
		return fmt.Errorf("failed to create vsock listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	log.Printf("INFO: Auction host listening on vsock port %d", s.port)

	maxWorkers, err := getRequiredEnvInt("HOST_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept vsock connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }()
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *HostServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, conn); err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	response, requestType := s.handleRequest(buf.Bytes())

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	} else {
		log.Printf("INFO: Successfully sent response for %s", requestType)
	}
}

// handleRequest dispatches one raw JSON request on its "type" field.
func (s *HostServer) handleRequest(raw []byte) (any, string) {
	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return errorResponse("Failed to decode request: %v", err), ""
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	switch baseReq.Type {
	case auctionapi.TypePing:
		log.Printf("INFO: Responding to ping with pong")
		return map[string]any{
			"type":      auctionapi.TypePong,
			"message":   "Auction host is healthy",
			"timestamp": time.Now().Unix(),
		}, baseReq.Type

	case auctionapi.TypeInitRequest:
		var req auctionapi.InitRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("ERROR: Failed to decode init request: %v", err)
			return errorResponse("Failed to decode init request: %v", err), baseReq.Type
		}
		return ProcessInit(req), baseReq.Type

	case auctionapi.TypeStateRequest:
		var req auctionapi.StateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("ERROR: Failed to decode state request: %v", err)
			return errorResponse("Failed to decode state request: %v", err), baseReq.Type
		}
		return ProcessState(req), baseReq.Type

	case auctionapi.TypeExecuteRequest:
		var req auctionapi.ExecuteRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("ERROR: Failed to decode execute request: %v", err)
			return errorResponse("Failed to decode execute request: %v", err), baseReq.Type
		}
		attester, err := s.newAttester()
		if err != nil {
			log.Printf("ERROR: Execution failed: %v", err)
			return errorResponse("Failed to initialize TEE attester: %v", err), baseReq.Type
		}
		return ProcessExecution(attester, s.fees, req), baseReq.Type

	default:
		return errorResponse("Unknown request type: %s", baseReq.Type), baseReq.Type
	}
}

func errorResponse(format string, args ...any) map[string]any {
	return map[string]any{
		"type":    auctionapi.TypeError,
		"message": fmt.Sprintf(format, args...),
	}
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}
	if intValue <= 0 {
		return 0, fmt.Errorf("invalid value for %s: %d (must be positive)", key, intValue)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

// getOptionalEnvDecimal returns fallback when key is unset.
func getOptionalEnvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s: %s (must be a number of nanotons)", key, value)
	}

	log.Printf("INFO: Using %s=%s from environment", key, d)
	return d, nil
}

// loadFees reads the fee schedule, defaulting to core.DefaultFees.
func loadFees() (core.Fees, error) {
	fees := core.DefaultFees()

	var err error
	fees.ProcessingFee, err = getOptionalEnvDecimal("AUCTION_PROCESSING_FEE", fees.ProcessingFee)
	if err != nil {
		return core.Fees{}, err
	}
	fees.MinStorageFee, err = getOptionalEnvDecimal("AUCTION_MIN_STORAGE_FEE", fees.MinStorageFee)
	if err != nil {
		return core.Fees{}, err
	}
	if err := fees.Validate(); err != nil {
		return core.Fees{}, fmt.Errorf("invalid fee schedule: %w", err)
	}
	return fees, nil
}

func main() {
	fees, err := loadFees()
	if err != nil {
		log.Fatal(err)
	}
	server := NewHostServer(5000, fees)
	log.Fatal(server.Start())
}
