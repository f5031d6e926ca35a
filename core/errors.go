package core

import (
	"errors"
	"fmt"
)

// ExitCode is the numeric result surfaced to the calling transaction.
type ExitCode int

const (
	ExitOK                   ExitCode = 0
	ExitCellUnderflow        ExitCode = 9
	ExitWrongDeployer        ExitCode = 100
	ExitNotInCustody         ExitCode = 101
	ExitWrongNFTSender       ExitCode = 102
	ExitBidNotHigher         ExitCode = 103
	ExitBidBelowMinimum      ExitCode = 104
	ExitAcceptWithoutBid     ExitCode = 105
	ExitAcceptFromNonOwner   ExitCode = 106
	ExitAcceptTooEarly       ExitCode = 107
	ExitCancelFromNonOwner   ExitCode = 108
	ExitCancelAfterFinish    ExitCode = 109
	ExitAlreadySettled       ExitCode = 110
	ExitInsufficientValue    ExitCode = 111
	ExitOwnerAlreadyAssigned ExitCode = 112
)

var exitCodeNames = map[ExitCode]string{
	ExitOK:                   "ok",
	ExitCellUnderflow:        "malformed message body",
	ExitWrongDeployer:        "deploy not sent by marketplace",
	ExitNotInCustody:         "nft not yet in custody",
	ExitWrongNFTSender:       "ownership assignment not sent by nft",
	ExitBidNotHigher:         "bid not higher than current bid",
	ExitBidBelowMinimum:      "bid below minimum",
	ExitAcceptWithoutBid:     "accept with no bid",
	ExitAcceptFromNonOwner:   "accept from non-owner",
	ExitAcceptTooEarly:       "accept before time gate",
	ExitCancelFromNonOwner:   "cancel from non-owner",
	ExitCancelAfterFinish:    "cancel after finish with bid",
	ExitAlreadySettled:       "auction already settled",
	ExitInsufficientValue:    "attached value below processing fee",
	ExitOwnerAlreadyAssigned: "owner already assigned",
}

func (c ExitCode) String() string {
	if name, ok := exitCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("exit code %d", int(c))
}

// RejectError is returned when the auction refuses a message. The state is left
// unchanged and no effects are emitted.
type RejectError struct {
	Code ExitCode
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("rejected with exit code %d: %s", int(e.Code), e.Code)
}

func reject(code ExitCode) error {
	return &RejectError{Code: code}
}

// ExitCodeOf extracts the exit code from a rejection. It returns ExitOK for nil
// and false for errors that are not rejections.
func ExitCodeOf(err error) (ExitCode, bool) {
	if err == nil {
		return ExitOK, true
	}
	var rejectErr *RejectError
	if errors.As(err, &rejectErr) {
		return rejectErr.Code, true
	}
	return 0, false
}
