package core

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ComputeMessageHash computes the inbound message hash recorded on execution receipts.
// This is used by both the execution host (to generate hashes) and validation (to verify hashes).
//
// Formula: SHA256(sender + "|" + value + "|" + bounced + "|" + body_hash + "|" + now)
//
// The sender is the raw "workchain:hex" form, value is a whole number of nanotons
// and body_hash is the hex cell hash of the body ("" for an empty body).
func ComputeMessageHash(sender string, value decimal.Decimal, bounced bool, bodyHash string, now uint64) string {
	data := fmt.Sprintf("%s|%s|%t|%s|%d", sender, value.StringFixed(0), bounced, strings.ToLower(bodyHash), now)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeActionsHash computes the hash of an ordered list of outbound actions.
//
// Formula: SHA256(action_1 + "|" + action_2 + ...)
//
// Each action is given in its canonical text form. Order is significant, and an
// empty list hashes the empty string.
func ComputeActionsHash(actions []string) string {
	hash := sha256.Sum256([]byte(strings.Join(actions, "|")))
	return fmt.Sprintf("%x", hash)
}
