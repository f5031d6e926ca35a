package core

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func TestComputeMessageHash(t *testing.T) {
	sender := "0:ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	value := decimal.NewFromInt(1_500_000_000)
	bodyHash := "ab12"

	hash := ComputeMessageHash(sender, value, false, bodyHash, 42)

	// Verify hash is 64 characters (SHA256 hex encoding)
	check.Equal(t, 64, len(hash))

	// Same inputs should produce same hash (deterministic)
	check.Equal(t, hash, ComputeMessageHash(sender, value, false, bodyHash, 42))

	// Verify exact hash calculation
	expectedData := fmt.Sprintf("%s|1500000000|false|%s|42", sender, bodyHash)
	expectedHash := fmt.Sprintf("%x", sha256.Sum256([]byte(expectedData)))
	check.Equal(t, expectedHash, hash)
}

func TestComputeMessageHash_FieldsMatter(t *testing.T) {
	sender := "0:1111111111111111111111111111111111111111111111111111111111111111"
	value := decimal.NewFromInt(7)
	base := ComputeMessageHash(sender, value, false, "", 10)

	tests := []struct {
		name string
		hash string
	}{
		{"different value", ComputeMessageHash(sender, value.Add(decimal.NewFromInt(1)), false, "", 10)},
		{"bounced flag", ComputeMessageHash(sender, value, true, "", 10)},
		{"different body", ComputeMessageHash(sender, value, false, "00", 10)},
		{"different time", ComputeMessageHash(sender, value, false, "", 11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.True(t, tt.hash != base)
		})
	}
}

func TestComputeMessageHash_Normalization(t *testing.T) {
	sender := "0:1111111111111111111111111111111111111111111111111111111111111111"

	// Trailing zero decimals and hex case must not change the hash
	a := ComputeMessageHash(sender, decimal.RequireFromString("100.000"), false, "ABCD", 1)
	b := ComputeMessageHash(sender, decimal.NewFromInt(100), false, "abcd", 1)
	check.Equal(t, a, b)
}

func TestComputeActionsHash(t *testing.T) {
	actions := []string{"reserve_currency:0:100", "send_msg:128:0:1111:0"}

	hash := ComputeActionsHash(actions)
	check.Equal(t, 64, len(hash))
	check.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(actions[0]+"|"+actions[1]))), hash)

	// Order is significant
	reversed := ComputeActionsHash([]string{actions[1], actions[0]})
	check.True(t, hash != reversed)

	// Empty list hashes the empty string
	check.Equal(t, fmt.Sprintf("%x", sha256.Sum256(nil)), ComputeActionsHash(nil))
}
