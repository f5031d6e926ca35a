package validation

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cloudx-io/nftauction/auctionapi"
)

// Nitro PCRs are SHA-384 digests.
const pcrHexLen = 96

// DefaultHostPCRsPath returns the path of the host measurements shipped next to this package.
func DefaultHostPCRsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "pcrs.json")
}

// LoadHostMeasurements reads the PCR sets of the receipt host builds allowed to sign receipts.
//
// Every set must name the host build it was measured from, and carry three SHA-384
// digests. Digests are normalized to lower case. A build listed twice is rejected.
func LoadHostMeasurements(path string) ([]PCRSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host measurements: %w", err)
	}

	var config PCRConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse host measurements: %w", err)
	}
	if len(config.PCRSets) == 0 {
		return nil, fmt.Errorf("no host measurements in %s", path)
	}

	builds := make(map[string]bool, len(config.PCRSets))
	sets := make([]PCRSet, 0, len(config.PCRSets))
	for i, set := range config.PCRSets {
		if set.CommitHash == "" {
			return nil, fmt.Errorf("pcr set %d: host build commit is required", i)
		}
		if builds[set.CommitHash] {
			return nil, fmt.Errorf("pcr set %d: host build %s listed twice", i, set.CommitHash)
		}
		builds[set.CommitHash] = true

		normalized, err := set.normalize()
		if err != nil {
			return nil, fmt.Errorf("pcr set %d (%s): %w", i, set.CommitHash, err)
		}
		sets = append(sets, normalized)
	}
	return sets, nil
}

// MatchHostMeasurements returns the known host build whose PCR0-2 equal the attested ones.
func MatchHostMeasurements(pcrs auctionapi.PCRs, known []PCRSet) (*PCRSet, bool) {
	for i := range known {
		if strings.EqualFold(pcrs.ImageFileHash, known[i].PCR0) &&
			strings.EqualFold(pcrs.KernelHash, known[i].PCR1) &&
			strings.EqualFold(pcrs.ApplicationHash, known[i].PCR2) {
			return &known[i], true
		}
	}
	return nil, false
}

func (s PCRSet) normalize() (PCRSet, error) {
	out := s
	for _, pcr := range []struct {
		name string
		dst  *string
	}{
		{"pcr0", &out.PCR0},
		{"pcr1", &out.PCR1},
		{"pcr2", &out.PCR2},
	} {
		v := strings.ToLower(strings.TrimSpace(*pcr.dst))
		if len(v) != pcrHexLen {
			return PCRSet{}, fmt.Errorf("%s must be %d hex characters, got %d", pcr.name, pcrHexLen, len(v))
		}
		if _, err := hex.DecodeString(v); err != nil {
			return PCRSet{}, fmt.Errorf("%s is not hex: %w", pcr.name, err)
		}
		*pcr.dst = v
	}
	return out, nil
}
