package validation

import (
	"fmt"

	"github.com/cloudx-io/nftauction/auctionapi"
)

// NewTrust trusts the AWS Nitro root CA and the host builds measured in the PCR file at pcrPath.
func NewTrust(pcrPath string) (Trust, error) {
	roots, err := NitroRootPool()
	if err != nil {
		return Trust{}, err
	}
	pcrSets, err := LoadHostMeasurements(pcrPath)
	if err != nil {
		return Trust{}, fmt.Errorf("failed to load host measurements: %w", err)
	}
	return Trust{Roots: roots, PCRSets: pcrSets}, nil
}

// validateCommonAttestation checks PCRs, the certificate chain and the signature.
// It returns the results together with the raw user data of the attestation.
func validateCommonAttestation(attestationCOSEBase64 auctionapi.AttestationCOSEBase64, trust Trust) (*BaseValidationResult, []byte, error) {
	coseBytes, err := attestationCOSEBase64.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("decode COSE bytes: %w", err)
	}

	attestationDoc, userData, err := coseBytes.ParseAttestationDoc()
	if err != nil {
		return nil, nil, fmt.Errorf("parse attestation document: %w", err)
	}

	result := &BaseValidationResult{
		ValidationDetails: []string{},
	}

	// Validate PCRs
	matched, pcrMatch := MatchHostMeasurements(attestationDoc.PCRs, trust.PCRSets)
	result.PCRsValid = pcrMatch
	if !pcrMatch {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("PCR0: %s (no match)", attestationDoc.PCRs.ImageFileHash))
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("PCR1: %s (no match)", attestationDoc.PCRs.KernelHash))
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("PCR2: %s (no match)", attestationDoc.PCRs.ApplicationHash))
	} else {
		result.ValidationDetails = append(result.ValidationDetails, "PCR measurements valid")
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt signed by host build %s", matched.CommitHash))
	}

	// Validate certificate chain at the attestation timestamp
	if attestationDoc.Certificate == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Missing certificate")
	} else if len(attestationDoc.CABundle) == 0 {
		result.ValidationDetails = append(result.ValidationDetails, "Missing CA bundle")
	} else {
		err = ValidateCertificateChain(attestationDoc.Certificate, attestationDoc.CABundle, attestationDoc.Timestamp, trust.Roots)
		if err != nil {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Certificate chain validation failed: %v", err))
		} else {
			result.CertificateValid = true
			result.ValidationDetails = append(result.ValidationDetails, "Certificate chain verified")
		}
	}

	// Verify COSE signature
	err = VerifyCOSESignature(coseBytes, attestationDoc.Certificate)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("COSE signature verification failed: %v", err))
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")
	}

	return result, userData, nil
}
