package validation

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/nftauction/auctionapi"
	"github.com/cloudx-io/nftauction/auctionapi/parsing"
)

// VerifyCOSESignature verifies the ES384 signature of an attestation against the
// public key of its base64 DER signing certificate.
func VerifyCOSESignature(coseBytes auctionapi.AttestationCOSE, certB64 string) error {
	cert, err := parseCertificateB64(certB64)
	if err != nil {
		return err
	}

	// AWS Nitro returns untagged COSE_Sign1 (4-element array)
	sign1, err := parsing.ParseCOSESign1(coseBytes)
	if err != nil {
		return err
	}

	// AWS Nitro uses ES384 (ECDSA P-384 with SHA-384)
	ecdsaKey, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("certificate public key is not ECDSA")
	}

	sigStructure, err := parsing.SigStructure(sign1.Protected, sign1.Payload)
	if err != nil {
		return err
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, ecdsaKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}

	if err := verifier.Verify(sigStructure, sign1.Signature); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}

	return nil
}
