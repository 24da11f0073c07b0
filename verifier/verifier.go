// Package verifier is the trust boundary between proof payloads and rollup
// state: a verdict is authoritative only after a receipt has been verified
// against the exact expected program identity.
package verifier

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/rs/zerolog"
)

// EligibilityProgramID identifies the attested eligibility program. It must
// match the identity of the deployed verifying key.
var EligibilityProgramID = proof.ProgramID{
	0x48a22539,
	0x62c92ee4,
	0x3eb929c8,
	0xd930e83d,
	0xe79c784a,
	0xe6df700e,
	0x39566542,
	0xecd80864,
}

// programIDHex pins EligibilityProgramID at link time:
//
//	-ldflags "-X github.com/celestiaorg/zk-age-rollup/verifier.programIDHex=0x..."
var programIDHex string

func init() {
	if programIDHex == "" {
		return
	}
	id, err := proof.ProgramIDFromHex(programIDHex)
	if err != nil {
		panic("invalid linked eligibility program id: " + err.Error())
	}
	EligibilityProgramID = id
}

// Capability verifies a receipt against a program identity. It is the
// cryptographic engine the ReceiptVerifier delegates to.
type Capability interface {
	Verify(receipt *proof.Receipt, id proof.ProgramID) error
}

// ReceiptVerifier validates proof payloads against a fixed program identity.
type ReceiptVerifier struct {
	expected   proof.ProgramID
	capability Capability
	logger     zerolog.Logger
}

// New returns a ReceiptVerifier accepting only receipts of expected.
func New(expected proof.ProgramID, capability Capability, logger zerolog.Logger) *ReceiptVerifier {
	return &ReceiptVerifier{
		expected:   expected,
		capability: capability,
		logger:     logger.With().Str("module", "verifier").Logger(),
	}
}

// Expected returns the program identity v accepts.
func (v *ReceiptVerifier) Expected() proof.ProgramID {
	return v.expected
}

// Verify deserializes and verifies the receipt in payload and returns the
// committed verdict.
//
// When cryptographic verification fails, the identity carried in the payload
// is compared with the expected one to tell a receipt for another program
// (ErrIdentityMismatch) from an invalid proof (ErrVerificationFailed).
func (v *ReceiptVerifier) Verify(payload *proof.Payload) (bool, error) {
	v.logger.Debug().
		Int("receipt_len", len(payload.Receipt)).
		Int("identity_len", len(payload.Identity)).
		Msg("verifying receipt")

	receipt, err := proof.UnmarshalReceipt(payload.Receipt)
	if err != nil {
		return false, err
	}

	if err := v.capability.Verify(receipt, v.expected); err != nil {
		claimed, parseErr := payload.ProgramID()
		if parseErr == nil && claimed != v.expected {
			v.logger.Debug().
				Stringer("claimed", claimed).
				Stringer("expected", v.expected).
				Msg("program identity mismatch")
			return false, errorsmod.Wrapf(proof.ErrIdentityMismatch, "claimed %s, expected %s: %v", claimed, v.expected, err)
		}
		return false, errorsmod.Wrap(proof.ErrVerificationFailed, err.Error())
	}

	verdict, err := receipt.Verdict()
	if err != nil {
		return false, errorsmod.Wrap(proof.ErrDeserialization, err.Error())
	}
	return verdict, nil
}

// VerifyHex decodes a hex payload and verifies it.
func (v *ReceiptVerifier) VerifyHex(s string) (bool, error) {
	payload, err := proof.DecodePayload(s)
	if err != nil {
		return false, err
	}
	return v.Verify(payload)
}
