package groth16

import (
	"bytes"
	"fmt"

	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

// Verifier checks receipts against registered verifying keys. Keys are
// indexed by the program identity derived from them.
type Verifier struct {
	keys map[proof.ProgramID]groth16.VerifyingKey
}

// NewVerifier returns a Verifier with vks registered.
func NewVerifier(vks ...groth16.VerifyingKey) (*Verifier, error) {
	v := &Verifier{keys: make(map[proof.ProgramID]groth16.VerifyingKey)}
	for _, vk := range vks {
		if _, err := v.Register(vk); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register adds vk and returns the program identity it verifies.
func (v *Verifier) Register(vk groth16.VerifyingKey) (proof.ProgramID, error) {
	id, err := ProgramIDOf(vk)
	if err != nil {
		return proof.ProgramID{}, err
	}
	v.keys[id] = vk
	return id, nil
}

// Verify checks that receipt is a valid proof of the program identified by
// id and that its journal is the value the proof commits to.
func (v *Verifier) Verify(receipt *proof.Receipt, id proof.ProgramID) error {
	vk, ok := v.keys[id]
	if !ok {
		return fmt.Errorf("no verifying key registered for program %s", id)
	}

	verdict, err := receipt.Verdict()
	if err != nil {
		return fmt.Errorf("failed to decode journal: %w", err)
	}

	w, err := PublicWitness{Verdict: verdict}.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate public witness: %w", err)
	}

	pr := groth16.NewProof(ecc.BN254)
	if _, err := pr.ReadFrom(bytes.NewReader(receipt.Seal)); err != nil {
		return fmt.Errorf("failed to read proof: %w", err)
	}

	if err := groth16.Verify(pr, vk, w); err != nil {
		return fmt.Errorf("failed to verify proof: %w", err)
	}
	return nil
}
