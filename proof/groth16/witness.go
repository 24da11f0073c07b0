package groth16

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/witness"
)

// PublicWitness should match the public outputs of the eligibility circuit.
type PublicWitness struct {
	// Verdict is the committed eligibility verdict (the journal).
	Verdict bool
}

func (p PublicWitness) Generate() (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	values := make(chan any, 1)

	// Convert Verdict to field element
	var verdict uint64
	if p.Verdict {
		verdict = 1
	}
	values <- verdict

	close(values)

	err = w.Fill(1, 0, values)
	if err != nil {
		return nil, fmt.Errorf("failed to fill witness: %w", err)
	}

	return w, nil
}
