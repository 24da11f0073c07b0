package groth16

import (
	"bytes"
	"fmt"

	"github.com/celestiaorg/zk-age-rollup/eligibility"
	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Prover runs the eligibility predicate inside the attested environment and
// produces receipts bound to its program identity.
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	id  proof.ProgramID
}

// NewProver compiles the eligibility circuit for keys.
func NewProver(keys *Keys) (*Prover, error) {
	ccs, err := eligibility.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile eligibility circuit: %w", err)
	}
	id, err := keys.ProgramID()
	if err != nil {
		return nil, err
	}
	return &Prover{ccs: ccs, pk: keys.ProvingKey, id: id}, nil
}

// ProgramID returns the identity receipts from p are bound to.
func (p *Prover) ProgramID() proof.ProgramID {
	return p.id
}

// Attest proves the eligibility predicate for the given timestamps. When the
// holder is below the minimum age no receipt is produced.
func (p *Prover) Attest(birthdate, current uint64) (*proof.Receipt, error) {
	if _, err := eligibility.Evaluate(birthdate, current); err != nil {
		return nil, err
	}

	w, err := frontend.NewWitness(eligibility.NewAssignment(birthdate, current), ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to construct witness: %w", err)
	}
	pr, err := groth16.Prove(p.ccs, p.pk, w)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof: %w", err)
	}

	var seal bytes.Buffer
	if _, err := pr.WriteTo(&seal); err != nil {
		return nil, fmt.Errorf("failed to write proof: %w", err)
	}
	return proof.NewReceipt(seal.Bytes(), true), nil
}

// AttestPayload is Attest followed by payload encoding.
func (p *Prover) AttestPayload(birthdate, current uint64) (string, error) {
	receipt, err := p.Attest(birthdate, current)
	if err != nil {
		return "", err
	}
	b, err := receipt.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt: %w", err)
	}
	return proof.EncodePayload(b, p.id), nil
}
