package groth16

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/celestiaorg/zk-age-rollup/eligibility"
	"github.com/celestiaorg/zk-age-rollup/proof"
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
)

const (
	// ProvingKeyFile is the default file name of the eligibility proving key.
	ProvingKeyFile = "eligibility_pk.bin"
	// VerifyingKeyFile is the default file name of the eligibility verifying key.
	VerifyingKeyFile = "eligibility_vk.bin"
)

// Keys is the key pair produced by a Groth16 setup of the eligibility circuit.
type Keys struct {
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
}

// Setup compiles the eligibility circuit and runs a Groth16 setup for it.
func Setup() (*Keys, error) {
	ccs, err := eligibility.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile eligibility circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}
	return &Keys{ProvingKey: pk, VerifyingKey: vk}, nil
}

// ProgramID returns the identity of the program the keys attest to.
func (k *Keys) ProgramID() (proof.ProgramID, error) {
	return ProgramIDOf(k.VerifyingKey)
}

// WriteTo writes both keys into dir using the default file names.
func (k *Keys) WriteTo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	pk, err := serialize(k.ProvingKey)
	if err != nil {
		return fmt.Errorf("failed to serialize proving key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ProvingKeyFile), pk, 0o600); err != nil {
		return fmt.Errorf("failed to write proving key: %w", err)
	}
	vk, err := SerializeVerifyingKey(k.VerifyingKey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, VerifyingKeyFile), vk, 0o644); err != nil {
		return fmt.Errorf("failed to write verifying key: %w", err)
	}
	return nil
}

// ProgramIDOf derives the program identity from a verifying key.
func ProgramIDOf(vk groth16.VerifyingKey) (proof.ProgramID, error) {
	b, err := SerializeVerifyingKey(vk)
	if err != nil {
		return proof.ProgramID{}, err
	}
	return proof.ProgramIDFromDigest(b), nil
}

func SerializeVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	b, err := serialize(vk)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize verifying key: %w", err)
	}
	return b, nil
}

func DeserializeVerifyingKey(b []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return vk, nil
}

// LoadVerifyingKey reads a verifying key from path.
func LoadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vk file %w", err)
	}
	return DeserializeVerifyingKey(b)
}

// LoadProvingKey reads a proving key from path.
func LoadProvingKey(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pk file %w", err)
	}
	defer f.Close()

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("failed to read pk file %w", err)
	}
	return pk, nil
}

// LoadKeys reads both keys from dir using the default file names.
func LoadKeys(dir string) (*Keys, error) {
	pk, err := LoadProvingKey(filepath.Join(dir, ProvingKeyFile))
	if err != nil {
		return nil, err
	}
	vk, err := LoadVerifyingKey(filepath.Join(dir, VerifyingKeyFile))
	if err != nil {
		return nil, err
	}
	return &Keys{ProvingKey: pk, VerifyingKey: vk}, nil
}

func serialize(v io.WriterTo) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := v.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
