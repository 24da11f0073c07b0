package proof

import (
	"encoding/binary"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/minio/sha256-simd"
)

// ProgramIDSize is the encoded size of a ProgramID in bytes.
const ProgramIDSize = 32

// ProgramID identifies the attested program that produced a receipt. It is
// encoded as eight little-endian 32-bit words.
type ProgramID [8]uint32

// ParseProgramID interprets b as eight little-endian 32-bit words.
func ParseProgramID(b []byte) (ProgramID, error) {
	var id ProgramID
	if len(b) != ProgramIDSize {
		return id, fmt.Errorf("program id must be %d bytes, got %d", ProgramIDSize, len(b))
	}
	for i := range id {
		id[i] = binary.LittleEndian.Uint32(b[i*4 : (i+1)*4])
	}
	return id, nil
}

// ProgramIDFromHex parses a 0x-prefixed hex encoding of a ProgramID.
func ProgramIDFromHex(s string) (ProgramID, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return ProgramID{}, errorsmod.Wrap(ErrMalformedHex, err.Error())
	}
	return ParseProgramID(b)
}

// ProgramIDFromDigest derives the ProgramID of a program from its canonical
// serialized form.
func ProgramIDFromDigest(program []byte) ProgramID {
	sum := sha256.Sum256(program)
	id, _ := ParseProgramID(sum[:])
	return id
}

// Bytes returns the little-endian encoding of id.
func (id ProgramID) Bytes() []byte {
	b := make([]byte, ProgramIDSize)
	for i, word := range id {
		binary.LittleEndian.PutUint32(b[i*4:], word)
	}
	return b
}

// String returns the 0x-prefixed hex encoding of id.
func (id ProgramID) String() string {
	return hexutil.Encode(id.Bytes())
}

// Words formats id as its eight words, the form used to pin it in source.
func (id ProgramID) Words() string {
	return fmt.Sprintf("{%#08x, %#08x, %#08x, %#08x, %#08x, %#08x, %#08x, %#08x}",
		id[0], id[1], id[2], id[3], id[4], id[5], id[6], id[7])
}
