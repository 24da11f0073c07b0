package proof

import (
	"encoding/binary"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/rlp"
)

// journalSize is the size of a committed verdict: one little-endian word.
const journalSize = 4

// Receipt binds a journal (the public output of the attested program) to a
// seal proving correct execution of that program.
type Receipt struct {
	// Seal is the serialized proof of execution.
	Seal []byte
	// Journal is the committed public output.
	Journal []byte
}

// NewReceipt returns a receipt committing verdict under seal.
func NewReceipt(seal []byte, verdict bool) *Receipt {
	return &Receipt{
		Seal:    seal,
		Journal: EncodeVerdict(verdict),
	}
}

// Marshal returns the RLP encoding of r.
func (r *Receipt) Marshal() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// UnmarshalReceipt decodes an RLP encoded receipt. Malformed input, including
// trailing bytes, is reported as ErrDeserialization.
func UnmarshalReceipt(b []byte) (*Receipt, error) {
	var r Receipt
	if err := rlp.DecodeBytes(b, &r); err != nil {
		return nil, errorsmod.Wrap(ErrDeserialization, err.Error())
	}
	if len(r.Seal) == 0 {
		return nil, errorsmod.Wrap(ErrDeserialization, "empty seal")
	}
	return &r, nil
}

// Verdict decodes the journal as an eligibility verdict.
func (r *Receipt) Verdict() (bool, error) {
	return DecodeVerdict(r.Journal)
}

// EncodeVerdict encodes a verdict as a single little-endian 32-bit word.
func EncodeVerdict(verdict bool) []byte {
	b := make([]byte, journalSize)
	if verdict {
		binary.LittleEndian.PutUint32(b, 1)
	}
	return b
}

// DecodeVerdict is the inverse of EncodeVerdict.
func DecodeVerdict(journal []byte) (bool, error) {
	if len(journal) != journalSize {
		return false, fmt.Errorf("journal must be %d bytes, got %d", journalSize, len(journal))
	}
	switch binary.LittleEndian.Uint32(journal) {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("journal word %#x is not a boolean", journal)
	}
}
