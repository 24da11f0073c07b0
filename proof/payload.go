package proof

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Payload is a decoded proof payload: receipt bytes followed by the identity
// of the program the receipt claims to come from.
type Payload struct {
	Receipt  []byte
	Identity []byte
}

// DecodePayload decodes the hex wire form "0x"? + hex(receipt ‖ identity[32]).
func DecodePayload(s string) (*Payload, error) {
	raw, err := hexutil.Decode("0x" + strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errorsmod.Wrap(ErrMalformedHex, err.Error())
	}
	if len(raw) <= ProgramIDSize {
		return nil, errorsmod.Wrapf(ErrPayloadTooSmall, "got %d bytes", len(raw))
	}
	split := len(raw) - ProgramIDSize
	return &Payload{
		Receipt:  raw[:split],
		Identity: raw[split:],
	}, nil
}

// EncodePayload returns the 0x-prefixed hex wire form of receipt and id.
func EncodePayload(receipt []byte, id ProgramID) string {
	raw := make([]byte, 0, len(receipt)+ProgramIDSize)
	raw = append(raw, receipt...)
	raw = append(raw, id.Bytes()...)
	return hexutil.Encode(raw)
}

// ProgramID parses the identity carried in the payload.
func (p *Payload) ProgramID() (ProgramID, error) {
	return ParseProgramID(p.Identity)
}

// Len returns the decoded payload length in bytes.
func (p *Payload) Len() int {
	return len(p.Receipt) + len(p.Identity)
}
