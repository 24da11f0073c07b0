package proof

import (
	"errors"
	"strconv"

	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the error codespace for payload and receipt failures.
const ModuleName = "proof"

// Per-request failures. None of them is fatal to the dispatch loop; they all
// resolve to a rejected request.
var (
	ErrMalformedHex       = errorsmod.Register(ModuleName, 2, "malformed hex payload")
	ErrPayloadTooSmall    = errorsmod.Register(ModuleName, 3, "payload too small to contain receipt and program identity")
	ErrDeserialization    = errorsmod.Register(ModuleName, 4, "failed to deserialize receipt")
	ErrIdentityMismatch   = errorsmod.Register(ModuleName, 5, "receipt was produced for a different program")
	ErrVerificationFailed = errorsmod.Register(ModuleName, 6, "receipt verification failed")
)

// Reason returns a stable "codespace/code" label for the first registered
// error in err's chain, or "undefined" when there is none.
func Reason(err error) string {
	var coded *errorsmod.Error
	if !errors.As(err, &coded) {
		return "undefined"
	}
	return coded.Codespace() + "/" + strconv.FormatUint(uint64(coded.ABCICode()), 10)
}
