package rollup

import (
	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the error codespace of the dispatch loop.
const ModuleName = "rollup"

var (
	// request-shape failures, resolved to a rejected request
	ErrMissingField   = errorsmod.Register(ModuleName, 2, "missing request field")
	ErrMissingPayload = errorsmod.Register(ModuleName, 3, "missing payload")

	// fatal to the loop
	ErrTransport        = errorsmod.Register(ModuleName, 4, "coordinator transport error")
	ErrMalformedRequest = errorsmod.Register(ModuleName, 5, "malformed coordinator response")
)
