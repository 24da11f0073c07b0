package eligibility

import (
	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the error codespace of the eligibility predicate.
const ModuleName = "eligibility"

var (
	ErrBelowMinimumAge = errorsmod.Register(ModuleName, 2, "holder is below the minimum age")
	ErrTimestampRange  = errorsmod.Register(ModuleName, 3, "timestamp out of range")
)
