package eligibility

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(divModHint, borrowHint)
}

// divModHint outputs the quotient and remainder of inputs[0] / inputs[1].
func divModHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 2 || len(outputs) != 2 {
		return errors.New("divmod hint expects 2 inputs and 2 outputs")
	}
	if inputs[1].Sign() == 0 {
		return errors.New("divmod hint: division by zero")
	}
	outputs[0].QuoRem(inputs[0], inputs[1], outputs[1])
	return nil
}

// borrowHint outputs 1 when inputs[0] < inputs[1] and 0 otherwise.
func borrowHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 2 || len(outputs) != 1 {
		return errors.New("borrow hint expects 2 inputs and 1 output")
	}
	if inputs[0].Cmp(inputs[1]) < 0 {
		outputs[0].SetUint64(1)
	} else {
		outputs[0].SetUint64(0)
	}
	return nil
}
