package eligibility

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// timestampBits bounds both timestamps to unsigned 64-bit values.
const timestampBits = 64

// wordModulus is 2^64, used to emulate unsigned 64-bit wrap around.
var wordModulus = new(big.Int).Lsh(big.NewInt(1), timestampBits)

// Circuit proves that the holder of Birthdate is at least MinimumAge years old
// at Current. Only the verdict is public; both timestamps stay secret.
type Circuit struct {
	// Private inputs
	Birthdate frontend.Variable
	Current   frontend.Variable

	// Public output (the journal), always 1 for a valid proof
	Verdict frontend.Variable `gnark:",public"`
}

// Define encodes Age and the MinimumAge check as constraints. Every division
// is a hinted quotient and remainder that is range checked and recombined.
func (c *Circuit) Define(api frontend.API) error {
	api.ToBinary(c.Birthdate, timestampBits)
	api.ToBinary(c.Current, timestampBits)

	// elapsed = current - birthdate, saturating at zero
	later := api.IsZero(api.Sub(api.Cmp(c.Current, c.Birthdate), 1))
	elapsed := api.Select(later, api.Sub(c.Current, c.Birthdate), 0)

	age, _, err := divMod(api, elapsed, SecondsPerYear)
	if err != nil {
		return err
	}

	birthDay, err := dayOfYear(api, c.Birthdate)
	if err != nil {
		return err
	}
	currentDay, err := dayOfYear(api, c.Current)
	if err != nil {
		return err
	}

	// birthday not reached yet this year: age -= 1 unless age is already zero
	before := api.IsZero(api.Add(api.Cmp(currentDay, birthDay), 1))
	positive := api.Sub(1, api.IsZero(age))
	age = api.Sub(age, api.Mul(before, positive))

	tooYoung := api.IsZero(api.Add(api.Cmp(age, MinimumAge), 1))
	api.AssertIsEqual(tooYoung, 0)

	api.AssertIsEqual(c.Verdict, 1)
	return nil
}

// dayOfYear mirrors DayOfYear, including the unsigned wrap of the final
// subtraction.
func dayOfYear(api frontend.API, timestamp frontend.Variable) (frontend.Variable, error) {
	days, _, err := divMod(api, timestamp, SecondsPerDay)
	if err != nil {
		return nil, err
	}
	years, _, err := divMod(api, days, DaysPerYear)
	if err != nil {
		return nil, err
	}

	// leap years in [EpochYear, EpochYear+years)
	last := api.Add(years, EpochYear-1)
	by4, _, err := divMod(api, last, 4)
	if err != nil {
		return nil, err
	}
	by100, _, err := divMod(api, last, 100)
	if err != nil {
		return nil, err
	}
	by400, _, err := divMod(api, last, 400)
	if err != nil {
		return nil, err
	}
	leaps := api.Sub(api.Add(api.Sub(by4, by100), by400), leapsBeforeEpoch)

	startDays := api.Add(api.Mul(years, DaysPerYear), leaps)
	start := api.Mul(startDays, SecondsPerDay)

	borrow, err := api.Compiler().NewHint(borrowHint, 1, timestamp, start)
	if err != nil {
		return nil, err
	}
	api.AssertIsBoolean(borrow[0])
	offset := api.Add(api.Sub(timestamp, start), api.Mul(borrow[0], wordModulus))
	api.ToBinary(offset, timestampBits)

	day, _, err := divMod(api, offset, SecondsPerDay)
	if err != nil {
		return nil, err
	}
	return api.Add(day, 1), nil
}

// divMod returns q, r with a = q*divisor + r, r < divisor and q < 2^64.
func divMod(api frontend.API, a frontend.Variable, divisor uint64) (frontend.Variable, frontend.Variable, error) {
	res, err := api.Compiler().NewHint(divModHint, 2, a, divisor)
	if err != nil {
		return nil, nil, err
	}
	q, r := res[0], res[1]
	api.ToBinary(q, timestampBits)
	api.AssertIsLessOrEqual(r, divisor-1)
	api.AssertIsEqual(a, api.Add(api.Mul(q, divisor), r))
	return q, r, nil
}

// Compile builds the R1CS of the eligibility circuit over BN254.
func Compile() (constraint.ConstraintSystem, error) {
	var circuit Circuit
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

// NewAssignment returns the full witness assignment for a predicate instance.
func NewAssignment(birthdate, current uint64) *Circuit {
	return &Circuit{
		Birthdate: birthdate,
		Current:   current,
		Verdict:   1,
	}
}
