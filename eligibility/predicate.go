package eligibility

import (
	errorsmod "cosmossdk.io/errors"
)

const (
	// MinimumAge is the age in years a holder must have reached.
	MinimumAge uint64 = 21
	// SecondsPerYear is a fixed 365 day year.
	SecondsPerYear uint64 = 31_536_000
	// SecondsPerDay is the length of a day in seconds.
	SecondsPerDay uint64 = 86_400
	// DaysPerYear is the year length used to approximate the calendar year.
	DaysPerYear uint64 = 365
	// EpochYear is the calendar year of timestamp zero.
	EpochYear uint64 = 1970

	// leapsBeforeEpoch is the number of leap years in [1, EpochYear).
	leapsBeforeEpoch uint64 = (EpochYear-1)/4 - (EpochYear-1)/100 + (EpochYear-1)/400
)

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year uint64) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// YearStartDays returns the number of days between the epoch and January 1st
// of year. Years before the epoch start at day zero.
func YearStartDays(year uint64) uint64 {
	if year <= EpochYear {
		return 0
	}
	return (year-EpochYear)*DaysPerYear + leapsBefore(year)
}

// leapsBefore counts the leap years in [EpochYear, year).
func leapsBefore(year uint64) uint64 {
	last := year - 1
	return last/4 - last/100 + last/400 - leapsBeforeEpoch
}

// DayOfYear returns the 1-based day of year of timestamp.
//
// The calendar year is approximated as EpochYear + days/365, so close to the
// end of a year the approximated year start can lie after timestamp. The
// subtraction then wraps as unsigned 64-bit arithmetic and the result is a
// very large day number. Circuit enforces the same wrap.
func DayOfYear(timestamp uint64) uint64 {
	days := timestamp / SecondsPerDay
	year := EpochYear + days/DaysPerYear
	yearStart := YearStartDays(year) * SecondsPerDay
	return (timestamp-yearStart)/SecondsPerDay + 1
}

// Age returns the age in whole years between birthdate and current. A
// birthdate after current yields zero.
func Age(birthdate, current uint64) uint64 {
	var elapsed uint64
	if current > birthdate {
		elapsed = current - birthdate
	}
	age := elapsed / SecondsPerYear
	if DayOfYear(current) < DayOfYear(birthdate) && age > 0 {
		age--
	}
	return age
}

// Evaluate runs the eligibility predicate. It returns true when the holder is
// at least MinimumAge years old and ErrBelowMinimumAge otherwise. Neither the
// error nor the result carries the birthdate or the computed age.
func Evaluate(birthdate, current uint64) (bool, error) {
	if Age(birthdate, current) < MinimumAge {
		return false, errorsmod.Wrapf(ErrBelowMinimumAge, "minimum age is %d", MinimumAge)
	}
	return true, nil
}
