package curve

import (
	"math/bits"

	"lukechampine.com/uint128"
)

// All curve arithmetic on reserves is done here. Products are taken in 128 bits and
// only the final value is narrowed back to 64 bits.

func add64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func sub64(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticOverflow
	}
	return diff, nil
}

func mul64(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// wideMul returns a*b as a 128-bit value. Two 64-bit factors always fit.
func wideMul(a, b uint64) uint128.Uint128 {
	return uint128.From64(a).Mul64(b)
}

// mul128 multiplies a 128-bit value by a 64-bit factor, reporting overflow
// instead of panicking.
func mul128(a uint128.Uint128, b uint64) (uint128.Uint128, error) {
	hiHi, hiLo := bits.Mul64(a.Hi, b)
	if hiHi != 0 {
		return uint128.Zero, ErrArithmeticOverflow
	}
	loHi, loLo := bits.Mul64(a.Lo, b)
	hi, carry := bits.Add64(hiLo, loHi, 0)
	if carry != 0 {
		return uint128.Zero, ErrArithmeticOverflow
	}
	return uint128.New(loLo, hi), nil
}

// narrow converts back to 64 bits.
func narrow(v uint128.Uint128) (uint64, error) {
	if v.Hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return v.Lo, nil
}

// divCeil returns ceil(n / d) narrowed to 64 bits.
func divCeil(n uint128.Uint128, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDepleted
	}
	q, r := n.QuoRem64(d)
	if r != 0 {
		q = q.AddWrap64(1)
		if q.IsZero() {
			return 0, ErrArithmeticOverflow
		}
	}
	return narrow(q)
}

// divFloor returns floor(n / d) narrowed to 64 bits.
func divFloor(n uint128.Uint128, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDepleted
	}
	return narrow(n.Div64(d))
}
