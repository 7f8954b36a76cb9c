// Package curve implements the bonding-curve pricing engine of the launchpad.
//
// A curve sells a fixed token supply against SOL using a constant-product formula
// over virtual reserves, while real reserves track what is actually held in
// custody. The package is pure: nothing here performs I/O or reads the clock.
// Callers take an AMM snapshot of a BondingCurve, apply a trade to it and commit the
// snapshot back only after every other check has passed.
//
// Amounts are raw integer units: lamports for SOL and the smallest unit of the token.
package curve
