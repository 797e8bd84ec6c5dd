// Package fee implements exact protocol-fee arithmetic. Fees are expressed
// in parts per million and always round up, so the protocol never
// under-collects due to truncation.
package fee

import (
	"fmt"
	"math/bits"
)

// Scale is the denominator of a Rate: one million parts.
const Scale = 1_000_000

// Rate is a fee rate in parts per million. Valid rates lie in [0, Scale],
// i.e. 0% to 100%.
type Rate uint32

// Valid reports whether the rate is within [0, 100%].
func (r Rate) Valid() bool {
	return r <= Scale
}

// String renders the rate as a percentage, e.g. "0.5%".
func (r Rate) String() string {
	return fmt.Sprintf("%g%%", float64(r)/(Scale/100))
}

// CeilMul returns ceil(amount * r / Scale) using a 128-bit intermediate
// product, so it cannot overflow for any uint64 amount. The quotient's high
// word is always zero because r <= Scale.
func (r Rate) CeilMul(amount uint64) uint64 {
	if r == 0 || amount == 0 {
		return 0
	}
	hi, lo := bits.Mul64(amount, uint64(r))
	q, rem := bits.Div64(hi, lo, Scale)
	if rem > 0 {
		q++
	}
	return q
}
