package curve

// BasisPointsDenominator is 100% expressed in basis points.
const BasisPointsDenominator = 10_000

// CalculateFee returns floor(amount * feeBasisPoints / 10000).
//
// The fee always truncates toward zero, so small trades can carry a zero fee.
// Rates above 10000 bps are not rejected here; GlobalConfig validation keeps them out
// of configured params. The only failure is the 64-bit product overflowing.
func CalculateFee(amount, feeBasisPoints uint64) (uint64, error) {
	product, err := mul64(amount, feeBasisPoints)
	if err != nil {
		return 0, err
	}
	return product / BasisPointsDenominator, nil
}
