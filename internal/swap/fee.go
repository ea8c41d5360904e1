package swap

// feeDivisor takes 1% of profit.
const feeDivisor = 100

// PlatformFee is 1% of the quoted profit in base units, rounded down. Trades that are
// not profitable by the quote carry no fee.
func PlatformFee(amountIn, expectedOutput uint64) uint64 {
	if expectedOutput <= amountIn {
		return 0
	}
	return (expectedOutput - amountIn) / feeDivisor
}
