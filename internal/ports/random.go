package ports

// RandomSource supplies the uniform draws the execution simulator needs for
// latency, slippage, and venue-failure decisions. Injecting it lets tests
// substitute deterministic sequences for true randomness.
type RandomSource interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	Float64() float64
}
