package rates

// SimulateSource quotes assets from the Binance public API without
// authentication. Simulation uses real market prices so divergence
// behaves exactly as it would live.
type SimulateSource struct {
	*BinanceSource
}

// NewSimulateSource creates a source over a keyless Binance client.
func NewSimulateSource(inner *BinanceSource) *SimulateSource {
	return &SimulateSource{BinanceSource: inner}
}
