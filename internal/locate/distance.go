package locate

import "math"

// EstimateDistance converts a received signal strength into a range with the
// log-distance path-loss model d = 10^((txPower - rssi) / (10 n)).
// Arithmetic failures yield +Inf, which FilterObservations later rejects.
func EstimateDistance(rssi, txPower, pathLossExponent float64) float64 {
	if !(pathLossExponent > 0) || math.IsNaN(rssi) || math.IsNaN(txPower) {
		return math.Inf(1)
	}
	d := math.Pow(10, (txPower-rssi)/(10*pathLossExponent))
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}
