package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value
// series as a signed fraction: 0 for a monotonically rising series,
// -0.25 for a 25% loss from the running peak.
func MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdown := (v - peak) / peak
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// DrawdownSeries returns the signed drawdown from the running peak for
// every point of the series. The first element is always 0.
func DrawdownSeries(values []float64) []float64 {
	drawdowns := make([]float64, len(values))
	if len(values) == 0 {
		return drawdowns
	}

	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdowns[i] = (v - peak) / peak
		}
	}
	return drawdowns
}
