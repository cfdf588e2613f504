package usecase

const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// minHistoryBars is the shortest close series that yields a meaningful MACD
// histogram; shorter histories drop the symbol from the session.
const minHistoryBars = macdSlowPeriod + macdSignalPeriod

func ema(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD computes the moving-average convergence/divergence of a close
// series: the MACD line, its signal line, the histogram, and the
// histogram's first derivative.
func MACD(closes []float64) (macd, signal, histogram, derivative []float64) {
	if len(closes) == 0 {
		return nil, nil, nil, nil
	}

	fast := ema(closes, macdFastPeriod)
	slow := ema(closes, macdSlowPeriod)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}

	signal = ema(macd, macdSignalPeriod)

	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macd[i] - signal[i]
	}

	derivative = make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		derivative[i] = histogram[i] - histogram[i-1]
	}
	return macd, signal, histogram, derivative
}
