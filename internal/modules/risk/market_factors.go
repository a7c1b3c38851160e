package risk

import (
	"github.com/markcheno/go-talib"

	"github.com/rocky-invest/strategy-sim/internal/marketdata"
	"github.com/rocky-invest/strategy-sim/pkg/formulas"
)

const (
	volOfVolWindow = 30
	regimeWindow   = 60
)

// MarketRegime labels the recent behavior of the market as a whole.
type MarketRegime string

const (
	RegimeSteadyRise   MarketRegime = "steady_rise"
	RegimeVolatileRise MarketRegime = "volatile_rise"
	RegimeSideways     MarketRegime = "sideways"
	RegimeUnstable     MarketRegime = "unstable"
	RegimeUnknown      MarketRegime = "unknown"
)

// SystemicRiskIndicators are coarse boolean flags over the market data.
type SystemicRiskIndicators struct {
	HighCorrelationPeriod bool `json:"high_correlation_period"`
	HighVolatilityPeriod  bool `json:"high_volatility_period"`
	VolatilityClustering  bool `json:"volatility_clustering"`
}

// MarketRiskFactors is the market-wide section of the risk analysis.
type MarketRiskFactors struct {
	MarketVolatility       float64                `json:"market_volatility"`
	MarketVolatilityLevel  Level                  `json:"market_volatility_level"`
	AverageCorrelation     float64                `json:"average_correlation"`
	CorrelationRisk        Level                  `json:"correlation_risk"`
	VolatilityOfVolatility float64                `json:"volatility_of_volatility"`
	MarketRegime           MarketRegime           `json:"market_regime"`
	SystemicRiskIndicators SystemicRiskIndicators `json:"systemic_risk_indicators"`
}

// AnalyzeMarketFactors derives market-wide risk factors from the price
// table. Returns nil when the table holds too little data to say
// anything.
func (a *Analyzer) AnalyzeMarketFactors(prices *marketdata.PriceTable) *MarketRiskFactors {
	if prices == nil || prices.IsEmpty() {
		return nil
	}

	returnsBySymbol := make(map[string][]float64)
	for _, symbol := range prices.Symbols() {
		returns := formulas.DailyReturns(prices.Closes(symbol))
		if len(returns) >= 2 {
			returnsBySymbol[symbol] = returns
		}
	}

	if len(returnsBySymbol) == 0 {
		return nil
	}

	symbols := prices.Symbols()

	// Market volatility: mean of per-symbol annualized volatilities
	var volSum float64
	var volCount int
	for _, returns := range returnsBySymbol {
		volSum += formulas.AnnualizedVolatility(returns)
		volCount++
	}
	marketVolatility := volSum / float64(volCount)

	avgCorrelation := averagePairwiseCorrelation(symbols, returnsBySymbol)
	volOfVol := volatilityOfVolatility(returnsBySymbol)
	regime := determineRegime(returnsBySymbol)

	return &MarketRiskFactors{
		MarketVolatility:       marketVolatility,
		MarketVolatilityLevel:  CategorizeVolatility(marketVolatility),
		AverageCorrelation:     avgCorrelation,
		CorrelationRisk:        correlationLevel(avgCorrelation),
		VolatilityOfVolatility: volOfVol,
		MarketRegime:           regime,
		SystemicRiskIndicators: SystemicRiskIndicators{
			HighCorrelationPeriod: avgCorrelation > 0.8,
			HighVolatilityPeriod:  marketVolatility > 0.25,
			VolatilityClustering:  volOfVol > 0.02,
		},
	}
}

func averagePairwiseCorrelation(symbols []string, returnsBySymbol map[string][]float64) float64 {
	var sum float64
	var pairs int

	for i := 0; i < len(symbols); i++ {
		x, ok := returnsBySymbol[symbols[i]]
		if !ok {
			continue
		}
		for j := i + 1; j < len(symbols); j++ {
			y, ok := returnsBySymbol[symbols[j]]
			if !ok {
				continue
			}
			n := len(x)
			if len(y) < n {
				n = len(y)
			}
			sum += formulas.Correlation(x[len(x)-n:], y[len(y)-n:])
			pairs++
		}
	}

	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// volatilityOfVolatility measures volatility clustering: the standard
// deviation of each symbol's rolling 30-day return volatility, averaged
// across symbols.
func volatilityOfVolatility(returnsBySymbol map[string][]float64) float64 {
	var sum float64
	var count int

	for _, returns := range returnsBySymbol {
		if len(returns) <= volOfVolWindow {
			continue
		}
		rolling := talib.StdDev(returns, volOfVolWindow, 1.0)
		sum += formulas.StdDev(rolling[volOfVolWindow-1:])
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// determineRegime classifies the last 60 trading days of the market by
// average return and volatility.
func determineRegime(returnsBySymbol map[string][]float64) MarketRegime {
	var meanSum, volSum float64
	var count int

	for _, returns := range returnsBySymbol {
		var mean, vol float64
		if len(returns) >= regimeWindow {
			sma := talib.Sma(returns, regimeWindow)
			dev := talib.StdDev(returns, regimeWindow, 1.0)
			mean = sma[len(sma)-1]
			vol = dev[len(dev)-1]
		} else {
			mean = formulas.Mean(returns)
			vol = formulas.StdDev(returns)
		}
		meanSum += mean
		volSum += vol
		count++
	}

	if count == 0 {
		return RegimeUnknown
	}

	avgReturn := meanSum / float64(count)
	avgVol := volSum / float64(count)

	switch {
	case avgReturn > 0.001 && avgVol < 0.02:
		return RegimeSteadyRise
	case avgReturn > 0.001:
		return RegimeVolatileRise
	case avgVol < 0.02:
		return RegimeSideways
	default:
		return RegimeUnstable
	}
}
