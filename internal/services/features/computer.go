package features

import (
	"fmt"
	"math"

	"TraderMind/internal/domain/models"
	"TraderMind/pkg/util"
)

// Indicator periods. The minimum window gives every indicator enough
// history to warm up.
const (
	MinPrices        = 50
	RSIPeriod        = 14
	EMAFastPeriod    = 5
	EMASlowPeriod    = 20
	ATRPeriod        = 14
	MomentumPeriod   = 10
	VolatilityPeriod = 20
)

// ErrInsufficientData is returned when fewer than MinPrices points are
// supplied. The caller must not proceed to inference or risk stages.
type ErrInsufficientData struct {
	Got, Want int
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("insufficient data: got %d prices, need %d", e.Got, e.Want)
}

// Computer derives a fixed technical feature vector from an ordered
// price sequence. Identical input always yields an identical vector.
type Computer struct {
	minPrices int
}

func NewComputer() *Computer {
	return &Computer{minPrices: MinPrices}
}

// Compute builds the feature vector. Prices must be ordered oldest
// first; fewer than the minimum window is a hard error.
func (c *Computer) Compute(prices []float64) (models.FeatureVector, error) {
	if len(prices) < c.minPrices {
		return models.FeatureVector{}, &ErrInsufficientData{Got: len(prices), Want: c.minPrices}
	}
	return models.FeatureVector{
		RSI:        util.Round4(rsi(prices, RSIPeriod)),
		EMAFast:    util.Round4(ema(prices, EMAFastPeriod)),
		EMASlow:    util.Round4(ema(prices, EMASlowPeriod)),
		ATR:        util.Round4(atr(prices, ATRPeriod)),
		Momentum:   util.Round4(momentum(prices, MomentumPeriod)),
		Volatility: util.Round4(volatility(prices, VolatilityPeriod)),
	}, nil
}

// rsi is the Wilder-style relative strength index: seed averages over
// the first `period` deltas, then recursive smoothing for the rest.
func rsi(prices []float64, period int) float64 {
	if len(prices) <= period {
		return 0
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss += -d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ema seeds with the first price and applies the smoothing constant
// strictly in input order; it is never re-seeded per window.
func ema(prices []float64, period int) float64 {
	k := 2.0 / float64(period+1)
	v := prices[0]
	for _, p := range prices[1:] {
		v = p*k + v*(1-k)
	}
	return v
}

// atr reduces true range to |price[i]-price[i-1]| since only a single
// price series is available (high = low = close). First ATR is the mean
// of the first `period` true ranges; the rest use Wilder smoothing.
func atr(prices []float64, period int) float64 {
	trs := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		trs = append(trs, math.Abs(prices[i]-prices[i-1]))
	}
	if len(trs) < period {
		return 0
	}
	var v float64
	for i := 0; i < period; i++ {
		v += trs[i]
	}
	v /= float64(period)
	for i := period; i < len(trs); i++ {
		v = (v*float64(period-1) + trs[i]) / float64(period)
	}
	return v
}

// momentum is the relative change against the price `period` steps back.
func momentum(prices []float64, period int) float64 {
	n := len(prices)
	if n-1-period < 0 {
		return 0
	}
	base := prices[n-1-period]
	if base == 0 {
		return 0
	}
	return (prices[n-1] - base) / base
}

// volatility is the population standard deviation of simple returns over
// the trailing window. Pairs with a zero denominator are skipped.
func volatility(prices []float64, period int) float64 {
	start := len(prices) - period
	if start < 1 {
		start = 1
	}
	rets := make([]float64, 0, period)
	for i := start; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		rets = append(rets, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(rets) == 0 {
		return 0
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	var sum2 float64
	for _, r := range rets {
		d := r - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(rets)))
}
