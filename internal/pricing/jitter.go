package pricing

import (
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

// JitterSource draws the multiplicative jitter applied to cost.
// Implementations must return a value inside [min, max].
type JitterSource interface {
	Jitter(min, max decimal.Decimal) decimal.Decimal
}

// JitterFijo always returns the same value, clamped to the requested bounds.
type JitterFijo decimal.Decimal

func (f JitterFijo) Jitter(min, max decimal.Decimal) decimal.Decimal {
	v := decimal.Decimal(f)
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

type randJitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandJitter returns a reproducible source: the same seed yields the same
// sequence of draws. Safe for concurrent use.
func NewRandJitter(seed uint64) JitterSource {
	return &randJitter{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *randJitter) Jitter(min, max decimal.Decimal) decimal.Decimal {
	r.mu.Lock()
	f := r.rnd.Float64()
	r.mu.Unlock()
	return escalar(min, max, f)
}

type systemJitter struct{}

// NewSystemJitter draws from the runtime-seeded global generator.
func NewSystemJitter() JitterSource { return systemJitter{} }

func (systemJitter) Jitter(min, max decimal.Decimal) decimal.Decimal {
	return escalar(min, max, rand.Float64())
}

// escalar maps f in [0,1) onto [min, max] at storage precision.
func escalar(min, max decimal.Decimal, f float64) decimal.Decimal {
	v := min.Add(max.Sub(min).Mul(decimal.NewFromFloat(f))).Round(precision)
	if v.GreaterThan(max) {
		return max
	}
	if v.LessThan(min) {
		return min
	}
	return v
}
