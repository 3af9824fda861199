package model

import (
	"fmt"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

// ErrOverflow is returned when a sum or product no longer fits in int64
// terms.
var ErrOverflow = errors.New("time value overflows")

// Ratio is an exact non-negative fraction of a whole note. The zero value is
// 0/1.
type Ratio struct {
	num int64
	den int64
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// mul returns a*b and false if the product overflows.
func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return c, true
}

// R returns num/den in lowest terms. It panics on a zero denominator.
func R(num, den int64) Ratio {
	if den == 0 {
		panic("model: zero denominator")
	}
	if num == 0 {
		return Ratio{}
	}
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(num, den); g > 1 {
		num, den = num/g, den/g
	}
	return Ratio{num: num, den: den}
}

func (r Ratio) Num() int64 { return r.num }

func (r Ratio) Den() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

// Add returns r+o over the least common denominator, or ErrOverflow.
func (r Ratio) Add(o Ratio) (Ratio, error) {
	g := gcd(r.Den(), o.Den())
	rm, om := o.Den()/g, r.Den()/g
	den, ok1 := mul(r.Den(), rm)
	a, ok2 := mul(r.num, rm)
	b, ok3 := mul(o.num, om)
	if !ok1 || !ok2 || !ok3 {
		return Ratio{}, errors.Wrapf(ErrOverflow, "%s + %s", r, o)
	}
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return Ratio{}, errors.Wrapf(ErrOverflow, "%s + %s", r, o)
	}
	return R(sum, den), nil
}

func (r Ratio) Sub(o Ratio) (Ratio, error) {
	if o.num == math.MinInt64 {
		return Ratio{}, errors.Wrapf(ErrOverflow, "%s - %s", r, o)
	}
	return r.Add(Ratio{num: -o.num, den: o.den})
}

func (r Ratio) Mul(o Ratio) (Ratio, error) {
	// cross-reduce first
	g1, g2 := gcd(r.num, o.Den()), gcd(o.num, r.Den())
	num, ok1 := mul(r.num/g1, o.num/g2)
	den, ok2 := mul(r.Den()/g2, o.Den()/g1)
	if !ok1 || !ok2 {
		return Ratio{}, errors.Wrapf(ErrOverflow, "%s * %s", r, o)
	}
	return R(num, den), nil
}

func (r Ratio) big() *big.Rat {
	return new(big.Rat).SetFrac(big.NewInt(r.num), big.NewInt(r.Den()))
}

// Cmp returns -1, 0 or 1.
func (r Ratio) Cmp(o Ratio) int {
	a, ok1 := mul(r.num, o.Den())
	b, ok2 := mul(o.num, r.Den())
	if !ok1 || !ok2 {
		return r.big().Cmp(o.big())
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r Ratio) Less(o Ratio) bool { return r.Cmp(o) < 0 }

func (r Ratio) IsZero() bool { return r.num == 0 }

func MaxRatio(a, b Ratio) Ratio {
	if a.Less(b) {
		return b
	}
	return a
}

// Floor returns the largest integer not above r times n, saturating at the
// int64 limits.
func (r Ratio) Floor(n int64) int64 {
	if p, ok := mul(r.num, n); ok {
		q := r.Den()
		if p < 0 && p%q != 0 {
			return p/q - 1
		}
		return p / q
	}
	p := new(big.Int).Mul(big.NewInt(r.num), big.NewInt(n))
	p.Div(p, big.NewInt(r.Den()))
	if !p.IsInt64() {
		if p.Sign() < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return p.Int64()
}

func (r Ratio) Float64() float64 {
	return float64(r.num) / float64(r.Den())
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.num, r.Den())
}
